package config

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups Kredible's secrets in the OS keychain.
	KeyringService = "kredible"
	// sendGridAccount is the keychain account holding the SendGrid API key.
	sendGridAccount = "sendgrid_api_key"
)

// SendGridAPIKeyFromKeyring reads the SendGrid API key stored in the OS keychain.
func SendGridAPIKeyFromKeyring() (string, error) {
	key, err := keyring.Get(KeyringService, sendGridAccount)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(key) == "" {
		return "", errors.New("SendGrid API key in keychain is empty")
	}
	return key, nil
}

// SetSendGridAPIKey stores the SendGrid API key in the OS keychain.
func SetSendGridAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("API key is empty")
	}
	return keyring.Set(KeyringService, sendGridAccount, key)
}

// DeleteSendGridAPIKey removes the SendGrid API key from the OS keychain.
func DeleteSendGridAPIKey() error {
	return keyring.Delete(KeyringService, sendGridAccount)
}
