package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridSender_Send(t *testing.T) {
	var (
		gotAuth string
		gotPath string
		payload map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.Header().Set("X-Message-Id", "sg-123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewSendGridSender("SG.test").WithHost(srv.URL)
	receipt, err := sender.Send(context.Background(), &Message{
		From:    Address{Name: "Kredible Platform", Email: "noreply@kredible.dev"},
		To:      Address{Name: "Bob", Email: "bob@x.com"},
		Subject: "Hello",
		Text:    "plain",
		HTML:    "<p>html</p>",
		Track:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, receipt.StatusCode)
	assert.Equal(t, "sg-123", receipt.MessageID)
	assert.Equal(t, "Bearer SG.test", gotAuth)
	assert.Equal(t, "/v3/mail/send", gotPath)

	assert.Equal(t, "Hello", payload["subject"])
	from := payload["from"].(map[string]any)
	assert.Equal(t, "noreply@kredible.dev", from["email"])
	assert.Equal(t, "Kredible Platform", from["name"])

	tracking := payload["tracking_settings"].(map[string]any)
	click := tracking["click_tracking"].(map[string]any)
	assert.Equal(t, true, click["enable"])
	open := tracking["open_tracking"].(map[string]any)
	assert.Equal(t, true, open["enable"])
}

func TestSendGridSender_NoTrackingByDefault(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	_, err := NewSendGridSender("SG.test").WithHost(srv.URL).Send(context.Background(), &Message{
		From: Address{Email: "noreply@kredible.dev"}, To: Address{Email: "bob@x.com"},
		Subject: "Hello", Text: "plain", HTML: "<p>html</p>",
	})
	require.NoError(t, err)
	_, hasTracking := payload["tracking_settings"]
	assert.False(t, hasTracking)
}

func TestSendGridSender_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":[{"message":"The from address does not match a verified Sender Identity."}]}`))
	}))
	defer srv.Close()

	_, err := NewSendGridSender("SG.test").WithHost(srv.URL).Send(context.Background(), &Message{
		From: Address{Email: "noreply@kredible.dev"}, To: Address{Email: "bob@x.com"},
		Subject: "Hello", Text: "plain",
	})
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusForbidden, pe.StatusCode)
	assert.Equal(t, "The from address does not match a verified Sender Identity.", pe.Message)
}

func TestSendGridErrorMessage(t *testing.T) {
	assert.Equal(t, "bad key", sendGridErrorMessage(`{"errors":[{"message":"bad key"}]}`))
	assert.Equal(t, "upstream down", sendGridErrorMessage("upstream down"))
	assert.Equal(t, "Unknown error", sendGridErrorMessage(""))
}
