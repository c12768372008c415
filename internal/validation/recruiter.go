package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/kredible/internal/types"
)

// validate is shared; validator caches struct metadata per instance.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names so messages match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NormalizeRecruiterInput trims surrounding whitespace from every field.
func NormalizeRecruiterInput(in *types.CreateRequestInput) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Company = strings.TrimSpace(in.Company)
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	in.CompanySize = strings.TrimSpace(in.CompanySize)
	in.CandidateEmail = strings.TrimSpace(in.CandidateEmail)
	in.CandidateName = strings.TrimSpace(in.CandidateName)
	in.PositionTitle = strings.TrimSpace(in.PositionTitle)
	in.AdditionalNotes = strings.TrimSpace(in.AdditionalNotes)
}

// RecruiterInput normalises and validates the recruiter form.
// Any missing required field yields MsgMissingRequired; a malformed address
// names the offending field.
func RecruiterInput(in *types.CreateRequestInput) error {
	NormalizeRecruiterInput(in)

	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate recruiter input: %w", err)
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return &Error{Message: MsgMissingRequired}
		}
	}

	fe := fieldErrs[0]
	return &Error{
		Field:   fe.Field(),
		Message: fmt.Sprintf("Please enter a valid email address for %s", fe.Field()),
	}
}

// Email reports whether addr is a syntactically valid email address.
func Email(addr string) bool {
	return validate.Var(strings.TrimSpace(addr), "required,email") == nil
}
