// Package validation provides functionality for validating Twilio webhook signatures to verify request authenticity.
package validation

import (
	"errors"
	"fmt"

	"github.com/twilio/twilio-go/client"
)

// SignatureHeader carries the request signature, lower-cased as stored in models.Request.
const SignatureHeader = "x-twilio-signature"

// AuthToken represents the Twilio auth token used to validate webhook signatures.
type AuthToken string

// NewAuthToken creates a new AuthToken instance from the provided token string and returns its address.
func NewAuthToken(token string) *AuthToken {
	s := AuthToken(token)
	return &s
}

// ValidateSignature validates the HMAC-SHA1 signature of a form-encoded webhook delivered to url.
func (s *AuthToken) ValidateSignature(url string, params map[string]string, headers map[string]string) error {
	if s == nil || *s == "" {
		return errors.New("missing Twilio auth token")
	}
	signature, found := headers[SignatureHeader]
	if !found || signature == "" {
		return errors.New("missing Twilio signature")
	}
	if url == "" {
		return errors.New("missing webhook URL")
	}

	validator := client.NewRequestValidator(string(*s))
	if !validator.Validate(url, params, signature) {
		return fmt.Errorf("invalid Twilio signature for %s", url)
	}
	return nil
}
