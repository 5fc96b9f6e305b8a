package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	modes        = []string{"service", "lambda"}
	payloadTypes = []string{"api-gateway-v1", "api-gateway-v2", "lambda-url"}
	sources      = []string{"env", "ssm"}
)

// Validate checks the enumerated settings and the combinations that cannot work.
func Validate() error {
	var errs []error
	if !slices.Contains(modes, Global.Mode) {
		errs = append(errs, fmt.Errorf("unsupported mode: %q", Global.Mode))
	}
	if Global.Mode == "lambda" && !slices.Contains(payloadTypes, Lambda.PayloadType) {
		errs = append(errs, fmt.Errorf("unsupported lambda payload type: %q", Lambda.PayloadType))
	}
	if !slices.Contains(sources, Secrets.Source) {
		errs = append(errs, fmt.Errorf("unsupported secrets source: %q", Secrets.Source))
	}
	if Secrets.Source == "ssm" && Secrets.SSMKey == "" {
		errs = append(errs, errors.New("secrets source ssm requires an SSM key"))
	}
	if FileMakerConfigured() && FileMaker.Database == "" {
		errs = append(errs, errors.New("FileMaker host is set but the database is not"))
	}
	if Twilio.ValidateSignature && Twilio.AuthToken == "" && Secrets.Source != "ssm" {
		errs = append(errs, errors.New("signature validation requires the Twilio auth token"))
	}
	if Archive.S3.Enabled && Archive.S3.BucketName == "" {
		errs = append(errs, errors.New("S3 archive is enabled but no bucket is set"))
	}
	return errors.Join(errs...)
}

// FileMakerConfigured reports whether notifications can be written.
func FileMakerConfigured() bool {
	return FileMaker.Host != ""
}

// TwilioConfigured reports whether messages can be fetched from Twilio.
func TwilioConfigured() bool {
	return Twilio.AccountSid != "" && Twilio.AuthToken != ""
}
