package cmd

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/isometry/twilio-fm-relay/internal/config"
	"github.com/isometry/twilio-fm-relay/internal/controllers/aws"
	"github.com/isometry/twilio-fm-relay/internal/controllers/filemaker"
	"github.com/isometry/twilio-fm-relay/internal/controllers/twilio"
	"github.com/isometry/twilio-fm-relay/internal/handler"
	"github.com/isometry/twilio-fm-relay/internal/metrics"
	"github.com/isometry/twilio-fm-relay/internal/relay"
	"github.com/isometry/twilio-fm-relay/internal/runtime"
	"github.com/pkg/errors"
)

// ssmSecrets is the JSON document stored in the secrets SSM parameter. Empty fields are ignored.
type ssmSecrets struct {
	FileMakerUsername string `json:"filemaker_username"`
	FileMakerPassword string `json:"filemaker_password"`
	TwilioAccountSid  string `json:"twilio_account_sid"`
	TwilioAuthToken   string `json:"twilio_auth_token"`
}

// newRuntime resolves secrets, builds the controllers and wraps the relay handler in a runtime.
// Configuration is read here once and never again.
func newRuntime(ctx context.Context, recorder *metrics.Recorder) (*runtime.Runtime, error) {
	var awsCtl *aws.Controller
	newAWSController := func() (*aws.Controller, error) {
		if awsCtl != nil {
			return awsCtl, nil
		}
		ctl, err := aws.NewController(
			aws.WithLogger(logger.With("component", "aws-controller")),
			aws.WithContext(ctx))
		if err != nil {
			return nil, errors.Wrap(err, "failed to create AWS controller")
		}
		awsCtl = ctl
		return ctl, nil
	}

	if config.Secrets.Source == "ssm" {
		ctl, err := newAWSController()
		if err != nil {
			return nil, err
		}
		if err = resolveSecrets(ctl, config.Secrets.SSMKey); err != nil {
			return nil, err
		}
	}

	opts := []handler.Option{
		handler.WithLogger(logger.With("component", "relay-handler")),
		handler.WithRecorder(recorder),
		handler.WithLambdaPayloadType(config.Lambda.PayloadType),
		handler.WithDumpFile(config.Relay.DumpFile),
	}

	writeMode, err := relay.ParseWriteMode(config.Relay.WriteMode)
	if err != nil {
		return nil, err
	}
	opts = append(opts, handler.WithWriteMode(writeMode, config.FileMaker.Layout, config.FileMaker.Script))

	mapping, err := relay.ParseFieldMapping(config.Relay.FieldMapping)
	if err != nil {
		return nil, err
	}
	opts = append(opts, handler.WithFieldMapping(mapping))

	tmpl, err := relay.ParseMessageTemplate(config.Relay.MessageTemplate)
	if err != nil {
		return nil, err
	}
	opts = append(opts, handler.WithMessageTemplate(tmpl))

	if config.FileMakerConfigured() && writeMode != relay.WriteModeNone {
		fm, err := filemaker.NewController(
			filemaker.WithHost(config.FileMaker.Host),
			filemaker.WithDatabase(config.FileMaker.Database),
			filemaker.WithCredentials(config.FileMaker.Username, config.FileMaker.Password),
			filemaker.WithVersion(config.FileMaker.Version),
			filemaker.WithTimeout(config.FileMaker.Timeout),
			filemaker.WithHTTPClient(recorder.InstrumentClient(metrics.UpstreamFileMaker, cleanhttp.DefaultPooledClient())),
			filemaker.WithLogger(logger.With("component", "filemaker-controller")))
		if err != nil {
			return nil, errors.Wrap(err, "failed to create FileMaker controller")
		}
		opts = append(opts, handler.WithFileMaker(fm))
	}

	if config.TwilioConfigured() {
		tw, err := twilio.NewController(
			twilio.WithCredentials(config.Twilio.AccountSid, config.Twilio.AuthToken),
			twilio.WithBaseURL(config.Twilio.BaseURL),
			twilio.WithTimeout(config.Twilio.Timeout),
			twilio.WithHTTPClient(recorder.InstrumentClient(metrics.UpstreamTwilio, cleanhttp.DefaultPooledClient())),
			twilio.WithLogger(logger.With("component", "twilio-controller")))
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Twilio controller")
		}
		opts = append(opts, handler.WithTwilio(tw))
	}

	if config.Twilio.ValidateSignature {
		if config.Twilio.AuthToken == "" {
			return nil, errors.New("signature validation requires the Twilio auth token")
		}
		opts = append(opts, handler.WithSignatureValidation(config.Twilio.AuthToken, config.Twilio.WebhookURL))
	}

	if config.Archive.S3.Enabled {
		ctl, err := newAWSController()
		if err != nil {
			return nil, err
		}
		opts = append(opts, handler.WithArchive(ctl, config.Archive.S3.BucketName))
	}

	logger.Debug("creating relay handler...")
	hdl, err := handler.NewRelayHandler(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create relay handler")
	}

	logger.Debug("creating runtime...")
	return runtime.NewRuntime(hdl,
		runtime.WithLogger(logger.With("component", "runtime"))), nil
}

// resolveSecrets overlays the credentials stored in the SSM parameter key on the configuration.
func resolveSecrets(ctl *aws.Controller, key string) error {
	value, err := ctl.GetSecret(key, true)
	if err != nil {
		return errors.Wrap(err, "failed to resolve secrets")
	}
	var s ssmSecrets
	if err = json.Unmarshal([]byte(*value), &s); err != nil {
		return errors.Wrapf(err, "SSM parameter %s is not a JSON secrets document", key)
	}
	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&config.FileMaker.Username, s.FileMakerUsername)
	overlay(&config.FileMaker.Password, s.FileMakerPassword)
	overlay(&config.Twilio.AccountSid, s.TwilioAccountSid)
	overlay(&config.Twilio.AuthToken, s.TwilioAuthToken)
	logger.Info("resolved secrets from SSM", slog.String("key", key))
	return nil
}
