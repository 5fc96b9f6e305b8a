package cmd

import (
	"time"

	"github.com/isometry/twilio-fm-relay/internal/config"
	"github.com/isometry/twilio-fm-relay/internal/helpers"
)

var envMapString = map[*string]boundEnvVar[string]{
	&config.Global.Mode: {
		Name:        "mode",
		Description: "The application runtime mode. Possible values are 'service' and 'lambda'",
		Short:       helpers.Ptr("m"),
	},
	&config.FileMaker.Host: {
		Name:        "fm-host",
		Description: "The FileMaker Server host. If not specified, notifications are not written",
		Env:         helpers.Ptr("FM_HOST"),
	},
	&config.FileMaker.Database: {
		Name:        "fm-database",
		Description: "The FileMaker database receiving the notifications",
		Env:         helpers.Ptr("FM_DATABASE"),
	},
	&config.FileMaker.Username: {
		Name:        "fm-username",
		Description: "The FileMaker Data API account name",
		Env:         helpers.Ptr("FM_USERNAME"),
	},
	&config.FileMaker.Password: {
		Name:        "fm-password",
		Description: "The FileMaker Data API account password",
		Env:         helpers.Ptr("FM_PASSWORD"),
	},
	&config.FileMaker.Version: {
		Name:        "fm-api-version",
		Description: "The FileMaker Data API version",
	},
	&config.FileMaker.Layout: {
		Name:        "fm-layout",
		Description: "The layout records are created on and scripts run from",
	},
	&config.FileMaker.Script: {
		Name:        "fm-script",
		Description: "The script run in 'script' write mode",
	},
	&config.Twilio.AccountSid: {
		Name:        "twilio-account-sid",
		Description: "The Twilio account SID used to fetch message bodies",
		Env:         helpers.Ptr("TWILIO_ACCOUNT_SID"),
	},
	&config.Twilio.AuthToken: {
		Name:        "twilio-auth-token",
		Description: "The Twilio auth token used to fetch message bodies and validate signatures",
		Env:         helpers.Ptr("TWILIO_AUTH_TOKEN"),
	},
	&config.Twilio.BaseURL: {
		Name:        "twilio-base-url",
		Description: "Override the Twilio REST API endpoint",
		Hidden:      true,
	},
	&config.Twilio.WebhookURL: {
		Name:        "twilio-webhook-url",
		Description: "The public webhook URL signed by Twilio. If not specified, the request URL is used",
	},
	&config.Relay.WriteMode: {
		Name:        "relay-write-mode",
		Description: "The FileMaker operation. Supported values are 'record', 'script' and 'none'",
	},
	&config.Relay.MessageTemplate: {
		Name:        "relay-message-template",
		Description: "A Go template rendering the script parameter instead of the JSON record",
	},
	&config.Relay.DumpFile: {
		Name:        "relay-dump-file",
		Description: "Append every received notification to this file",
	},
	&config.Archive.S3.BucketName: {
		Name:        "archive-s3-bucket",
		Description: "The S3 bucket to archive raw notifications to",
	},
	&config.Secrets.Source: {
		Name:        "secrets-source",
		Description: "Where credentials are resolved from. Supported values are 'env' and 'ssm'",
	},
	&config.Secrets.SSMKey: {
		Name:        "secrets-ssm-key",
		Description: "The SSM parameter holding the JSON credentials document",
	},
}

var envMapBool = map[*bool]boundEnvVar[bool]{
	&config.Global.Logging.CallerTrace: {
		Name:        "verbosity-caller-trace",
		Description: "Enable caller trace in logs",
		Short:       helpers.Ptr("V"),
	},
	&config.Twilio.ValidateSignature: {
		Name:        "twilio-validate-signature",
		Description: "Reject requests without a valid X-Twilio-Signature",
	},
	&config.Archive.S3.Enabled: {
		Name:        "archive-s3",
		Description: "Enable S3 archiving of raw notifications",
	},
}

var envMapCount = map[*int]boundEnvVar[int]{
	&config.Global.Logging.Verbosity: {
		Name:        "verbosity",
		Description: "Increase logger verbosity (default WarnLevel)",
		Short:       helpers.Ptr("v"),
	},
}

var envMapDuration = map[*time.Duration]boundEnvVar[time.Duration]{
	&config.FileMaker.Timeout: {
		Name:        "fm-timeout",
		Description: "The timeout of each FileMaker Data API call",
	},
	&config.Twilio.Timeout: {
		Name:        "twilio-timeout",
		Description: "The timeout of each Twilio API call",
	},
}

var envMapStringMap = map[*map[string]string]boundEnvVar[map[string]string]{
	&config.Relay.FieldMapping: {
		Name:        "relay-field-mapping",
		Description: "FileMaker fields and their sources, as Field=source pairs. Sources: sid, timestamp, level, resource_sid, error_code, message_body, payload.<key>, form.<Field>",
	},
}
