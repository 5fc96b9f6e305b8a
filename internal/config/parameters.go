// Package config provides a centralized entrypoint for the application parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"go.yaml.in/yaml/v3"
)

var (
	// Global is a struct that contains the global configuration.
	Global global
	// Service is a struct that contains the configuration for the service mode.
	Service service
	// Lambda is a struct that contains the configuration for the lambda mode.
	Lambda lambda
	// FileMaker is a struct that contains the FileMaker Data API connection.
	FileMaker fileMaker
	// Twilio is a struct that contains the Twilio credentials and webhook settings.
	Twilio twilio
	// Relay is a struct that contains what is written and how.
	Relay relay
	// Archive is a struct that contains the configuration for archiving notifications.
	Archive archive
	// Secrets is a struct that contains where credentials are resolved from.
	Secrets secrets
)

type global struct {
	// Mode is the runtime mode of the application.
	Mode string `yaml:"mode,omitempty" default:"service"`
	// Logging is a struct that contains the logging configuration.
	Logging struct {
		// Verbosity is the verbosity level of the application. It represents slog levels.
		Verbosity int `yaml:"verbosity,omitempty"`
		// CallerTrace is a flag that enables the caller trace in the logger.
		CallerTrace bool `yaml:"callerTrace,omitempty"`
	} `yaml:"logging,omitempty"`
}

type service struct {
	Path    string        `yaml:"path,omitempty" default:"/"`
	Addr    string        `yaml:"addr,omitempty"`
	Port    string        `yaml:"port,omitempty" default:"3000"`
	Timeout time.Duration `yaml:"timeout,omitempty" default:"15s"`
}

type lambda struct {
	PayloadType string `yaml:"payloadType,omitempty" default:"api-gateway-v2"`
}

type fileMaker struct {
	// Host is the FileMaker Server host, with or without scheme. Empty disables writes.
	Host     string `yaml:"host,omitempty"`
	Database string `yaml:"database,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	// Version is the Data API version path segment.
	Version string        `yaml:"version,omitempty" default:"vLatest"`
	Layout  string        `yaml:"layout,omitempty"`
	Script  string        `yaml:"script,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty" default:"5s"`
}

type twilio struct {
	AccountSid string `yaml:"accountSid,omitempty"`
	AuthToken  string `yaml:"authToken,omitempty"`
	// BaseURL overrides the REST API endpoint.
	BaseURL string        `yaml:"baseURL,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty" default:"5s"`
	// ValidateSignature rejects requests without a valid X-Twilio-Signature.
	ValidateSignature bool `yaml:"validateSignature,omitempty"`
	// WebhookURL is the public URL Twilio signs. Defaults to the URL the request was received on.
	WebhookURL string `yaml:"webhookURL,omitempty"`
}

type relay struct {
	WriteMode string `yaml:"writeMode,omitempty" default:"record"`
	// FieldMapping maps datastore field names to notification sources.
	FieldMapping    map[string]string `yaml:"fieldMapping,omitempty"`
	MessageTemplate string            `yaml:"messageTemplate,omitempty"`
	// DumpFile receives every notification when set.
	DumpFile string `yaml:"dumpFile,omitempty"`
}

type archive struct {
	S3 struct {
		BucketName string `yaml:"bucketName,omitempty"`
		Enabled    bool   `yaml:"enabled,omitempty"`
	} `yaml:"s3,omitempty"`
}

type secrets struct {
	// Source is either env or ssm.
	Source string `yaml:"source,omitempty" default:"env"`
	// SSMKey names the SecureString parameter holding the JSON secret document.
	SSMKey string `yaml:"ssmKey,omitempty" default:"twilio-fm-relay"`
}

// SetDefaults sets the default values for the configuration.
func SetDefaults() error {
	return errors.Join(
		defaults.Set(&Global),
		defaults.Set(&Service),
		defaults.Set(&Lambda),
		defaults.Set(&FileMaker),
		defaults.Set(&Twilio),
		defaults.Set(&Relay),
		defaults.Set(&Archive),
		defaults.Set(&Secrets),
	)
}

// LoadFromFile loads the configuration from a file. Values absent from the file keep their current value.
func LoadFromFile(path string) error {
	if len(path) == 0 {
		return nil
	}
	fstat, err := os.Stat(path)
	if err != nil {
		return nil //nolint:nilerr // If the file does not exist, we ignore it.
	}
	if fstat.IsDir() {
		return fmt.Errorf("configuration file %s is a directory", path)
	}
	if !fstat.Mode().IsRegular() {
		return fmt.Errorf("configuration file %s is not a regular file", path)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	type all struct {
		Global    *global    `yaml:"global,omitempty"`
		Service   *service   `yaml:"service,omitempty"`
		Lambda    *lambda    `yaml:"lambda,omitempty"`
		FileMaker *fileMaker `yaml:"filemaker,omitempty"`
		Twilio    *twilio    `yaml:"twilio,omitempty"`
		Relay     *relay     `yaml:"relay,omitempty"`
		Archive   *archive   `yaml:"archive,omitempty"`
		Secrets   *secrets   `yaml:"secrets,omitempty"`
	}
	a := all{
		Global:    &Global,
		Service:   &Service,
		Lambda:    &Lambda,
		FileMaker: &FileMaker,
		Twilio:    &Twilio,
		Relay:     &Relay,
		Archive:   &Archive,
		Secrets:   &Secrets,
	}
	if err = yaml.Unmarshal(content, &a); err != nil {
		return fmt.Errorf("failed to unmarshal configuration file %s: %w", path, err)
	}

	return nil
}
