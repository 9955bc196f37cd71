package config

import (
	"errors"
	"fmt"

	"shiptracker/lib/configutil"
)

// ErrConfiguration is returned when the config file is missing, malformed or
// lacks a required field. It is always fatal.
var ErrConfiguration = errors.New("configuration error")

const (
	DefaultSMTPServer = "smtp.gmail.com"
	DefaultSMTPPort   = 587
)

type EmailConfig struct {
	FromEmail   string `json:"from_email"`
	ToEmail     string `json:"to_email"`
	AppPassword string `json:"app_password"`
	Server      string `json:"server"`
	Port        int    `json:"port"`
}

type TrackingConfig struct {
	// Nonce overrides the form nonce sent with the tracking request, the site
	// rotates it from time to time.
	Nonce string `json:"nonce"`
}

type Config struct {
	Email    EmailConfig    `json:"email"`
	Tracking TrackingConfig `json:"tracking"`
}

func (c Config) validate() error {
	var missing []string
	if c.Email.FromEmail == "" {
		missing = append(missing, "email.from_email")
	}
	if c.Email.ToEmail == "" {
		missing = append(missing, "email.to_email")
	}
	if c.Email.AppPassword == "" {
		missing = append(missing, "email.app_password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields %v", missing)
	}
	if c.Email.Port < 0 || c.Email.Port > 65535 {
		return fmt.Errorf("invalid email.port %d", c.Email.Port)
	}
	return nil
}

// Load reads the config at path (and its .local override), applies defaults and
// validates it. Every failure wraps ErrConfiguration.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: read %s: %w", ErrConfiguration, path, err)
	}

	if cfg.Email.Server == "" {
		cfg.Email.Server = DefaultSMTPServer
	}
	if cfg.Email.Port == 0 {
		cfg.Email.Port = DefaultSMTPPort
	}

	err = cfg.validate()
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrConfiguration, path, err)
	}
	return cfg, nil
}
