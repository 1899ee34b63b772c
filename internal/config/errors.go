package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrOIDCProviderURLEmpty error if OIDC sign-in is enabled without a provider URL.
	ErrOIDCProviderURLEmpty = errors.New("toml config auth.oidc.providerUrl can not be empty when oidc is enabled")
)
