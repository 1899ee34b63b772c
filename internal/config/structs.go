package config

import (
	"time"

	"github.com/campushub/portal/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Auth      Auth
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool    // use clean path middleware to allow multi slash requests
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	Session        Session // session settings
}

// LocalDBAuth holds settings for username/password sign-in against the portal database.
type LocalDBAuth struct {
	Enabled bool `toml:"enabled"`
}

// OIDCAuth holds settings for campus single sign-on via OpenID Connect.
type OIDCAuth struct {
	Enabled      bool     `toml:"enabled"`
	ProviderURL  string   `toml:"providerUrl"`
	ClientID     string   `toml:"clientId"`
	ClientSecret string   `toml:"clientSecret"`
	RedirectURL  string   `toml:"redirectUrl"`
	Scopes       []string `toml:"scopes"`
}

// Auth groups the sign-in providers the portal accepts.
type Auth struct {
	LocalDB LocalDBAuth `toml:"localdb"`
	OIDC    OIDCAuth    `toml:"oidc"`
}

// DB holds the database configuration settings.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	GormEngine string // "mysql" or "sqlite"
}
