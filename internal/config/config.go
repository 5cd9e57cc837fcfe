package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix              = "MIMAPA"
	defaultHTTPAddress     = "0.0.0.0:8080"
	defaultLogLevel        = "info"
	defaultMongoDatabase   = "mimapadb"
	defaultTokenTTLMinutes = 60
)

// AppConfig captures runtime configuration for the API server. It is
// constructed once at startup and passed by value into component
// constructors; nothing mutates it afterwards.
type AppConfig struct {
	HTTPAddress string
	LogLevel    string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	SessionSigningSecret string
	TokenTTL             time.Duration

	MongoURI      string
	MongoDatabase string

	FrontendRedirectURL string

	GeocodingAPIKey string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("mongo.database", defaultMongoDatabase)
	configViper.SetDefault("token.ttl_minutes", defaultTokenTTLMinutes)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:          configViper.GetString("http.address"),
		LogLevel:             configViper.GetString("log.level"),
		GoogleClientID:       configViper.GetString("google.client_id"),
		GoogleClientSecret:   configViper.GetString("google.client_secret"),
		GoogleRedirectURI:    configViper.GetString("google.redirect_uri"),
		SessionSigningSecret: configViper.GetString("session.signing_secret"),
		TokenTTL:             time.Duration(configViper.GetInt("token.ttl_minutes")) * time.Minute,
		MongoURI:             configViper.GetString("mongo.uri"),
		MongoDatabase:        configViper.GetString("mongo.database"),
		FrontendRedirectURL:  configViper.GetString("frontend.redirect_url"),
		GeocodingAPIKey:      configViper.GetString("geocoding.api_key"),
		CloudinaryCloudName:  configViper.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:     configViper.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:  configViper.GetString("cloudinary.api_secret"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"google.client_id", c.GoogleClientID},
		{"google.client_secret", c.GoogleClientSecret},
		{"google.redirect_uri", c.GoogleRedirectURI},
		{"session.signing_secret", c.SessionSigningSecret},
		{"mongo.uri", c.MongoURI},
		{"mongo.database", c.MongoDatabase},
		{"frontend.redirect_url", c.FrontendRedirectURL},
		{"geocoding.api_key", c.GeocodingAPIKey},
		{"cloudinary.cloud_name", c.CloudinaryCloudName},
		{"cloudinary.api_key", c.CloudinaryAPIKey},
		{"cloudinary.api_secret", c.CloudinaryAPISecret},
	}
	for _, entry := range required {
		if strings.TrimSpace(entry.value) == "" {
			return fmt.Errorf("%s is required", entry.key)
		}
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token.ttl_minutes must be positive")
	}
	return nil
}
