package config

import (
	"strings"
	"testing"
	"time"
)

func fullyConfiguredViper() map[string]string {
	return map[string]string{
		"google.client_id":       "client-id",
		"google.client_secret":   "client-secret",
		"google.redirect_uri":    "https://api.example.com/auth/callback",
		"session.signing_secret": "signing-secret",
		"mongo.uri":              "mongodb://localhost:27017",
		"frontend.redirect_url":  "https://app.example.com/map",
		"geocoding.api_key":      "geo-key",
		"cloudinary.cloud_name":  "cloud",
		"cloudinary.api_key":     "cloud-key",
		"cloudinary.api_secret":  "cloud-secret",
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	configViper := NewViper()
	for key, value := range fullyConfiguredViper() {
		configViper.Set(key, value)
	}

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("expected load to succeed: %v", err)
	}

	if cfg.HTTPAddress != "0.0.0.0:8080" {
		t.Fatalf("unexpected http address %q", cfg.HTTPAddress)
	}
	if cfg.MongoDatabase != "mimapadb" {
		t.Fatalf("unexpected mongo database %q", cfg.MongoDatabase)
	}
	if cfg.TokenTTL != time.Hour {
		t.Fatalf("unexpected token ttl %v", cfg.TokenTTL)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level %q", cfg.LogLevel)
	}
}

func TestLoadRejectsMissingRequiredKeys(t *testing.T) {
	for missing := range fullyConfiguredViper() {
		configViper := NewViper()
		for key, value := range fullyConfiguredViper() {
			if key == missing {
				continue
			}
			configViper.Set(key, value)
		}

		_, err := Load(configViper)
		if err == nil {
			t.Fatalf("expected load to fail without %s", missing)
		}
		if !strings.Contains(err.Error(), missing) {
			t.Fatalf("error %q does not name missing key %s", err, missing)
		}
	}
}

func TestLoadRejectsNonPositiveTokenTTL(t *testing.T) {
	configViper := NewViper()
	for key, value := range fullyConfiguredViper() {
		configViper.Set(key, value)
	}
	configViper.Set("token.ttl_minutes", 0)

	if _, err := Load(configViper); err == nil {
		t.Fatalf("expected load to fail for zero ttl")
	}
}
