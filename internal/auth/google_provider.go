package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var (
	// ErrTokenExchange indicates the authorization-code exchange with the
	// provider's token endpoint did not succeed.
	ErrTokenExchange = errors.New("auth: token exchange failed")
	// ErrMissingIDToken indicates the token endpoint responded without an
	// id_token field.
	ErrMissingIDToken = errors.New("auth: token response missing id_token")
	// ErrMissingAuthCode indicates a callback arrived without a code.
	ErrMissingAuthCode = errors.New("auth: authorization code required")

	ErrInvalidProviderConfig = errors.New("auth: invalid google provider config")
)

// GoogleProviderConfig bundles configuration for the OAuth code flow with
// Google. Endpoint and HTTPClient are overridable for tests.
type GoogleProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Endpoint     oauth2.Endpoint
	HTTPClient   *http.Client
}

// GoogleProvider drives the redirect/callback half of the login flow:
// it builds the provider authorization URL and exchanges authorization
// codes for Google ID tokens.
type GoogleProvider struct {
	oauthConfig oauth2.Config
	httpClient  *http.Client
}

// NewGoogleProvider constructs a provider client with validated configuration.
func NewGoogleProvider(cfg GoogleProviderConfig) (*GoogleProvider, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("%w: client id required", ErrInvalidProviderConfig)
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("%w: client secret required", ErrInvalidProviderConfig)
	}
	if strings.TrimSpace(cfg.RedirectURI) == "" {
		return nil, fmt.Errorf("%w: redirect uri required", ErrInvalidProviderConfig)
	}

	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}

	return &GoogleProvider{
		oauthConfig: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"openid", "email"},
			Endpoint:     endpoint,
		},
		httpClient: cfg.HTTPClient,
	}, nil
}

// AuthCodeURL returns the provider authorization URL the client is
// redirected to. Pure construction, no side effects.
func (p *GoogleProvider) AuthCodeURL() string {
	return p.oauthConfig.AuthCodeURL(
		"",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// ExchangeCode trades an authorization code for the Google ID token
// attesting the user's identity.
func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", ErrMissingAuthCode
	}

	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}

	idToken, ok := token.Extra("id_token").(string)
	if !ok || strings.TrimSpace(idToken) == "" {
		return "", ErrMissingIDToken
	}
	return idToken, nil
}
