package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func newTestProvider(t *testing.T, endpoint oauth2.Endpoint, client *http.Client) *GoogleProvider {
	t.Helper()
	provider, err := NewGoogleProvider(GoogleProviderConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURI:  "https://api.example.com/auth/callback",
		Endpoint:     endpoint,
		HTTPClient:   client,
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return provider
}

func TestAuthCodeURLContainsFixedParameters(t *testing.T) {
	provider := newTestProvider(t, oauth2.Endpoint{}, nil)

	authURL := provider.AuthCodeURL()
	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("failed to parse auth url: %v", err)
	}

	query := parsed.Query()
	expectations := map[string]string{
		"response_type": "code",
		"scope":         "openid email",
		"access_type":   "offline",
		"prompt":        "consent",
		"client_id":     "test-client",
		"redirect_uri":  "https://api.example.com/auth/callback",
	}
	for key, want := range expectations {
		if got := query.Get(key); got != want {
			t.Fatalf("unexpected %s: got %q, want %q", key, got, want)
		}
	}

	if !strings.HasPrefix(authURL, "https://accounts.google.com/") {
		t.Fatalf("expected google authorization endpoint, got %q", authURL)
	}
}

func TestAuthCodeURLIsDeterministic(t *testing.T) {
	provider := newTestProvider(t, oauth2.Endpoint{}, nil)

	if first, second := provider.AuthCodeURL(), provider.AuthCodeURL(); first != second {
		t.Fatalf("expected identical urls, got %q and %q", first, second)
	}
}

func TestExchangeCodeReturnsIDToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		if got := r.PostForm.Get("code"); got != "auth-code-123" {
			t.Errorf("unexpected code %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600,"id_token":"signed-identity-token"}`))
	}))
	defer tokenServer.Close()

	provider := newTestProvider(t, oauth2.Endpoint{
		AuthURL:  tokenServer.URL + "/auth",
		TokenURL: tokenServer.URL + "/token",
	}, tokenServer.Client())

	idToken, err := provider.ExchangeCode(context.Background(), "auth-code-123")
	if err != nil {
		t.Fatalf("expected exchange to succeed: %v", err)
	}
	if idToken != "signed-identity-token" {
		t.Fatalf("unexpected id token %q", idToken)
	}
}

func TestExchangeCodeFailsWithoutIDToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer"}`))
	}))
	defer tokenServer.Close()

	provider := newTestProvider(t, oauth2.Endpoint{
		AuthURL:  tokenServer.URL + "/auth",
		TokenURL: tokenServer.URL + "/token",
	}, tokenServer.Client())

	_, err := provider.ExchangeCode(context.Background(), "auth-code-123")
	if !errors.Is(err, ErrMissingIDToken) {
		t.Fatalf("expected ErrMissingIDToken, got %v", err)
	}
}

func TestExchangeCodeSurfacesUpstreamFailure(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer tokenServer.Close()

	provider := newTestProvider(t, oauth2.Endpoint{
		AuthURL:  tokenServer.URL + "/auth",
		TokenURL: tokenServer.URL + "/token",
	}, tokenServer.Client())

	_, err := provider.ExchangeCode(context.Background(), "auth-code-123")
	if !errors.Is(err, ErrTokenExchange) {
		t.Fatalf("expected ErrTokenExchange, got %v", err)
	}
}

func TestExchangeCodeRequiresCode(t *testing.T) {
	provider := newTestProvider(t, oauth2.Endpoint{}, nil)

	_, err := provider.ExchangeCode(context.Background(), "  ")
	if !errors.Is(err, ErrMissingAuthCode) {
		t.Fatalf("expected ErrMissingAuthCode, got %v", err)
	}
}

func TestNewGoogleProviderValidatesConfig(t *testing.T) {
	cases := []GoogleProviderConfig{
		{ClientSecret: "s", RedirectURI: "r"},
		{ClientID: "c", RedirectURI: "r"},
		{ClientID: "c", ClientSecret: "s"},
	}
	for _, cfg := range cases {
		if _, err := NewGoogleProvider(cfg); !errors.Is(err, ErrInvalidProviderConfig) {
			t.Fatalf("expected ErrInvalidProviderConfig for %#v, got %v", cfg, err)
		}
	}
}
