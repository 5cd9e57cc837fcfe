package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientGeocodeReturnsFirstResult(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geocode/v1/json" {
			http.NotFound(w, r)
			return
		}
		query := r.URL.Query()
		if got := query.Get("q"); got != "Eiffel Tower" {
			t.Errorf("unexpected query %q", got)
		}
		if got := query.Get("key"); got != "test-key" {
			t.Errorf("unexpected api key %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"geometry":{"lat":48.8584,"lng":2.2945}},{"geometry":{"lat":1,"lng":1}}]}`))
	}))
	defer apiServer.Close()

	client, err := NewClient(ClientConfig{
		APIKey:     "test-key",
		BaseURL:    apiServer.URL,
		HTTPClient: apiServer.Client(),
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	lat, lon, err := client.Geocode(context.Background(), "Eiffel Tower")
	if err != nil {
		t.Fatalf("expected geocoding to succeed: %v", err)
	}
	if lat != 48.8584 || lon != 2.2945 {
		t.Fatalf("unexpected coordinates %f, %f", lat, lon)
	}
}

func TestClientGeocodeZeroResultsIsAddressNotFound(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer apiServer.Close()

	client, err := NewClient(ClientConfig{
		APIKey:     "test-key",
		BaseURL:    apiServer.URL,
		HTTPClient: apiServer.Client(),
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	_, _, err = client.Geocode(context.Background(), "nowhere at all")
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got %v", err)
	}
}

func TestClientGeocodeNon200IsUpstreamFailure(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer apiServer.Close()

	client, err := NewClient(ClientConfig{
		APIKey:     "test-key",
		BaseURL:    apiServer.URL,
		HTTPClient: apiServer.Client(),
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	_, _, err = client.Geocode(context.Background(), "Eiffel Tower")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatalf("expected constructor error for missing api key")
	}
}
