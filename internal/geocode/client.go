package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultBaseURL = "https://api.opencagedata.com"

var (
	// ErrAddressNotFound indicates the geocoder answered but had no match.
	ErrAddressNotFound = errors.New("geocode: address not found")
	// ErrUpstream indicates the geocoding service was unreachable or errored.
	ErrUpstream = errors.New("geocode: upstream request failed")

	errMissingAPIKey = errors.New("geocode: api key required")
)

// ClientConfig configures the forward-geocoding client. BaseURL and
// HTTPClient are overridable for tests.
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client resolves free-text addresses through the OpenCage geocoding API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a geocoding client with validated configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errMissingAPIKey
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves the address to coordinates. The first result wins when
// the geocoder returns several.
func (c *Client) Geocode(ctx context.Context, address string) (float64, float64, error) {
	query := url.Values{
		"q":   {address},
		"key": {c.apiKey},
	}
	requestURL := c.baseURL + "/geocode/v1/json?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("%w: status %d", ErrUpstream, response.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if len(decoded.Results) == 0 {
		return 0, 0, ErrAddressNotFound
	}

	geometry := decoded.Results[0].Geometry
	return geometry.Lat, geometry.Lng, nil
}
