package images

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.cloudinary.com"

var (
	// ErrUpstream indicates the image host was unreachable or rejected the upload.
	ErrUpstream = errors.New("images: upstream upload failed")

	errMissingCredentials = errors.New("images: cloud name, api key and api secret required")
)

// ClientConfig configures the Cloudinary upload client. BaseURL,
// HTTPClient and Clock are overridable for tests.
type ClientConfig struct {
	CloudName  string
	APIKey     string
	APISecret  string
	BaseURL    string
	HTTPClient *http.Client
	Clock      func() time.Time
}

// Client uploads images to Cloudinary using signed upload requests.
type Client struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
	clock      func() time.Time
}

// NewClient constructs an upload client with validated configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.CloudName) == "" ||
		strings.TrimSpace(cfg.APIKey) == "" ||
		strings.TrimSpace(cfg.APISecret) == "" {
		return nil, errMissingCredentials
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Client{
		cloudName:  cfg.CloudName,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		baseURL:    baseURL,
		httpClient: httpClient,
		clock:      clock,
	}, nil
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload pushes the image to the host and returns its hosted HTTPS URL.
func (c *Client) Upload(ctx context.Context, data io.Reader, filename string) (string, error) {
	if filename == "" {
		filename = "upload"
	}
	timestamp := strconv.FormatInt(c.clock().UTC().Unix(), 10)

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)

	filePart, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if _, err := io.Copy(filePart, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	fields := map[string]string{
		"api_key":   c.apiKey,
		"timestamp": timestamp,
		"signature": c.signature(timestamp),
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return "", fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	uploadURL := fmt.Sprintf("%s/v1_1/%s/image/upload", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	response, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUpstream, response.StatusCode)
	}

	var decoded uploadResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if decoded.SecureURL == "" {
		return "", fmt.Errorf("%w: response missing secure_url", ErrUpstream)
	}
	return decoded.SecureURL, nil
}

// signature computes the SHA-1 upload signature over the signed parameters.
func (c *Client) signature(timestamp string) string {
	sum := sha1.Sum([]byte("timestamp=" + timestamp + c.apiSecret))
	return hex.EncodeToString(sum[:])
}
