package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mimapa/backend/internal/auth"
	"github.com/mimapa/backend/internal/geocode"
	"github.com/mimapa/backend/internal/images"
	"github.com/mimapa/backend/internal/markers"
	"go.uber.org/zap"
)

const (
	identityContextKey = "mimapa_user_email"

	detailInternalError      = "Internal Server Error"
	detailNotAuthenticated   = "Not authenticated"
	detailInvalidCredentials = "Invalid authentication credentials"
)

var (
	errMissingProvider      = errors.New("google provider dependency required")
	errMissingVerifier      = errors.New("google verifier dependency required")
	errMissingTokenIssuer   = errors.New("token issuer dependency required")
	errMissingMarkerService = errors.New("marker service dependency required")
	errMissingFrontendURL   = errors.New("frontend redirect url required")
)

// GoogleProvider drives the redirect/callback half of the login flow.
type GoogleProvider interface {
	AuthCodeURL() string
	ExchangeCode(ctx context.Context, code string) (string, error)
}

// IdentityVerifier verifies a Google ID token and returns the verified email.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (string, error)
}

// SessionTokens issues and validates this service's own session tokens.
type SessionTokens interface {
	Issue(email string) (string, time.Time, error)
	Validate(token string) (string, error)
}

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	GoogleProvider GoogleProvider
	Verifier       IdentityVerifier
	Tokens         SessionTokens
	MarkerService  *markers.Service
	FrontendURL    string
	Logger         *zap.Logger
}

// NewHTTPHandler wires the gin router: public auth routes, the protected
// marker API behind the bearer-token gate, CORS and panic recovery.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.GoogleProvider == nil {
		return nil, errMissingProvider
	}
	if deps.Verifier == nil {
		return nil, errMissingVerifier
	}
	if deps.Tokens == nil {
		return nil, errMissingTokenIssuer
	}
	if deps.MarkerService == nil {
		return nil, errMissingMarkerService
	}
	if strings.TrimSpace(deps.FrontendURL) == "" {
		return nil, errMissingFrontendURL
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := &httpHandler{
		provider:    deps.GoogleProvider,
		verifier:    deps.Verifier,
		tokens:      deps.Tokens,
		service:     deps.MarkerService,
		frontendURL: deps.FrontendURL,
		logger:      logger,
	}

	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("panic recovered", zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": detailInternalError})
	}))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/auth/login", handler.handleLogin)
	router.GET("/auth/callback", handler.handleCallback)

	protected := router.Group("/markers")
	protected.Use(handler.authorizeRequest)
	protected.GET("/", handler.handleListMarkers)
	protected.POST("/", handler.handleCreateMarker)
	protected.GET("/user/:email", handler.handleViewUserMarkers)
	protected.GET("/visits/", handler.handleListVisits)

	return router, nil
}

type httpHandler struct {
	provider    GoogleProvider
	verifier    IdentityVerifier
	tokens      SessionTokens
	service     *markers.Service
	frontendURL string
	logger      *zap.Logger
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, h.provider.AuthCodeURL())
}

func (h *httpHandler) handleCallback(c *gin.Context) {
	code := c.Query("code")
	if strings.TrimSpace(code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Authorization code not found"})
		return
	}

	idToken, err := h.provider.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn("code exchange failed", zap.Error(err))
		detail := "Failed to fetch token"
		if errors.Is(err, auth.ErrMissingIDToken) {
			detail = "ID token not received"
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": detail})
		return
	}

	email, err := h.verifier.Verify(c.Request.Context(), idToken)
	if err != nil {
		h.logger.Warn("id token verification failed", zap.Error(err))
		detail := "Invalid ID token"
		if errors.Is(err, auth.ErrMissingEmailClaim) {
			detail = "Email not found in token"
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": detail})
		return
	}

	token, expiresAt, err := h.tokens.Issue(email)
	if err != nil {
		h.logger.Error("session token issuance failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternalError})
		return
	}

	if err := h.service.RecordLogin(c.Request.Context(), email, token, expiresAt); err != nil {
		h.logger.Error("login audit append failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternalError})
		return
	}

	c.Redirect(http.StatusFound, h.frontendURL+"?access_token="+token)
}

// authorizeRequest gates every protected endpoint. Pre-flight requests
// pass through without an identity so CORS probes succeed.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	if c.Request.Method == http.MethodOptions {
		c.Next()
		return
	}

	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detailNotAuthenticated})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detailNotAuthenticated})
		return
	}

	email, err := h.tokens.Validate(token)
	if err != nil {
		h.logger.Warn("session token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detailInvalidCredentials})
		return
	}

	c.Set(identityContextKey, email)
	c.Next()
}

func (h *httpHandler) handleListMarkers(c *gin.Context) {
	email := c.GetString(identityContextKey)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": detailNotAuthenticated})
		return
	}

	found, err := h.service.ListByOwner(c.Request.Context(), email)
	if err != nil {
		h.logger.Error("marker listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternalError})
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *httpHandler) handleCreateMarker(c *gin.Context) {
	email := c.GetString(identityContextKey)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": detailNotAuthenticated})
		return
	}

	label := c.PostForm("lugar")
	if strings.TrimSpace(label) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "lugar field is required"})
		return
	}

	var image *markers.ImageData
	fileHeader, err := c.FormFile("image")
	if err == nil && fileHeader != nil {
		file, openErr := fileHeader.Open()
		if openErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "image file could not be read"})
			return
		}
		defer file.Close()
		image = &markers.ImageData{Reader: file, Filename: fileHeader.Filename}
	}

	created, err := h.service.Create(c.Request.Context(), email, label, image)
	if err != nil {
		switch {
		case errors.Is(err, geocode.ErrAddressNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Address not found"})
		case errors.Is(err, geocode.ErrUpstream):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Geocoding API request failed"})
		case errors.Is(err, images.ErrUpstream):
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Image upload failed"})
		default:
			h.logger.Error("marker creation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternalError})
		}
		return
	}

	c.JSON(http.StatusOK, created)
}

func (h *httpHandler) handleViewUserMarkers(c *gin.Context) {
	visitor := c.GetString(identityContextKey)
	if visitor == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": detailNotAuthenticated})
		return
	}
	visited := c.Param("email")

	found, err := h.service.ViewUser(c.Request.Context(), visitor, visited)
	if err != nil {
		h.logger.Error("user marker listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternalError})
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *httpHandler) handleListVisits(c *gin.Context) {
	email := c.GetString(identityContextKey)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": detailNotAuthenticated})
		return
	}

	found, err := h.service.ListVisits(c.Request.Context(), email)
	if err != nil {
		h.logger.Error("visit listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternalError})
		return
	}
	c.JSON(http.StatusOK, found)
}
