package markers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	errMissingMarkerStore   = errors.New("marker store is required")
	errMissingVisitStore    = errors.New("visit store is required")
	errMissingLoginLogStore = errors.New("login log store is required")
	errMissingGeocoder      = errors.New("geocoder is required")
	errMissingUploader      = errors.New("image uploader is required")
	errMissingIDProvider    = errors.New("id provider is required")
	errMissingOwner         = errors.New("owner email is required")
	errMissingLabel         = errors.New("place label is required")
	noOpLogger              = zap.NewNop()
)

// ServiceError tags failures with the operation and reason that produced them.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew   = "markers.service.new"
	opCreate       = "markers.create"
	opListByOwner  = "markers.list_by_owner"
	opViewUser     = "markers.view_user"
	opListVisits   = "markers.list_visits"
	opRecordLogin  = "markers.record_login"
	opUploadImage  = "markers.upload_image"
	opGeocodeLabel = "markers.geocode_label"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// MarkerStore persists marker documents keyed by owner email.
type MarkerStore interface {
	Insert(ctx context.Context, marker Marker) error
	ListByOwner(ctx context.Context, ownerEmail string) ([]Marker, error)
}

// VisitStore appends and reads cross-user visit records.
type VisitStore interface {
	Insert(ctx context.Context, visit VisitEntry) error
	ListByVisited(ctx context.Context, visitedEmail string) ([]VisitEntry, error)
}

// LoginLogStore appends login audit records.
type LoginLogStore interface {
	Insert(ctx context.Context, entry LoginLogEntry) error
}

// Geocoder resolves a free-text address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (float64, float64, error)
}

// ImageUploader pushes image bytes to the hosting service and returns the
// hosted URL.
type ImageUploader interface {
	Upload(ctx context.Context, data io.Reader, filename string) (string, error)
}

// IDProvider issues marker identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// ImageData carries an optional uploaded image through marker creation.
type ImageData struct {
	Reader   io.Reader
	Filename string
}

// ServiceConfig describes the collaborators the marker service depends on.
type ServiceConfig struct {
	Markers    MarkerStore
	Visits     VisitStore
	LoginLog   LoginLogStore
	Geocoder   Geocoder
	Uploader   ImageUploader
	IDProvider IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Service implements marker CRUD, visit logging and the login audit append.
type Service struct {
	markers    MarkerStore
	visits     VisitStore
	loginLog   LoginLogStore
	geocoder   Geocoder
	uploader   ImageUploader
	idProvider IDProvider
	clock      func() time.Time
	logger     *zap.Logger
}

// NewService constructs the service after validating its dependencies.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Markers == nil {
		return nil, newServiceError(opServiceNew, "missing_marker_store", errMissingMarkerStore)
	}
	if cfg.Visits == nil {
		return nil, newServiceError(opServiceNew, "missing_visit_store", errMissingVisitStore)
	}
	if cfg.LoginLog == nil {
		return nil, newServiceError(opServiceNew, "missing_login_log_store", errMissingLoginLogStore)
	}
	if cfg.Geocoder == nil {
		return nil, newServiceError(opServiceNew, "missing_geocoder", errMissingGeocoder)
	}
	if cfg.Uploader == nil {
		return nil, newServiceError(opServiceNew, "missing_uploader", errMissingUploader)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		markers:    cfg.Markers,
		visits:     cfg.Visits,
		loginLog:   cfg.LoginLog,
		geocoder:   cfg.Geocoder,
		uploader:   cfg.Uploader,
		idProvider: cfg.IDProvider,
		clock:      clock,
		logger:     logger,
	}, nil
}

// Create geocodes the label, uploads the optional image and inserts a new
// marker owned by the caller. Geocoding and upload failures surface to the
// caller unwrapped so the boundary can branch on their kind.
func (s *Service) Create(ctx context.Context, ownerEmail, label string, image *ImageData) (Marker, error) {
	if strings.TrimSpace(ownerEmail) == "" {
		return Marker{}, newServiceError(opCreate, "missing_owner", errMissingOwner)
	}
	if strings.TrimSpace(label) == "" {
		return Marker{}, newServiceError(opCreate, "missing_label", errMissingLabel)
	}

	latitude, longitude, err := s.geocoder.Geocode(ctx, label)
	if err != nil {
		return Marker{}, newServiceError(opGeocodeLabel, "geocode_failed", err)
	}

	imageURL := ""
	if image != nil && image.Reader != nil {
		imageURL, err = s.uploader.Upload(ctx, image.Reader, image.Filename)
		if err != nil {
			return Marker{}, newServiceError(opUploadImage, "upload_failed", err)
		}
	}

	markerID, err := s.idProvider.NewID()
	if err != nil {
		return Marker{}, newServiceError(opCreate, "id_generation_failed", err)
	}

	marker := Marker{
		ID:         markerID,
		Label:      label,
		Latitude:   latitude,
		Longitude:  longitude,
		OwnerEmail: ownerEmail,
		ImageURL:   imageURL,
	}
	if err := s.markers.Insert(ctx, marker); err != nil {
		return Marker{}, newServiceError(opCreate, "insert_failed", err)
	}

	return marker, nil
}

// ListByOwner returns the markers owned by the given email.
func (s *Service) ListByOwner(ctx context.Context, ownerEmail string) ([]Marker, error) {
	if strings.TrimSpace(ownerEmail) == "" {
		return nil, newServiceError(opListByOwner, "missing_owner", errMissingOwner)
	}
	found, err := s.markers.ListByOwner(ctx, ownerEmail)
	if err != nil {
		return nil, newServiceError(opListByOwner, "query_failed", err)
	}
	if found == nil {
		found = []Marker{}
	}
	return found, nil
}

// ViewUser returns another user's markers and appends exactly one visit
// record as a side effect. A failed visit append is logged, not surfaced:
// the read already succeeded from the visitor's point of view.
func (s *Service) ViewUser(ctx context.Context, visitorEmail, visitedEmail string) ([]Marker, error) {
	found, err := s.ListByOwner(ctx, visitedEmail)
	if err != nil {
		return nil, err
	}

	visit := VisitEntry{
		Timestamp:    s.clock().UTC(),
		VisitedEmail: visitedEmail,
		VisitorEmail: visitorEmail,
	}
	if err := s.visits.Insert(ctx, visit); err != nil {
		s.logger.Warn("visit append failed",
			zap.String("visited", visitedEmail),
			zap.Error(err))
	}

	return found, nil
}

// ListVisits returns the visits recorded against the given email, newest first.
func (s *Service) ListVisits(ctx context.Context, visitedEmail string) ([]VisitEntry, error) {
	if strings.TrimSpace(visitedEmail) == "" {
		return nil, newServiceError(opListVisits, "missing_owner", errMissingOwner)
	}
	found, err := s.visits.ListByVisited(ctx, visitedEmail)
	if err != nil {
		return nil, newServiceError(opListVisits, "query_failed", err)
	}
	if found == nil {
		found = []VisitEntry{}
	}
	return found, nil
}

// RecordLogin appends the login audit entry minted alongside a new session token.
func (s *Service) RecordLogin(ctx context.Context, email, token string, expiresAt time.Time) error {
	if strings.TrimSpace(email) == "" {
		return newServiceError(opRecordLogin, "missing_owner", errMissingOwner)
	}
	entry := LoginLogEntry{
		Timestamp: s.clock().UTC(),
		Email:     email,
		ExpiresAt: expiresAt,
		Token:     token,
	}
	if err := s.loginLog.Insert(ctx, entry); err != nil {
		return newServiceError(opRecordLogin, "insert_failed", err)
	}
	return nil
}
