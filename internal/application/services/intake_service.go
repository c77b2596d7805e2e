package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

const (
	// LocationTimeout bounds a device geolocation request
	LocationTimeout = 10 * time.Second

	// LoginRoute is where unauthenticated reporters are sent
	LoginRoute = "/login"

	geocodeTimeout = 5 * time.Second
)

// Location sources of a draft
const (
	LocationSourceMap    = "map"
	LocationSourceDevice = "device"
)

// Draft is a report under construction. It is owned by one reporter and is
// not safe for concurrent use.
type Draft struct {
	ReporterID     string
	SessionID      string
	Location       *entities.Coordinates
	LocationSource string
	Category       entities.Category
	Description    string
	ImageRef       string

	locateTimeout time.Duration
}

// PinFromMap sets the location from a map click
func (d *Draft) PinFromMap(lat, lng float64) error {
	coords := entities.Coordinates{Latitude: lat, Longitude: lng}
	if !coords.Valid() {
		return apperrors.NewValidationError("coordinate out of range")
	}
	d.Location = &coords
	d.LocationSource = LocationSourceMap
	return nil
}

// LocateDevice asks locator for the current position. A locator that does not
// answer in time yields a LocationTimeout error. On failure the previous
// location is kept.
func (d *Draft) LocateDevice(ctx context.Context, locator providers.DeviceLocator) error {
	if locator == nil {
		return apperrors.NewLocationUnavailableError("geolocation is not supported")
	}

	timeout := d.locateTimeout
	if timeout <= 0 {
		timeout = LocationTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type fix struct {
		coords entities.Coordinates
		err    error
	}
	result := make(chan fix, 1)
	go func() {
		coords, err := locator.CurrentPosition(ctx)
		result <- fix{coords: coords, err: err}
	}()

	var got fix
	select {
	case got = <-result:
	case <-ctx.Done():
		got.err = ctx.Err()
	}

	if err := locationError(got.err); err != nil {
		return err
	}
	if !got.coords.Valid() {
		return apperrors.NewLocationUnavailableError("device reported an invalid position")
	}

	coords := got.coords
	d.Location = &coords
	d.LocationSource = LocationSourceDevice
	return nil
}

func locationError(err error) error {
	switch {
	case err == nil:
		return nil
	case apperrors.IsLocationError(err):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewLocationTimeoutError("location request timed out")
	case errors.Is(err, context.Canceled):
		return err
	default:
		return &apperrors.AppError{
			Type:    apperrors.ErrorTypeLocationUnavailable,
			Message: "location information is unavailable",
			Err:     err,
		}
	}
}

// Describe sets what the report is about
func (d *Draft) Describe(category entities.Category, description, imageRef string) {
	d.Category = category
	d.Description = description
	d.ImageRef = imageRef
}

// Ready reports whether the draft has location, category and description
func (d *Draft) Ready() bool {
	return d != nil && d.Location != nil && d.Category != "" && strings.TrimSpace(d.Description) != ""
}

// IntakeService guides a signed-in reporter from draft to stored issue
type IntakeService struct {
	issues        *IssueService
	geocoder      providers.ReverseGeocoder
	locateTimeout time.Duration
}

// NewIntakeService creates a new intake service. geocoder may be nil.
func NewIntakeService(issues *IssueService, geocoder providers.ReverseGeocoder) *IntakeService {
	return &IntakeService{
		issues:        issues,
		geocoder:      geocoder,
		locateTimeout: LocationTimeout,
	}
}

// SetLocateTimeout overrides the device geolocation timeout
func (s *IntakeService) SetLocateTimeout(d time.Duration) {
	if d > 0 {
		s.locateTimeout = d
	}
}

// Begin opens a draft for the session user. Anonymous callers get an
// authentication error that names the login route.
func (s *IntakeService) Begin(session *entities.Session) (*Draft, error) {
	if !session.Active(time.Now()) {
		return nil, apperrors.NewLoginRequiredError(LoginRoute)
	}
	return &Draft{
		ReporterID:    session.UserID(),
		SessionID:     session.ID,
		locateTimeout: s.locateTimeout,
	}, nil
}

// Submit validates the draft and creates the issue
func (s *IntakeService) Submit(ctx context.Context, draft *Draft) (*entities.Issue, error) {
	if draft == nil {
		return nil, apperrors.NewValidationError("report is empty")
	}
	if draft.Location == nil {
		return nil, apperrors.NewValidationError("location is required")
	}
	if draft.Category == "" {
		return nil, apperrors.NewValidationError("category is required")
	}
	if !draft.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown category")
	}
	if strings.TrimSpace(draft.Description) == "" {
		return nil, apperrors.NewValidationError("description is required")
	}
	if !draft.Location.Valid() {
		return nil, apperrors.NewValidationError("coordinate out of range")
	}

	return s.issues.Create(ctx, CreateIssueInput{
		Category:    draft.Category,
		Description: draft.Description,
		Latitude:    draft.Location.Latitude,
		Longitude:   draft.Location.Longitude,
		ReporterID:  draft.ReporterID,
		ImageRef:    draft.ImageRef,
		Address:     s.addressFor(ctx, *draft.Location),
		SessionID:   draft.SessionID,
	})
}

// addressFor returns a street label for coords, or "" when none is known
func (s *IntakeService) addressFor(ctx context.Context, coords entities.Coordinates) string {
	if s.geocoder == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, geocodeTimeout)
	defer cancel()

	address, err := s.geocoder.ReverseGeocode(ctx, coords)
	if err != nil {
		log.Debug().Err(err).Str("coordinates", coords.String()).Msg("reverse geocoding failed")
		return ""
	}
	if label := address.Label(); label != providers.UnknownLocationLabel {
		return label
	}
	return ""
}
