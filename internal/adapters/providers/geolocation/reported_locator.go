package geolocation

import (
	"context"
	"errors"
	"strings"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

// Outcome codes a client sends after asking its device for a position
const (
	OutcomePermissionDenied = "permission_denied"
	OutcomeUnavailable      = "unavailable"
	OutcomeTimeout          = "timeout"
)

// ReportedLocator is a DeviceLocator that replays what the client's
// geolocation sensor returned: either a fix or a failure code
type ReportedLocator struct {
	fix     *entities.Coordinates
	outcome string
}

var _ providers.DeviceLocator = (*ReportedLocator)(nil)

// NewReportedLocator builds a locator from a client report. A non-empty
// outcome takes precedence over the fix.
func NewReportedLocator(fix *entities.Coordinates, outcome string) *ReportedLocator {
	return &ReportedLocator{fix: fix, outcome: strings.ToLower(strings.TrimSpace(outcome))}
}

// CurrentPosition returns the reported fix or the matching location error
func (l *ReportedLocator) CurrentPosition(ctx context.Context) (entities.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return entities.Coordinates{}, apperrors.NewLocationTimeoutError("location request timed out")
		}
		return entities.Coordinates{}, err
	}

	switch l.outcome {
	case "":
	case OutcomePermissionDenied:
		return entities.Coordinates{}, apperrors.NewLocationPermissionDeniedError("location permission denied")
	case OutcomeTimeout:
		return entities.Coordinates{}, apperrors.NewLocationTimeoutError("location request timed out")
	default:
		return entities.Coordinates{}, apperrors.NewLocationUnavailableError("location information is unavailable")
	}

	if l.fix == nil {
		return entities.Coordinates{}, apperrors.NewLocationUnavailableError("location information is unavailable")
	}
	return *l.fix, nil
}
