package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/reporter/backend/internal/adapters/memory"
	"github.com/civicpulse/reporter/backend/internal/adapters/providers/geolocation"
	"github.com/civicpulse/reporter/backend/internal/application/services"
	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

// stuckLocator ignores its context, like a sensor that never answers
type stuckLocator struct {
	release chan struct{}
}

func (l stuckLocator) CurrentPosition(ctx context.Context) (entities.Coordinates, error) {
	<-l.release
	return entities.Coordinates{}, errors.New("released")
}

type stubGeocoder struct {
	address *providers.Address
	err     error
}

func (g stubGeocoder) ReverseGeocode(ctx context.Context, coords entities.Coordinates) (*providers.Address, error) {
	return g.address, g.err
}

func TestIntakeService_Begin(t *testing.T) {
	intake := services.NewIntakeService(services.NewIssueService(memory.NewIssueStore(), nil, nil), nil)

	t.Run("anonymous caller is sent to login", func(t *testing.T) {
		_, err := intake.Begin(nil)

		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeAuthentication, appErr.Type)
		assert.Equal(t, "/login", appErr.RedirectTo)
	})

	t.Run("draft belongs to session user", func(t *testing.T) {
		draft, err := intake.Begin(activeSession("u1", entities.RoleCitizen))

		require.NoError(t, err)
		assert.Equal(t, "u1", draft.ReporterID)
		assert.Equal(t, "session-u1", draft.SessionID)
		assert.False(t, draft.Ready())
	})
}

func TestDraft_LocateDevice(t *testing.T) {
	intake := services.NewIntakeService(services.NewIssueService(memory.NewIssueStore(), nil, nil), nil)
	intake.SetLocateTimeout(20 * time.Millisecond)

	newDraft := func(t *testing.T) *services.Draft {
		draft, err := intake.Begin(activeSession("u1", entities.RoleCitizen))
		require.NoError(t, err)
		return draft
	}

	t.Run("uses device fix", func(t *testing.T) {
		draft := newDraft(t)
		fix := &entities.Coordinates{Latitude: 42.66, Longitude: 21.16}

		require.NoError(t, draft.LocateDevice(context.Background(), geolocation.NewReportedLocator(fix, "")))

		assert.Equal(t, *fix, *draft.Location)
		assert.Equal(t, services.LocationSourceDevice, draft.LocationSource)
	})

	errorCases := []struct {
		outcome string
		want    apperrors.ErrorType
	}{
		{"permission_denied", apperrors.ErrorTypeLocationPermissionDenied},
		{"unavailable", apperrors.ErrorTypeLocationUnavailable},
		{"timeout", apperrors.ErrorTypeLocationTimeout},
	}
	for _, tc := range errorCases {
		t.Run(tc.outcome, func(t *testing.T) {
			draft := newDraft(t)
			require.NoError(t, draft.PinFromMap(1, 2))

			err := draft.LocateDevice(context.Background(), geolocation.NewReportedLocator(nil, tc.outcome))

			assert.True(t, apperrors.IsType(err, tc.want), "got %v", err)
			assert.Equal(t, services.LocationSourceMap, draft.LocationSource)
		})
	}

	t.Run("unresponsive sensor times out", func(t *testing.T) {
		draft := newDraft(t)
		locator := stuckLocator{release: make(chan struct{})}
		defer close(locator.release)

		err := draft.LocateDevice(context.Background(), locator)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeLocationTimeout))
		assert.Nil(t, draft.Location)
	})
}

func TestIntakeService_Submit(t *testing.T) {
	session := activeSession("u1", entities.RoleCitizen)

	t.Run("creates issue with geocoded address", func(t *testing.T) {
		geocoder := stubGeocoder{address: &providers.Address{Street: "Rruga B", Neighborhood: "Dardania"}}
		intake := services.NewIntakeService(services.NewIssueService(memory.NewIssueStore(), nil, nil), geocoder)
		draft, err := intake.Begin(session)
		require.NoError(t, err)
		require.NoError(t, draft.PinFromMap(42.65, 21.15))
		draft.Describe(entities.CategoryEnvironment, "Illegal dumping", "issues/2026/01/01/a.jpg")
		require.True(t, draft.Ready())

		issue, err := intake.Submit(context.Background(), draft)

		require.NoError(t, err)
		assert.Equal(t, "Rruga B, Dardania", issue.Address)
		assert.Equal(t, "u1", issue.ReporterID)
		assert.Equal(t, "issues/2026/01/01/a.jpg", issue.ImageRef)
		assert.Equal(t, entities.StatusOpen, issue.Status)
	})

	t.Run("geocoding failure leaves address empty", func(t *testing.T) {
		intake := services.NewIntakeService(services.NewIssueService(memory.NewIssueStore(), nil, nil), stubGeocoder{err: errors.New("offline")})
		draft, err := intake.Begin(session)
		require.NoError(t, err)
		require.NoError(t, draft.PinFromMap(1, 1))
		draft.Describe(entities.CategoryTraffic, "Broken light", "")

		issue, err := intake.Submit(context.Background(), draft)

		require.NoError(t, err)
		assert.Empty(t, issue.Address)
	})

	incomplete := []struct {
		name  string
		build func(d *services.Draft)
	}{
		{"missing location", func(d *services.Draft) { d.Describe(entities.CategoryTraffic, "x", "") }},
		{"missing category", func(d *services.Draft) {
			_ = d.PinFromMap(1, 1)
			d.Describe("", "x", "")
		}},
		{"missing description", func(d *services.Draft) {
			_ = d.PinFromMap(1, 1)
			d.Describe(entities.CategoryTraffic, "  ", "")
		}},
		{"unknown category", func(d *services.Draft) {
			_ = d.PinFromMap(1, 1)
			d.Describe("weather", "x", "")
		}},
	}
	for _, tt := range incomplete {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockIssueRepository)
			intake := services.NewIntakeService(services.NewIssueService(repo, nil, nil), nil)
			draft, err := intake.Begin(session)
			require.NoError(t, err)
			tt.build(draft)

			_, err = intake.Submit(context.Background(), draft)

			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}

	t.Run("out of range map pin", func(t *testing.T) {
		draft := &services.Draft{}
		err := draft.PinFromMap(100, 0)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		assert.Nil(t, draft.Location)
	})
}
