package entities

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinates_Valid(t *testing.T) {
	tests := []struct {
		name string
		c    Coordinates
		want bool
	}{
		{"prishtina", Coordinates{42.6629, 21.1655}, true},
		{"poles and antimeridian", Coordinates{-90, 180}, true},
		{"latitude too high", Coordinates{90.0001, 0}, false},
		{"longitude too low", Coordinates{0, -180.5}, false},
		{"nan", Coordinates{math.NaN(), 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Valid())
		})
	}
}

func TestCoordinates_String(t *testing.T) {
	assert.Equal(t, "42.662900, 21.165500", Coordinates{42.6629, 21.1655}.String())
}

func TestDistanceKm(t *testing.T) {
	prishtina := Coordinates{42.6629, 21.1655}
	prizren := Coordinates{42.2139, 20.7397}

	assert.InDelta(t, 61.0, DistanceKm(prishtina, prizren), 2.0)
	assert.Zero(t, DistanceKm(prishtina, prishtina))
}

func TestUser_AwardExperience(t *testing.T) {
	u := &User{}
	u.AwardExperience(60)
	u.AwardExperience(60)
	u.AwardExperience(-10)

	assert.Equal(t, 120, u.Experience)
	assert.Equal(t, 1, u.Level)
}

func TestCategoryAndStatusValidation(t *testing.T) {
	assert.True(t, CategoryHeritage.Valid())
	assert.False(t, Category("noise").Valid())
	assert.True(t, StatusInProgress.Valid())
	assert.False(t, Status(StatusFilterAll).Valid())
}
