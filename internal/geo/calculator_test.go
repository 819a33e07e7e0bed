package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"crop-health-monitor/pkg/models"
)

func TestDistanceMeters(t *testing.T) {
	c := NewCalculator()
	a := models.Coordinates{Lat: 0, Lon: 0}
	b := models.Coordinates{Lat: 1, Lon: 0}
	// one degree of latitude on a 6371 km sphere
	assert.InDelta(t, 111195, c.DistanceMeters(a, b), 1)
	assert.Zero(t, c.DistanceMeters(a, a))
}

func TestApproxAreaKm2(t *testing.T) {
	c := NewCalculator()
	assert.InDelta(t, 111*111, c.ApproxAreaKm2(1, 1, 0), 1e-9)
	assert.InDelta(t, 111*111*0.5, c.ApproxAreaKm2(1, 1, 60), 1e-6)
	assert.InDelta(t, 111*111, c.ApproxAreaKm2(-1, 1, 0), 1e-9)
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 1.23, RoundTo(1.2345, 2))
	assert.Equal(t, 2.0, RoundTo(1.96, 1))
}
