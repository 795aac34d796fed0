package utils

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	t.Run("same point is zero", func(t *testing.T) {
		points := [][2]float64{{0, 0}, {47.4647, 8.5492}, {-33.9461, 151.177}, {89.9, -179.9}}
		for _, p := range points {
			if d := HaversineKm(p[0], p[1], p[0], p[1]); d != 0 {
				t.Errorf("Expected 0 for %v, got %f", p, d)
			}
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		ab := HaversineKm(47.4647, 8.5492, 51.4706, -0.4619)
		ba := HaversineKm(51.4706, -0.4619, 47.4647, 8.5492)
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("Expected symmetric distance, got %f vs %f", ab, ba)
		}
	})

	t.Run("zurich to heathrow", func(t *testing.T) {
		d := HaversineKm(47.4647, 8.5492, 51.4706, -0.4619)
		if d < 770 || d > 800 {
			t.Errorf("Expected roughly 785 km, got %f", d)
		}
	})

	t.Run("one degree of longitude on the equator", func(t *testing.T) {
		d := HaversineKm(0, 0, 0, 1)
		if math.Abs(d-111.19) > 0.1 {
			t.Errorf("Expected ~111.19 km, got %f", d)
		}
	})

	t.Run("across the antimeridian", func(t *testing.T) {
		d := HaversineKm(0, 179.5, 0, -179.5)
		if math.Abs(d-111.19) > 0.1 {
			t.Errorf("Expected ~111.19 km across the dateline, got %f", d)
		}
	})
}

func TestValidCoordinates(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{47.4, 8.5, true},
		{-90, 180, true},
		{91, 0, false},
		{0, -181, false},
		{math.NaN(), 0, false},
		{0, math.Inf(1), false},
	}
	for _, tt := range tests {
		if got := ValidCoordinates(tt.lat, tt.lon); got != tt.want {
			t.Errorf("ValidCoordinates(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
		}
	}
}
