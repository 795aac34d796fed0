// services/airport_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"aviation-fuel-game/models"
	"aviation-fuel-game/store"
	"aviation-fuel-game/utils"
)

// NearbyWindowDeg is the half-width of the lat/lon pre-filter for nearby airports.
const NearbyWindowDeg = 5.0

type AirportService struct {
	Store store.Store
}

func NewAirportService(st store.Store) *AirportService {
	return &AirportService{Store: st}
}

// DefaultAirport is the fallback used when ident cannot be resolved.
func DefaultAirport(ident string) models.Airport {
	return models.Airport{
		Ident:    ident,
		Name:     ident,
		Degraded: true,
	}
}

// Load resolves ident. Lookup failures never abort the caller: a
// default-valued airport flagged Degraded is returned instead.
func (s *AirportService) Load(ctx context.Context, ident string) models.Airport {
	ident = NormalizeIdent(ident)
	if ident == "" {
		return DefaultAirport(ident)
	}

	airport, err := s.Store.GetAirport(ctx, ident)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("⚠️  [AIRPORT] %s not in directory, using defaults", ident)
		} else {
			log.Printf("⚠️  [AIRPORT] Could not fetch %s: %v", ident, err)
		}
		return DefaultAirport(ident)
	}
	return sanitizeAirport(*airport)
}

// FromRow builds an airport from already-fetched data without another lookup.
func FromRow(row models.Airport) models.Airport {
	return sanitizeAirport(row)
}

func sanitizeAirport(a models.Airport) models.Airport {
	if a.Name == "" {
		a.Name = a.Ident
	}
	if !utils.ValidCoordinates(a.Latitude, a.Longitude) {
		log.Printf("⚠️  [AIRPORT] %s has invalid coordinates (%v, %v), using defaults", a.Ident, a.Latitude, a.Longitude)
		a.Latitude, a.Longitude = 0, 0
		a.Degraded = true
	}
	return a
}

// Distance is the great-circle distance in whole kilometers. It returns 0
// when either airport is missing or unresolved, which callers read as unknown.
func Distance(a, b *models.Airport) int64 {
	if a == nil || b == nil || a.Degraded || b.Degraded {
		return 0
	}
	return int64(utils.HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude))
}

// FindNearby lists large and medium airports reachable from origin with
// maxRange, each annotated with its distance. Order follows the store.
func (s *AirportService) FindNearby(ctx context.Context, origin models.Airport, maxRange int64) ([]models.NearbyAirport, error) {
	nearby := []models.NearbyAirport{}
	if maxRange <= 0 {
		return nearby, nil
	}

	box := store.BoxAround(origin.Latitude, origin.Longitude, NearbyWindowDeg)
	rows, err := s.Store.AirportsInBox(ctx, box, models.PlayableAirportTypes, origin.Ident)
	if err != nil {
		return nearby, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	for _, row := range rows {
		candidate := FromRow(row)
		if candidate.Degraded {
			continue
		}
		dist := Distance(&origin, &candidate)
		if dist > 0 && dist <= maxRange {
			nearby = append(nearby, models.NearbyAirport{Airport: candidate, Distance: dist})
		}
	}
	return nearby, nil
}

// NormalizeIdent upper-cases and trims an airport code.
func NormalizeIdent(ident string) string {
	return strings.ToUpper(strings.TrimSpace(ident))
}
