// Package store is the relational data boundary of the game: sessions, the
// airport directory, the event catalog and per-game event assignments.
package store

import (
	"context"
	"errors"
	"time"

	"aviation-fuel-game/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record was modified concurrently")
)

// Store is implemented by GormStore (Postgres) and MemoryStore.
type Store interface {
	// Transaction runs fn against a store scoped to one unit of work.
	// fn must not start another transaction on the outer store.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	GetGame(ctx context.Context, id string) (*models.Game, error)
	CreateGame(ctx context.Context, game *models.Game) error
	// UpdateGame writes game if its Version is current and bumps Version.
	UpdateGame(ctx context.Context, game *models.Game) error
	ListFinishedGames(ctx context.Context, requiredChemicals, limit int) ([]models.Game, error)
	MarkArchived(ctx context.Context, id string, at time.Time) error

	GetAirport(ctx context.Context, ident string) (*models.Airport, error)
	AirportsInBox(ctx context.Context, box BoundingBox, types []string, excludeIdent string) ([]models.Airport, error)
	SampleRandomAirports(ctx context.Context, types []string, excludeIdent string, limit int) ([]models.Airport, error)
	UpsertAirports(ctx context.Context, airports []models.Airport) error
	CountAirports(ctx context.Context) (int64, error)

	SampleCatalogEvents(ctx context.Context, kind models.EventKind, limit int) ([]models.Event, error)
	UpsertEvents(ctx context.Context, events []models.Event) error

	GetEventAssignment(ctx context.Context, gameID, airport string) (*models.EventAssignment, error)
	InsertEventAssignment(ctx context.Context, a *models.EventAssignment) error
	DeleteEventAssignment(ctx context.Context, gameID, airport string) error
	PendingEventAirports(ctx context.Context, gameID string) ([]models.EventAirport, error)
}

// BoundingBox is an inclusive lat/lon window in decimal degrees.
// Longitudes outside [-180, 180] wrap around the antimeridian.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// BoxAround returns the window of +-deg around (lat, lon).
func BoxAround(lat, lon, deg float64) BoundingBox {
	return BoundingBox{
		MinLat: lat - deg,
		MaxLat: lat + deg,
		MinLon: lon - deg,
		MaxLon: lon + deg,
	}
}

// LonRanges splits the longitude window into at most two ranges inside [-180, 180].
func (b BoundingBox) LonRanges() [][2]float64 {
	switch {
	case b.MaxLon-b.MinLon >= 360:
		return [][2]float64{{-180, 180}}
	case b.MinLon < -180:
		return [][2]float64{{-180, b.MaxLon}, {b.MinLon + 360, 180}}
	case b.MaxLon > 180:
		return [][2]float64{{b.MinLon, 180}, {-180, b.MaxLon - 360}}
	}
	return [][2]float64{{b.MinLon, b.MaxLon}}
}

func (b BoundingBox) Contains(lat, lon float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	for _, r := range b.LonRanges() {
		if lon >= r[0] && lon <= r[1] {
			return true
		}
	}
	return false
}

func containsType(types []string, t string) bool {
	if len(types) == 0 {
		return true
	}
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
