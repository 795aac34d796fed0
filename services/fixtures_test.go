package services

import (
	"context"
	"math/rand/v2"
	"testing"

	"aviation-fuel-game/config"
	"aviation-fuel-game/models"
	"aviation-fuel-game/store"
)

// Distances from LSZH: LFSB 77, LSZB 100, LSGG 230, EDDM 260.
var testAirports = []models.Airport{
	{Ident: "LSZH", Name: "Zurich Airport", Latitude: 47.4647, Longitude: 8.5492, Country: "CH", Continent: "EU", Type: models.AirportTypeLarge},
	{Ident: "LSGG", Name: "Geneva Cointrin", Latitude: 46.2381, Longitude: 6.1089, Country: "CH", Continent: "EU", Type: models.AirportTypeLarge},
	{Ident: "LFSB", Name: "EuroAirport Basel-Mulhouse", Latitude: 47.5896, Longitude: 7.5299, Country: "FR", Continent: "EU", Type: models.AirportTypeLarge},
	{Ident: "EDDM", Name: "Munich Airport", Latitude: 48.3538, Longitude: 11.7861, Country: "DE", Continent: "EU", Type: models.AirportTypeLarge},
	{Ident: "LSZB", Name: "Bern Airport", Latitude: 46.9141, Longitude: 7.4971, Country: "CH", Continent: "EU", Type: models.AirportTypeMedium},
	{Ident: "LSZG", Name: "Grenchen Airport", Latitude: 47.1816, Longitude: 7.4172, Country: "CH", Continent: "EU", Type: models.AirportTypeSmall},
	{Ident: "EGLL", Name: "London Heathrow", Latitude: 51.4706, Longitude: -0.4619, Country: "GB", Continent: "EU", Type: models.AirportTypeLarge},
	{Ident: "LIRF", Name: "Rome Fiumicino", Latitude: 41.8003, Longitude: 12.2389, Country: "IT", Continent: "EU", Type: models.AirportTypeLarge},
	{Ident: "LOWW", Name: "Vienna International", Latitude: 48.1103, Longitude: 16.5697, Country: "AT", Continent: "EU", Type: models.AirportTypeLarge},
}

// IDs are assigned 1..5 in this order by the memory store.
var testEvents = []models.Event{
	{Name: "Isooctane"},
	{Name: "Toluene"},
	{Name: "Naphthalene"},
	{Name: "Research grant", Money: 500},
	{Name: "Customs fine", Money: -2000},
}

const (
	eventIsooctane   int64 = 1
	eventToluene     int64 = 2
	eventGrant       int64 = 4
	eventCustomsFine int64 = 5
)

func testRules() config.Rules {
	return config.Rules{
		StartBudget:       1000,
		StartFuelRange:    1000,
		FuelRate:          2,
		RequiredChemicals: 2,
		ChemicalEvents:    3,
		OtherEvents:       2,
		TotalAirports:     7,
		DefaultPlayer:     "Researcher",
		DefaultStart:      "LSZH",
	}
}

func newTestStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	st := store.NewMemoryStoreWithRand(rand.New(rand.NewPCG(1, 2)))
	ctx := context.Background()
	if err := st.UpsertAirports(ctx, testAirports); err != nil {
		t.Fatalf("Failed to seed airports: %v", err)
	}
	events := make([]models.Event, len(testEvents))
	copy(events, testEvents)
	if err := st.UpsertEvents(ctx, events); err != nil {
		t.Fatalf("Failed to seed events: %v", err)
	}
	return st
}

func newTestGameService(t *testing.T, rules config.Rules) (*GameService, *store.MemoryStore) {
	t.Helper()
	st := newTestStore(t)
	return NewGameService(st, rules), st
}

// newBareGame starts a game with no events placed.
func newBareGame(t *testing.T, svc *GameService) *Status {
	t.Helper()
	saved := svc.Rules.TotalAirports
	svc.Rules.TotalAirports = 0
	defer func() { svc.Rules.TotalAirports = saved }()

	status, err := svc.NewGame(context.Background(), "Ava", "LSZH")
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	return status
}

func placeEvent(t *testing.T, st store.Store, gameID, airport string, eventID int64) {
	t.Helper()
	a := &models.EventAssignment{GameID: gameID, Airport: airport, GoalID: eventID}
	if err := st.InsertEventAssignment(context.Background(), a); err != nil {
		t.Fatalf("Failed to place event %d at %s: %v", eventID, airport, err)
	}
}

func patchGame(t *testing.T, st store.Store, gameID string, mutate func(g *models.Game)) {
	t.Helper()
	ctx := context.Background()
	game, err := st.GetGame(ctx, gameID)
	if err != nil {
		t.Fatalf("Failed to load game %s: %v", gameID, err)
	}
	mutate(game)
	if err := st.UpdateGame(ctx, game); err != nil {
		t.Fatalf("Failed to update game %s: %v", gameID, err)
	}
}

// failingStore breaks selected store operations.
type failingStore struct {
	store.Store
	failBox     bool
	failAirport bool
}

var errBoom = errorString("connection refused")

type errorString string

func (e errorString) Error() string { return string(e) }

func (f *failingStore) AirportsInBox(ctx context.Context, box store.BoundingBox, types []string, exclude string) ([]models.Airport, error) {
	if f.failBox {
		return nil, errBoom
	}
	return f.Store.AirportsInBox(ctx, box, types, exclude)
}

func (f *failingStore) GetAirport(ctx context.Context, ident string) (*models.Airport, error) {
	if f.failAirport {
		return nil, errBoom
	}
	return f.Store.GetAirport(ctx, ident)
}
