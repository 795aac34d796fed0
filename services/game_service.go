package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"aviation-fuel-game/config"
	"aviation-fuel-game/models"
	"aviation-fuel-game/store"

	"github.com/google/uuid"
)

type GameService struct {
	Store    store.Store
	Airports *AirportService
	Rules    config.Rules

	// NewID generates session identifiers; replaced in tests.
	NewID func() string

	locks sessionLocks
}

func NewGameService(st store.Store, rules config.Rules) *GameService {
	return &GameService{
		Store:    st,
		Airports: NewAirportService(st),
		Rules:    rules,
		NewID:    uuid.NewString,
	}
}

// AirportView is the per-airport entry of a status snapshot.
type AirportView struct {
	Ident     string  `json:"ident"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Distance  int64   `json:"distance"`
}

// EventOutcome describes an event fired by arriving at an airport.
type EventOutcome struct {
	Name     string `json:"name"`
	Money    int64  `json:"money"`
	Chemical bool   `json:"chemical"`
	Message  string `json:"message"`
}

// Status is the snapshot returned by every game action.
type Status struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Money           int64         `json:"money"`
	Range           int64         `json:"range"`
	Chemicals       int           `json:"chemicals"`
	Location        string        `json:"location"`
	Visited         []string      `json:"visited"`
	VisitedCount    int           `json:"visited_count"`
	// VisitedAirports is Visited comma-joined, the form the browser client splits.
	VisitedAirports string        `json:"visited_airports"`
	GameOver        bool          `json:"game_over"`
	GameWon         bool          `json:"game_won"`
	LastEvent       string        `json:"last_event,omitempty"`
	LastChemical    string        `json:"last_chemical,omitempty"`
	Event           *EventOutcome `json:"event,omitempty"`
	Airport         *AirportView  `json:"airport,omitempty"`
	NearbyAirports  []AirportView `json:"nearby_airports"`
}

// NewGame creates a session at startLocation and places its events.
func (s *GameService) NewGame(ctx context.Context, player, startLocation string) (*Status, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		player = s.Rules.DefaultPlayer
	}
	startLocation = NormalizeIdent(startLocation)
	if startLocation == "" {
		startLocation = s.Rules.DefaultStart
	}
	if start := s.Airports.Load(ctx, startLocation); start.Degraded {
		return nil, fmt.Errorf("%w: %s", ErrAirportNotFound, startLocation)
	}

	game := &models.Game{
		ID:         s.NewID(),
		ScreenName: player,
		Money:      s.Rules.StartBudget,
		Range:      s.Rules.StartFuelRange,
		Location:   startLocation,
		Chemicals:  0,
	}
	game.SetVisited([]string{startLocation})

	var assigned int
	err := s.Store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateGame(ctx, game); err != nil {
			return storeError(err, ErrGameNotFound)
		}
		n, err := s.assignEvents(ctx, tx, game.ID, startLocation)
		assigned = n
		return err
	})
	if err != nil {
		return nil, wrapUnexpected(err)
	}

	log.Printf("🎮 [GAME] New game %s for %q at %s (%d events placed)", game.ID, player, startLocation, assigned)
	return s.status(ctx, game, nil), nil
}

// Travel flies the session to destination, burning range equal to the distance.
func (s *GameService) Travel(ctx context.Context, gameID, destination string) (*Status, error) {
	destination = NormalizeIdent(destination)
	if destination == "" {
		return nil, ErrInvalidDestination
	}

	unlock := s.locks.lock(gameID)
	defer unlock()

	var (
		game    *models.Game
		outcome *EventOutcome
	)
	err := s.Store.Transaction(ctx, func(tx store.Store) error {
		var err error
		game, err = tx.GetGame(ctx, gameID)
		if err != nil {
			return storeError(err, ErrGameNotFound)
		}
		if game.Location == destination {
			return fmt.Errorf("%w: already at %s", ErrInvalidDestination, destination)
		}

		from := s.Airports.Load(ctx, game.Location)
		if from.Degraded {
			return fmt.Errorf("%w: current location %s", ErrAirportNotFound, game.Location)
		}
		to := s.Airports.Load(ctx, destination)
		if to.Degraded {
			return fmt.Errorf("%w: %s", ErrAirportNotFound, destination)
		}
		distance := Distance(&from, &to)

		if game.Range <= 0 {
			return ErrOutOfFuel
		}
		if distance > game.Range {
			return &InsufficientRangeError{Required: distance, Available: game.Range}
		}

		game.Range -= distance
		game.Location = destination
		game.AppendVisited(destination)
		if err := tx.UpdateGame(ctx, game); err != nil {
			return storeError(err, ErrGameNotFound)
		}

		outcome, err = s.checkEvent(ctx, tx, game, destination)
		return err
	})
	if err != nil {
		return nil, wrapUnexpected(err)
	}

	log.Printf("✈️  [GAME] %s flew to %s, range left %dkm", game.ID, destination, game.Range)
	return s.status(ctx, game, outcome), nil
}

// BuyFuel spends amount of money for amount*FuelRate of range.
// Purchases the player cannot afford are rejected.
func (s *GameService) BuyFuel(ctx context.Context, gameID string, amount int64) (*Status, error) {
	unlock := s.locks.lock(gameID)
	defer unlock()

	var game *models.Game
	err := s.Store.Transaction(ctx, func(tx store.Store) error {
		var err error
		game, err = tx.GetGame(ctx, gameID)
		if err != nil {
			return storeError(err, ErrGameNotFound)
		}
		if amount <= 0 {
			return ErrInvalidAmount
		}
		if amount > game.Money {
			return fmt.Errorf("%w: fuel costs %d€, balance is %d€", ErrInsufficientFunds, amount, game.Money)
		}

		game.Money -= amount
		game.Range += amount * s.Rules.FuelRate
		return storeError(tx.UpdateGame(ctx, game), ErrGameNotFound)
	})
	if err != nil {
		return nil, wrapUnexpected(err)
	}

	log.Printf("⛽ [GAME] %s bought %dkm of fuel for %d€", game.ID, amount*s.Rules.FuelRate, amount)
	return s.status(ctx, game, nil), nil
}

// GetStatus returns the current snapshot without changing anything.
func (s *GameService) GetStatus(ctx context.Context, gameID string) (*Status, error) {
	game, err := s.Store.GetGame(ctx, gameID)
	if err != nil {
		return nil, storeError(err, ErrGameNotFound)
	}
	return s.status(ctx, game, nil), nil
}

// EventAirports lists the airports still holding an event for the game.
func (s *GameService) EventAirports(ctx context.Context, gameID string) ([]models.EventAirport, error) {
	if _, err := s.Store.GetGame(ctx, gameID); err != nil {
		return nil, storeError(err, ErrGameNotFound)
	}
	rows, err := s.Store.PendingEventAirports(ctx, gameID)
	if err != nil {
		return nil, storeError(err, ErrGameNotFound)
	}
	if rows == nil {
		rows = []models.EventAirport{}
	}
	return rows, nil
}

// assignEvents pairs a random sample of airports with catalog events:
// chemicals first by position, then monetary events round-robin.
func (s *GameService) assignEvents(ctx context.Context, tx store.Store, gameID, startAirport string) (int, error) {
	chemicals, err := tx.SampleCatalogEvents(ctx, models.EventKindChemical, s.Rules.ChemicalEvents)
	if err != nil {
		return 0, storeError(err, ErrGameNotFound)
	}
	others, err := tx.SampleCatalogEvents(ctx, models.EventKindMoney, s.Rules.OtherEvents)
	if err != nil {
		return 0, storeError(err, ErrGameNotFound)
	}
	airports, err := tx.SampleRandomAirports(ctx, models.PlayableAirportTypes, startAirport, s.Rules.TotalAirports)
	if err != nil {
		return 0, storeError(err, ErrGameNotFound)
	}

	assigned := 0
	for i, airport := range airports {
		var goal *models.Event
		switch {
		case i < len(chemicals):
			goal = &chemicals[i]
		case len(others) > 0:
			goal = &others[(i-len(chemicals))%len(others)]
		default:
			continue
		}

		a := &models.EventAssignment{GameID: gameID, Airport: airport.Ident, GoalID: goal.ID}
		if err := tx.InsertEventAssignment(ctx, a); err != nil {
			return assigned, storeError(err, ErrGameNotFound)
		}
		assigned++
	}
	return assigned, nil
}

// checkEvent fires and consumes the event assigned to (game, airport), if any.
func (s *GameService) checkEvent(ctx context.Context, tx store.Store, game *models.Game, airport string) (*EventOutcome, error) {
	assignment, err := tx.GetEventAssignment(ctx, game.ID, airport)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, ErrGameNotFound)
	}

	event := assignment.Goal
	outcome := &EventOutcome{Name: event.Name, Money: event.Money, Chemical: event.IsChemical()}
	if outcome.Chemical {
		game.Chemicals++
		outcome.Message = event.Name
	} else {
		game.Money += event.Money
		if game.Money < 0 {
			game.Money = 0
		}
		outcome.Message = FormatMoneyEvent(event.Name, event.Money)
	}

	if err := tx.UpdateGame(ctx, game); err != nil {
		return nil, storeError(err, ErrGameNotFound)
	}
	if err := tx.DeleteEventAssignment(ctx, game.ID, airport); err != nil {
		return nil, storeError(err, ErrGameNotFound)
	}

	log.Printf("🧪 [GAME] %s triggered %q at %s", game.ID, event.Name, airport)
	return outcome, nil
}

// FormatMoneyEvent renders "name (+amount€)" or "name (-amount€)".
func FormatMoneyEvent(name string, money int64) string {
	sign := ""
	if money > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s (%s%d€)", name, sign, money)
}

func (s *GameService) status(ctx context.Context, game *models.Game, outcome *EventOutcome) *Status {
	visited := game.Visited()
	st := &Status{
		ID:              game.ID,
		Name:            game.ScreenName,
		Money:           game.Money,
		Range:           game.Range,
		Chemicals:       game.Chemicals,
		Location:        game.Location,
		Visited:         visited,
		VisitedCount:    len(visited),
		VisitedAirports: strings.Join(visited, ","),
		GameOver:        game.IsOver(),
		GameWon:         game.HasWon(s.Rules.RequiredChemicals),
		Event:           outcome,
		NearbyAirports:  []AirportView{},
	}
	if outcome != nil {
		if outcome.Chemical {
			st.LastChemical = outcome.Name
		} else {
			st.LastEvent = outcome.Message
		}
	}

	current := s.Airports.Load(ctx, game.Location)
	st.Airport = &AirportView{
		Ident:     current.Ident,
		Name:      current.Name,
		Country:   current.Country,
		Latitude:  current.Latitude,
		Longitude: current.Longitude,
	}
	if current.Degraded || game.Range <= 0 {
		return st
	}

	nearby, err := s.Airports.FindNearby(ctx, current, game.Range)
	if err != nil {
		// The action is already committed; report it without the list.
		log.Printf("⚠️  [GAME] Could not find nearby airports for %s: %v", game.ID, err)
		return st
	}
	for _, n := range nearby {
		st.NearbyAirports = append(st.NearbyAirports, AirportView{
			Ident:     n.Ident,
			Name:      n.Name,
			Country:   n.Country,
			Latitude:  n.Latitude,
			Longitude: n.Longitude,
			Distance:  n.Distance,
		})
	}
	return st
}

func wrapUnexpected(err error) error {
	var rangeErr *InsufficientRangeError
	if errors.As(err, &rangeErr) || isDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// sessionLocks serializes actions per game id inside this process.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sessionLock)
	}
	entry, ok := l.locks[id]
	if !ok {
		entry = &sessionLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
