// store/memory_store.go
package store

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"aviation-fuel-game/models"
)

type assignmentKey struct {
	game    string
	airport string
}

// MemoryStore keeps everything in process. It backs tests and STORE=memory.
// Game and assignment access outside Transaction waits for any running
// transaction, so readers never see rows a rollback will discard.
type MemoryStore struct {
	mu   sync.Mutex
	txMu sync.RWMutex
	rng  *rand.Rand

	games        map[string]models.Game
	airports     map[string]models.Airport
	airportOrder []string
	events       []models.Event
	nextEventID  int64
	assignments  map[assignmentKey]models.EventAssignment
	nextAssignID int64
}

func NewMemoryStore() *MemoryStore {
	now := uint64(time.Now().UnixNano())
	return NewMemoryStoreWithRand(rand.New(rand.NewPCG(now, now>>1)))
}

// NewMemoryStoreWithRand makes airport sampling reproducible.
func NewMemoryStoreWithRand(rng *rand.Rand) *MemoryStore {
	return &MemoryStore{
		rng:         rng,
		games:       make(map[string]models.Game),
		airports:    make(map[string]models.Airport),
		assignments: make(map[assignmentKey]models.EventAssignment),
	}
}

type memorySnapshot struct {
	games        map[string]models.Game
	assignments  map[assignmentKey]models.EventAssignment
	nextAssignID int64
}

func (m *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snap := memorySnapshot{
		games:        make(map[string]models.Game, len(m.games)),
		assignments:  make(map[assignmentKey]models.EventAssignment, len(m.assignments)),
		nextAssignID: m.nextAssignID,
	}
	for k, v := range m.games {
		snap.games[k] = v
	}
	for k, v := range m.assignments {
		snap.assignments[k] = v
	}
	m.mu.Unlock()

	if err := fn(memoryTx{m}); err != nil {
		m.mu.Lock()
		m.games = snap.games
		m.assignments = snap.assignments
		m.nextAssignID = snap.nextAssignID
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *MemoryStore) getGame(id string) (*models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	game, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &game, nil
}

func (m *MemoryStore) createGame(game *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[game.ID]; exists {
		return ErrConflict
	}
	if game.Version == 0 {
		game.Version = 1
	}
	now := time.Now()
	game.CreatedAt = now
	game.UpdatedAt = now
	m.games[game.ID] = *game
	return nil
}

func (m *MemoryStore) updateGame(game *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.games[game.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != game.Version {
		return ErrConflict
	}
	game.Version++
	game.UpdatedAt = time.Now()
	game.CreatedAt = current.CreatedAt
	game.ArchivedAt = current.ArchivedAt
	m.games[game.ID] = *game
	return nil
}

func (m *MemoryStore) listFinishedGames(requiredChemicals, limit int) ([]models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var games []models.Game
	for _, g := range m.games {
		if g.ArchivedAt == nil && (g.IsOver() || g.HasWon(requiredChemicals)) {
			games = append(games, g)
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].UpdatedAt.Before(games[j].UpdatedAt) })
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

func (m *MemoryStore) markArchived(id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	game, ok := m.games[id]
	if !ok {
		return ErrNotFound
	}
	game.ArchivedAt = &at
	m.games[id] = game
	return nil
}

func (m *MemoryStore) GetAirport(ctx context.Context, ident string) (*models.Airport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	airport, ok := m.airports[ident]
	if !ok {
		return nil, ErrNotFound
	}
	return &airport, nil
}

func (m *MemoryStore) AirportsInBox(ctx context.Context, box BoundingBox, types []string, excludeIdent string) ([]models.Airport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Airport
	for _, ident := range m.airportOrder {
		a := m.airports[ident]
		if ident == excludeIdent || !containsType(types, a.Type) {
			continue
		}
		if box.Contains(a.Latitude, a.Longitude) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStore) SampleRandomAirports(ctx context.Context, types []string, excludeIdent string, limit int) ([]models.Airport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var candidates []models.Airport
	for _, ident := range m.airportOrder {
		a := m.airports[ident]
		if ident != excludeIdent && containsType(types, a.Type) {
			candidates = append(candidates, a)
		}
	}
	m.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if limit >= 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (m *MemoryStore) UpsertAirports(ctx context.Context, airports []models.Airport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range airports {
		if _, exists := m.airports[a.Ident]; !exists {
			m.airportOrder = append(m.airportOrder, a.Ident)
		}
		m.airports[a.Ident] = a
	}
	return nil
}

func (m *MemoryStore) CountAirports(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.airports)), nil
}

func (m *MemoryStore) SampleCatalogEvents(ctx context.Context, kind models.EventKind, limit int) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Event
	for _, e := range m.events {
		if limit >= 0 && len(out) >= limit {
			break
		}
		if e.IsChemical() == (kind == models.EventKindChemical) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpsertEvents(ctx context.Context, events []models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range events {
		if m.eventByName(events[i].Name) != nil {
			continue
		}
		m.nextEventID++
		events[i].ID = m.nextEventID
		m.events = append(m.events, events[i])
	}
	return nil
}

func (m *MemoryStore) eventByName(name string) *models.Event {
	for i := range m.events {
		if m.events[i].Name == name {
			return &m.events[i]
		}
	}
	return nil
}

func (m *MemoryStore) eventByID(id int64) (models.Event, bool) {
	for _, e := range m.events {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

func (m *MemoryStore) getEventAssignment(gameID, airport string) (*models.EventAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[assignmentKey{gameID, airport}]
	if !ok {
		return nil, ErrNotFound
	}
	goal, ok := m.eventByID(a.GoalID)
	if !ok {
		return nil, ErrNotFound
	}
	a.Goal = goal
	return &a, nil
}

func (m *MemoryStore) insertEventAssignment(a *models.EventAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := assignmentKey{a.GameID, a.Airport}
	if _, exists := m.assignments[key]; exists {
		return ErrConflict
	}
	m.nextAssignID++
	a.ID = m.nextAssignID
	stored := *a
	stored.Goal = models.Event{}
	m.assignments[key] = stored
	return nil
}

func (m *MemoryStore) deleteEventAssignment(gameID, airport string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := assignmentKey{gameID, airport}
	if _, ok := m.assignments[key]; !ok {
		return ErrNotFound
	}
	delete(m.assignments, key)
	return nil
}

func (m *MemoryStore) pendingEventAirports(gameID string) ([]models.EventAirport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []models.EventAirport
	for key, a := range m.assignments {
		if key.game != gameID {
			continue
		}
		airport, ok := m.airports[key.airport]
		if !ok || !airport.IsPlayable() {
			continue
		}
		goal, ok := m.eventByID(a.GoalID)
		if !ok {
			continue
		}
		rows = append(rows, models.EventAirport{
			Ident:     airport.Ident,
			Name:      airport.Name,
			Latitude:  airport.Latitude,
			Longitude: airport.Longitude,
			Country:   airport.Country,
			EventName: goal.Name,
			Money:     goal.Money,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name == rows[j].Name {
			return rows[i].Ident < rows[j].Ident
		}
		return rows[i].Name < rows[j].Name
	})
	return rows, nil
}

func (m *MemoryStore) GetGame(ctx context.Context, id string) (*models.Game, error) {
	m.txMu.RLock()
	defer m.txMu.RUnlock()
	return m.getGame(id)
}

func (m *MemoryStore) CreateGame(ctx context.Context, game *models.Game) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.createGame(game)
}

func (m *MemoryStore) UpdateGame(ctx context.Context, game *models.Game) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.updateGame(game)
}

func (m *MemoryStore) ListFinishedGames(ctx context.Context, requiredChemicals, limit int) ([]models.Game, error) {
	m.txMu.RLock()
	defer m.txMu.RUnlock()
	return m.listFinishedGames(requiredChemicals, limit)
}

func (m *MemoryStore) MarkArchived(ctx context.Context, id string, at time.Time) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.markArchived(id, at)
}

func (m *MemoryStore) GetEventAssignment(ctx context.Context, gameID, airport string) (*models.EventAssignment, error) {
	m.txMu.RLock()
	defer m.txMu.RUnlock()
	return m.getEventAssignment(gameID, airport)
}

func (m *MemoryStore) InsertEventAssignment(ctx context.Context, a *models.EventAssignment) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.insertEventAssignment(a)
}

func (m *MemoryStore) DeleteEventAssignment(ctx context.Context, gameID, airport string) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.deleteEventAssignment(gameID, airport)
}

func (m *MemoryStore) PendingEventAirports(ctx context.Context, gameID string) ([]models.EventAirport, error) {
	m.txMu.RLock()
	defer m.txMu.RUnlock()
	return m.pendingEventAirports(gameID)
}

// memoryTx is the store handed to Transaction callbacks. txMu is already
// held, so game and assignment calls go straight to the maps.
type memoryTx struct {
	*MemoryStore
}

func (tx memoryTx) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return fn(tx)
}

func (tx memoryTx) GetGame(ctx context.Context, id string) (*models.Game, error) {
	return tx.getGame(id)
}

func (tx memoryTx) CreateGame(ctx context.Context, game *models.Game) error {
	return tx.createGame(game)
}

func (tx memoryTx) UpdateGame(ctx context.Context, game *models.Game) error {
	return tx.updateGame(game)
}

func (tx memoryTx) ListFinishedGames(ctx context.Context, requiredChemicals, limit int) ([]models.Game, error) {
	return tx.listFinishedGames(requiredChemicals, limit)
}

func (tx memoryTx) MarkArchived(ctx context.Context, id string, at time.Time) error {
	return tx.markArchived(id, at)
}

func (tx memoryTx) GetEventAssignment(ctx context.Context, gameID, airport string) (*models.EventAssignment, error) {
	return tx.getEventAssignment(gameID, airport)
}

func (tx memoryTx) InsertEventAssignment(ctx context.Context, a *models.EventAssignment) error {
	return tx.insertEventAssignment(a)
}

func (tx memoryTx) DeleteEventAssignment(ctx context.Context, gameID, airport string) error {
	return tx.deleteEventAssignment(gameID, airport)
}

func (tx memoryTx) PendingEventAirports(ctx context.Context, gameID string) ([]models.EventAirport, error) {
	return tx.pendingEventAirports(gameID)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = memoryTx{}
	_ Store = (*GormStore)(nil)
)
