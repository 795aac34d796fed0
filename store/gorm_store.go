// store/gorm_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aviation-fuel-game/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 500

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// OpenPostgres connects to the DSN and returns a ready store.
func OpenPostgres(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewGormStore(db), nil
}

func (s *GormStore) Migrate() error {
	return s.DB.AutoMigrate(
		&models.Airport{},
		&models.Event{},
		&models.Game{},
		&models.EventAssignment{},
	)
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{DB: tx})
	})
}

func (s *GormStore) GetGame(ctx context.Context, id string) (*models.Game, error) {
	var game models.Game
	if err := s.DB.WithContext(ctx).First(&game, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &game, nil
}

func (s *GormStore) CreateGame(ctx context.Context, game *models.Game) error {
	if game.Version == 0 {
		game.Version = 1
	}
	return s.DB.WithContext(ctx).Create(game).Error
}

func (s *GormStore) UpdateGame(ctx context.Context, game *models.Game) error {
	res := s.DB.WithContext(ctx).Model(&models.Game{}).
		Where("id = ? AND version = ?", game.ID, game.Version).
		Updates(map[string]interface{}{
			"screen_name":      game.ScreenName,
			"money":            game.Money,
			"player_range":     game.Range,
			"location":         game.Location,
			"chemicals":        game.Chemicals,
			"visited_airports": game.VisitedAirports,
			"version":          game.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.Game{}).Where("id = ?", game.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	game.Version++
	return nil
}

func (s *GormStore) ListFinishedGames(ctx context.Context, requiredChemicals, limit int) ([]models.Game, error) {
	var games []models.Game
	q := s.DB.WithContext(ctx).
		Where("archived_at IS NULL AND (player_range <= 0 OR chemicals >= ?)", requiredChemicals).
		Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&games).Error
	return games, err
}

func (s *GormStore) MarkArchived(ctx context.Context, id string, at time.Time) error {
	res := s.DB.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).Update("archived_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) GetAirport(ctx context.Context, ident string) (*models.Airport, error) {
	var airport models.Airport
	if err := s.DB.WithContext(ctx).First(&airport, "ident = ?", ident).Error; err != nil {
		return nil, translate(err)
	}
	return &airport, nil
}

func (s *GormStore) AirportsInBox(ctx context.Context, box BoundingBox, types []string, excludeIdent string) ([]models.Airport, error) {
	var airports []models.Airport
	err := s.boxQuery(ctx, box, types, excludeIdent).Find(&airports).Error
	return airports, err
}

// boxQuery builds the bounding-box pre-filter.
func (s *GormStore) boxQuery(ctx context.Context, box BoundingBox, types []string, excludeIdent string) *gorm.DB {
	q := s.DB.WithContext(ctx).Model(&models.Airport{}).
		Where("latitude_deg BETWEEN ? AND ?", box.MinLat, box.MaxLat)

	ranges := box.LonRanges()
	conds := make([]string, 0, len(ranges))
	args := make([]interface{}, 0, 2*len(ranges))
	for _, r := range ranges {
		conds = append(conds, "longitude_deg BETWEEN ? AND ?")
		args = append(args, r[0], r[1])
	}
	q = q.Where("("+strings.Join(conds, " OR ")+")", args...)

	if len(types) > 0 {
		q = q.Where("type IN ?", types)
	}
	if excludeIdent != "" {
		q = q.Where("ident <> ?", excludeIdent)
	}
	return q.Order("ident")
}

func (s *GormStore) SampleRandomAirports(ctx context.Context, types []string, excludeIdent string, limit int) ([]models.Airport, error) {
	var airports []models.Airport
	q := s.DB.WithContext(ctx).Model(&models.Airport{})
	if len(types) > 0 {
		q = q.Where("type IN ?", types)
	}
	if excludeIdent != "" {
		q = q.Where("ident <> ?", excludeIdent)
	}
	err := q.Order("RANDOM()").Limit(limit).Find(&airports).Error
	return airports, err
}

func (s *GormStore) UpsertAirports(ctx context.Context, airports []models.Airport) error {
	if len(airports) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ident"}},
			UpdateAll: true,
		}).
		CreateInBatches(&airports, upsertBatchSize).Error
}

func (s *GormStore) CountAirports(ctx context.Context) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Airport{}).Count(&count).Error
	return count, err
}

func (s *GormStore) SampleCatalogEvents(ctx context.Context, kind models.EventKind, limit int) ([]models.Event, error) {
	var events []models.Event
	q := s.DB.WithContext(ctx).Model(&models.Event{})
	if kind == models.EventKindChemical {
		q = q.Where("money = 0")
	} else {
		q = q.Where("money <> 0")
	}
	err := q.Order("id").Limit(limit).Find(&events).Error
	return events, err
}

func (s *GormStore) UpsertEvents(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&events).Error
}

func (s *GormStore) GetEventAssignment(ctx context.Context, gameID, airport string) (*models.EventAssignment, error) {
	var a models.EventAssignment
	err := s.DB.WithContext(ctx).
		Preload("Goal").
		Where("game = ? AND airport = ?", gameID, airport).
		First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *GormStore) InsertEventAssignment(ctx context.Context, a *models.EventAssignment) error {
	return s.DB.WithContext(ctx).Omit("Goal").Create(a).Error
}

func (s *GormStore) DeleteEventAssignment(ctx context.Context, gameID, airport string) error {
	res := s.DB.WithContext(ctx).
		Where("game = ? AND airport = ?", gameID, airport).
		Delete(&models.EventAssignment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) PendingEventAirports(ctx context.Context, gameID string) ([]models.EventAirport, error) {
	var rows []models.EventAirport
	err := s.DB.WithContext(ctx).
		Table("airport AS a").
		Select(`a.ident, a.name, a.latitude_deg AS latitude, a.longitude_deg AS longitude,
			a.iso_country AS country, e.name AS event_name, e.money`).
		Joins("JOIN events_reached er ON a.ident = er.airport AND er.game = ?", gameID).
		Joins("JOIN events e ON er.goal = e.id").
		Where("a.type IN ?", models.PlayableAirportTypes).
		Order("a.name").
		Scan(&rows).Error
	return rows, err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
