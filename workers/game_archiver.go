// workers/game_archiver.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"aviation-fuel-game/config"
	"aviation-fuel-game/models"
	"aviation-fuel-game/store"

	"github.com/go-co-op/gocron/v2"
	"github.com/gosimple/slug"
)

const archiveBatchSize = 100

// Uploader stores one archived object. utils.R2Uploader implements it.
type Uploader interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
}

// GameSummary is the JSON document written for every finished game.
type GameSummary struct {
	ID         string    `json:"id"`
	Player     string    `json:"player"`
	Won        bool      `json:"won"`
	Chemicals  int       `json:"chemicals"`
	Money      int64     `json:"money"`
	Range      int64     `json:"range"`
	Location   string    `json:"location"`
	Visited    []string  `json:"visited_airports"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	ArchivedAt time.Time `json:"archived_at"`
}

// GameArchiver moves finished games (won or out of range) to object storage
// and flags them so they are archived once.
type GameArchiver struct {
	store    store.Store
	uploader Uploader // nil: summaries are only logged
	rules    config.Rules
	interval time.Duration
	now      func() time.Time
}

func NewGameArchiver(st store.Store, uploader Uploader, rules config.Rules, interval time.Duration) *GameArchiver {
	return &GameArchiver{
		store:    st,
		uploader: uploader,
		rules:    rules,
		interval: interval,
		now:      time.Now,
	}
}

// ArchiveKey is the object key of a game summary.
func ArchiveKey(g models.Game) string {
	player := slug.Make(g.ScreenName)
	if player == "" {
		player = "player"
	}
	return fmt.Sprintf("games/%s-%s.json", player, g.ID)
}

func (w *GameArchiver) summarize(g models.Game, at time.Time) GameSummary {
	return GameSummary{
		ID:         g.ID,
		Player:     g.ScreenName,
		Won:        g.HasWon(w.rules.RequiredChemicals),
		Chemicals:  g.Chemicals,
		Money:      g.Money,
		Range:      g.Range,
		Location:   g.Location,
		Visited:    g.Visited(),
		StartedAt:  g.CreatedAt,
		FinishedAt: g.UpdatedAt,
		ArchivedAt: at,
	}
}

// RunOnce archives one batch of finished games. A game that fails to upload
// stays unarchived and is retried on the next run.
func (w *GameArchiver) RunOnce(ctx context.Context) (int, error) {
	games, err := w.store.ListFinishedGames(ctx, w.rules.RequiredChemicals, archiveBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list finished games: %w", err)
	}

	archived := 0
	for _, g := range games {
		at := w.now()
		key := ArchiveKey(g)
		body, err := json.Marshal(w.summarize(g, at))
		if err != nil {
			log.Printf("❌ [ARCHIVER] Failed to encode game %s: %v", g.ID, err)
			continue
		}

		if w.uploader == nil {
			log.Printf("📦 [ARCHIVER] %s %s", key, body)
		} else if err := w.uploader.PutObject(ctx, key, body, "application/json"); err != nil {
			log.Printf("❌ [ARCHIVER] Upload of game %s failed: %v", g.ID, err)
			continue
		}

		if err := w.store.MarkArchived(ctx, g.ID, at); err != nil {
			log.Printf("❌ [ARCHIVER] Failed to mark game %s archived: %v", g.ID, err)
			continue
		}
		archived++
	}

	if archived > 0 {
		log.Printf("✅ [ARCHIVER] Archived %d/%d finished games", archived, len(games))
	}
	return archived, nil
}

// Start schedules RunOnce every interval until ctx is cancelled.
// A zero interval disables archiving and returns nil.
func (w *GameArchiver) Start(ctx context.Context) (gocron.Scheduler, error) {
	if w.interval <= 0 {
		log.Println("⏸️  [ARCHIVER] Disabled (ARCHIVE_INTERVAL=0)")
		return nil, nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			if _, err := w.RunOnce(ctx); err != nil {
				log.Printf("❌ [ARCHIVER] %v", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule archiver: %w", err)
	}

	sched.Start()
	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			log.Printf("⚠️  [ARCHIVER] Scheduler shutdown: %v", err)
		}
		log.Println("⏹️ [ARCHIVER] Stopped")
	}()

	log.Printf("🔁 [ARCHIVER] Archiving finished games every %s", w.interval)
	return sched, nil
}
