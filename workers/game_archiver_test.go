package workers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"aviation-fuel-game/config"
	"aviation-fuel-game/models"
	"aviation-fuel-game/store"
)

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    map[string]bool
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: map[string][]byte{}, fail: map[string]bool{}}
}

func (f *fakeUploader) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[key] {
		return errors.New("bucket unavailable")
	}
	if contentType != "application/json" {
		return errors.New("unexpected content type " + contentType)
	}
	f.objects[key] = body
	return nil
}

func seedGames(t *testing.T, st store.Store) {
	t.Helper()
	games := []*models.Game{
		{ID: "g-active", ScreenName: "Ava", Range: 500, Chemicals: 1},
		{ID: "g-stranded", ScreenName: "Bob Müller", Range: 0, Chemicals: 2, Location: "LFSB", VisitedAirports: "LSZH,LFSB"},
		{ID: "g-winner", ScreenName: "Ava", Range: 120, Chemicals: 5},
	}
	for _, g := range games {
		if err := st.CreateGame(context.Background(), g); err != nil {
			t.Fatalf("CreateGame failed: %v", err)
		}
	}
}

func TestArchiveKey(t *testing.T) {
	tests := []struct {
		name   string
		player string
		want   string
	}{
		{"plain", "Ava", "games/ava-g1.json"},
		{"accents and spaces", "Bob Müller", "games/bob-muller-g1.json"},
		{"nothing sluggable", "!!!", "games/player-g1.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArchiveKey(models.Game{ID: "g1", ScreenName: tt.player}); got != tt.want {
				t.Errorf("ArchiveKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGameArchiver_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads finished games once", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedGames(t, st)
		up := newFakeUploader()
		w := NewGameArchiver(st, up, config.DefaultRules, time.Minute)

		n, err := w.RunOnce(ctx)
		if err != nil {
			t.Fatalf("RunOnce failed: %v", err)
		}
		if n != 2 || len(up.objects) != 2 {
			t.Fatalf("Expected 2 archived games, got %d (%d objects)", n, len(up.objects))
		}

		body, ok := up.objects["games/bob-muller-g-stranded.json"]
		if !ok {
			t.Fatalf("Missing summary for stranded game, have %v", up.objects)
		}
		var summary GameSummary
		if err := json.Unmarshal(body, &summary); err != nil {
			t.Fatalf("Invalid summary JSON: %v", err)
		}
		if summary.Won || summary.Location != "LFSB" || len(summary.Visited) != 2 {
			t.Errorf("Unexpected summary %+v", summary)
		}
		if _, ok := up.objects["games/ava-g-winner.json"]; !ok {
			t.Error("Missing summary for winning game")
		}

		n, err = w.RunOnce(ctx)
		if err != nil {
			t.Fatalf("Second RunOnce failed: %v", err)
		}
		if n != 0 {
			t.Errorf("Expected nothing left to archive, got %d", n)
		}
	})

	t.Run("failed upload is retried", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedGames(t, st)
		up := newFakeUploader()
		up.fail["games/ava-g-winner.json"] = true
		w := NewGameArchiver(st, up, config.DefaultRules, time.Minute)

		if n, _ := w.RunOnce(ctx); n != 1 {
			t.Fatalf("Expected 1 archived game, got %d", n)
		}
		winner, _ := st.GetGame(ctx, "g-winner")
		if winner.ArchivedAt != nil {
			t.Error("Expected failed upload to leave the game unarchived")
		}

		up.fail = map[string]bool{}
		if n, _ := w.RunOnce(ctx); n != 1 {
			t.Errorf("Expected retry to archive the winner, got %d", n)
		}
	})

	t.Run("without a bucket games are only logged", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedGames(t, st)
		w := NewGameArchiver(st, nil, config.DefaultRules, time.Minute)

		n, err := w.RunOnce(ctx)
		if err != nil {
			t.Fatalf("RunOnce failed: %v", err)
		}
		if n != 2 {
			t.Errorf("Expected 2 archived games, got %d", n)
		}
		active, _ := st.GetGame(ctx, "g-active")
		if active.ArchivedAt != nil {
			t.Error("Expected active game to stay unarchived")
		}
	})
}

func TestGameArchiver_StartDisabled(t *testing.T) {
	w := NewGameArchiver(store.NewMemoryStore(), nil, config.DefaultRules, 0)
	sched, err := w.Start(context.Background())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if sched != nil {
		t.Error("Expected no scheduler for a zero interval")
	}
}

func TestGameArchiver_StartStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewGameArchiver(store.NewMemoryStore(), nil, config.DefaultRules, time.Hour)
	sched, err := w.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if sched == nil {
		t.Fatal("Expected a running scheduler")
	}
	if len(sched.Jobs()) != 1 {
		t.Errorf("Expected 1 scheduled job, got %d", len(sched.Jobs()))
	}
	cancel()
}
