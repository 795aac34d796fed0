package services

import (
	"context"
	"errors"
	"testing"

	"aviation-fuel-game/models"
)

func TestAirportService_Load(t *testing.T) {
	ctx := context.Background()
	svc := NewAirportService(newTestStore(t))

	t.Run("known airport", func(t *testing.T) {
		a := svc.Load(ctx, "lszh ")
		if a.Degraded {
			t.Fatal("Expected LSZH to resolve")
		}
		if a.Name != "Zurich Airport" || a.Country != "CH" {
			t.Errorf("Unexpected airport %+v", a)
		}
	})

	t.Run("unknown airport falls back to defaults", func(t *testing.T) {
		a := svc.Load(ctx, "XXXX")
		if !a.Degraded {
			t.Error("Expected degraded airport")
		}
		if a.Ident != "XXXX" || a.Name != "XXXX" {
			t.Errorf("Expected ident as name, got %+v", a)
		}
		if a.Latitude != 0 || a.Longitude != 0 {
			t.Errorf("Expected 0,0 coordinates, got %v,%v", a.Latitude, a.Longitude)
		}
	})

	t.Run("store failure falls back to defaults", func(t *testing.T) {
		broken := NewAirportService(&failingStore{Store: newTestStore(t), failAirport: true})
		a := broken.Load(ctx, "LSZH")
		if !a.Degraded {
			t.Error("Expected degraded airport when the store fails")
		}
	})
}

func TestFromRow(t *testing.T) {
	a := FromRow(models.Airport{Ident: "BAD1", Latitude: 123, Longitude: 8})
	if !a.Degraded {
		t.Error("Expected out-of-range latitude to degrade the airport")
	}
	if a.Latitude != 0 || a.Name != "BAD1" {
		t.Errorf("Expected defaults, got %+v", a)
	}
}

func TestDistance(t *testing.T) {
	zrh := testAirports[0]
	gva := testAirports[1]

	if d := Distance(&zrh, &zrh); d != 0 {
		t.Errorf("Expected distance to self 0, got %d", d)
	}
	if ab, ba := Distance(&zrh, &gva), Distance(&gva, &zrh); ab != ba {
		t.Errorf("Expected symmetric distance, got %d and %d", ab, ba)
	}
	if d := Distance(&zrh, &gva); d != 230 {
		t.Errorf("Expected 230 km LSZH-LSGG, got %d", d)
	}
	if d := Distance(&zrh, nil); d != 0 {
		t.Errorf("Expected 0 for missing airport, got %d", d)
	}
	unknown := DefaultAirport("XXXX")
	if d := Distance(&zrh, &unknown); d != 0 {
		t.Errorf("Expected 0 for degraded airport, got %d", d)
	}
}

func TestAirportService_FindNearby(t *testing.T) {
	ctx := context.Background()
	svc := NewAirportService(newTestStore(t))
	origin := svc.Load(ctx, "LSZH")

	t.Run("non-positive range", func(t *testing.T) {
		for _, r := range []int64{0, -1, -500} {
			nearby, err := svc.FindNearby(ctx, origin, r)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if nearby == nil || len(nearby) != 0 {
				t.Errorf("Expected empty list for range %d, got %v", r, nearby)
			}
		}
	})

	t.Run("bounding box and classes", func(t *testing.T) {
		nearby, err := svc.FindNearby(ctx, origin, 3000)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		want := map[string]int64{"LSGG": 230, "LFSB": 77, "EDDM": 260, "LSZB": 100}
		if len(nearby) != len(want) {
			t.Fatalf("Expected %d nearby airports, got %d: %+v", len(want), len(nearby), nearby)
		}
		for _, n := range nearby {
			d, ok := want[n.Ident]
			if !ok {
				t.Errorf("Unexpected nearby airport %s", n.Ident)
				continue
			}
			if n.Distance != d {
				t.Errorf("Expected %s at %d km, got %d", n.Ident, d, n.Distance)
			}
		}
	})

	t.Run("range limit is inclusive", func(t *testing.T) {
		nearby, err := svc.FindNearby(ctx, origin, 77)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(nearby) != 1 || nearby[0].Ident != "LFSB" {
			t.Errorf("Expected only LFSB within 77 km, got %+v", nearby)
		}
	})

	t.Run("deterministic order", func(t *testing.T) {
		first, _ := svc.FindNearby(ctx, origin, 3000)
		second, _ := svc.FindNearby(ctx, origin, 3000)
		for i := range first {
			if first[i].Ident != second[i].Ident {
				t.Fatalf("Expected stable order, got %s then %s at %d", first[i].Ident, second[i].Ident, i)
			}
		}
	})

	t.Run("store failure", func(t *testing.T) {
		broken := NewAirportService(&failingStore{Store: newTestStore(t), failBox: true})
		nearby, err := broken.FindNearby(ctx, origin, 3000)
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Errorf("Expected ErrStoreUnavailable, got %v", err)
		}
		if len(nearby) != 0 {
			t.Errorf("Expected no airports on failure, got %d", len(nearby))
		}
	})
}
