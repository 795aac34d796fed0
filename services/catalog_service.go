// services/catalog_service.go
package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"aviation-fuel-game/models"
	"aviation-fuel-game/store"
	"aviation-fuel-game/utils"
)

const importBatchSize = 1000

// DefaultEvents is the catalog seeded by `seed-events`. Money 0 marks a chemical component.
var DefaultEvents = []models.Event{
	{Name: "Isooctane"},
	{Name: "Toluene"},
	{Name: "Naphthalene"},
	{Name: "Dodecane"},
	{Name: "Cyclohexane"},
	{Name: "Decalin"},
	{Name: "Hexadecane"},
	{Name: "Farnesane"},
	{Name: "Research grant", Money: 800},
	{Name: "University partnership", Money: 500},
	{Name: "Conference prize", Money: 300},
	{Name: "Patent royalties", Money: 1200},
	{Name: "Lucky find in duty free", Money: 100},
	{Name: "Customs fine", Money: -300},
	{Name: "Lost luggage", Money: -150},
	{Name: "Lab equipment repair", Money: -500},
	{Name: "Airport tax", Money: -200},
	{Name: "Hotel overbooking", Money: -250},
	{Name: "Sponsor bonus", Money: 600},
	{Name: "Broken sample container", Money: -400},
}

var skippedAirportTypes = map[string]bool{
	"closed":        true,
	"heliport":      true,
	"seaplane_base": true,
	"balloonport":   true,
}

type CatalogService struct {
	Store store.Store
}

func NewCatalogService(st store.Store) *CatalogService {
	return &CatalogService{Store: st}
}

// ImportAirportsCSV loads an OurAirports-format CSV. Rows of unusable types
// or with unparsable coordinates are skipped. Returns the imported count.
func (s *CatalogService) ImportAirportsCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	idx := func(name string) int {
		for i, h := range headers {
			if strings.TrimSpace(h) == name {
				return i
			}
		}
		return -1
	}

	cols := map[string]int{}
	for _, name := range []string{"ident", "type", "name", "latitude_deg", "longitude_deg", "continent", "iso_country"} {
		cols[name] = idx(name)
		if cols[name] < 0 {
			return 0, fmt.Errorf("CSV is missing column %q", name)
		}
	}
	field := func(rec []string, name string) string {
		i := cols[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	imported, skipped := 0, 0
	batch := make([]models.Airport, 0, importBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.Store.UpsertAirports(ctx, batch); err != nil {
			return fmt.Errorf("failed to store airports: %w", err)
		}
		imported += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		ident := NormalizeIdent(field(rec, "ident"))
		airportType := field(rec, "type")
		if ident == "" || skippedAirportTypes[airportType] {
			skipped++
			continue
		}
		lat, latErr := strconv.ParseFloat(field(rec, "latitude_deg"), 64)
		lon, lonErr := strconv.ParseFloat(field(rec, "longitude_deg"), 64)
		if latErr != nil || lonErr != nil || !utils.ValidCoordinates(lat, lon) {
			skipped++
			continue
		}

		batch = append(batch, models.Airport{
			Ident:     ident,
			Name:      field(rec, "name"),
			Latitude:  lat,
			Longitude: lon,
			Country:   field(rec, "iso_country"),
			Continent: field(rec, "continent"),
			Type:      airportType,
		})
		if len(batch) >= importBatchSize {
			if err := flush(); err != nil {
				return imported, err
			}
		}
	}
	if err := flush(); err != nil {
		return imported, err
	}

	log.Printf("✅ [CATALOG] Imported %d airports (%d rows skipped)", imported, skipped)
	return imported, nil
}

// SeedEvents inserts DefaultEvents; existing names are left untouched.
func (s *CatalogService) SeedEvents(ctx context.Context) (int, error) {
	events := make([]models.Event, len(DefaultEvents))
	copy(events, DefaultEvents)
	if err := s.Store.UpsertEvents(ctx, events); err != nil {
		return 0, fmt.Errorf("failed to seed events: %w", err)
	}
	log.Printf("✅ [CATALOG] Event catalog seeded (%d entries)", len(events))
	return len(events), nil
}
