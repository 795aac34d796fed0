// models/game.go
package models

import (
	"strings"
	"time"
)

// Game is one player's persisted session.
type Game struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(64)"`
	ScreenName string `json:"name" gorm:"column:screen_name;not null"`
	Money      int64  `json:"money" gorm:"not null;default:0"`
	Range      int64  `json:"range" gorm:"column:player_range;not null;default:0"`
	Location   string `json:"location" gorm:"type:varchar(16);not null"`
	Chemicals  int    `json:"chemicals" gorm:"not null;default:0"`

	// 🗺️ Stored comma-joined; use Visited()/SetVisited()
	VisitedAirports string `json:"-" gorm:"column:visited_airports;type:text"`

	// Version guards against lost updates between concurrent actions.
	Version int64 `json:"-" gorm:"not null;default:1"`

	ArchivedAt *time.Time `json:"archived_at,omitempty" gorm:"index"`

	Timestamps
}

func (Game) TableName() string {
	return "game"
}

// Visited returns the ordered list of visited airport idents.
func (g *Game) Visited() []string {
	if g.VisitedAirports == "" {
		return []string{}
	}
	parts := strings.Split(g.VisitedAirports, ",")
	visited := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			visited = append(visited, p)
		}
	}
	return visited
}

func (g *Game) SetVisited(idents []string) {
	g.VisitedAirports = strings.Join(idents, ",")
}

func (g *Game) AppendVisited(ident string) {
	g.SetVisited(append(g.Visited(), ident))
}

// IsOver is the loss condition: no range left.
func (g *Game) IsOver() bool {
	return g.Range <= 0
}

func (g *Game) HasWon(requiredChemicals int) bool {
	return g.Chemicals >= requiredChemicals
}
