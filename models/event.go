// models/event.go
package models

// Event is a pre-seeded catalog entry. Money == 0 marks a chemical component.
type Event struct {
	ID    int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name  string `json:"name" gorm:"not null;uniqueIndex"`
	Money int64  `json:"money" gorm:"not null;default:0;index"`
}

func (Event) TableName() string {
	return "events"
}

func (e Event) IsChemical() bool {
	return e.Money == 0
}

type EventKind string

const (
	EventKindChemical EventKind = "chemical"
	EventKindMoney    EventKind = "money"
)

// EventAssignment places a goal event on an airport for one game.
type EventAssignment struct {
	ID      int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	GameID  string `json:"game" gorm:"column:game;type:varchar(64);not null;uniqueIndex:idx_events_reached_game_airport"`
	Airport string `json:"airport" gorm:"column:airport;type:varchar(16);not null;uniqueIndex:idx_events_reached_game_airport"`
	GoalID  int64  `json:"goal" gorm:"column:goal;not null"`

	Goal Event `json:"-" gorm:"foreignKey:GoalID"`
}

func (EventAssignment) TableName() string {
	return "events_reached"
}

// EventAirport is a pending event joined with its airport, for map display.
type EventAirport struct {
	Ident     string  `json:"ident"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude_deg"`
	Longitude float64 `json:"longitude_deg"`
	Country   string  `json:"iso_country"`
	EventName string  `json:"event_name"`
	Money     int64   `json:"money"`
}
