// models/airport.go
package models

const (
	AirportTypeLarge  = "large_airport"
	AirportTypeMedium = "medium_airport"
	AirportTypeSmall  = "small_airport"
)

// PlayableAirportTypes are the classes used for travel targets and event placement.
var PlayableAirportTypes = []string{AirportTypeLarge, AirportTypeMedium}

// Airport is a read-only row of the OurAirports dataset.
type Airport struct {
	Ident     string  `json:"ident" gorm:"column:ident;primaryKey;type:varchar(16)"`
	Name      string  `json:"name" gorm:"column:name;type:text"`
	Latitude  float64 `json:"latitude_deg" gorm:"column:latitude_deg;index"`
	Longitude float64 `json:"longitude_deg" gorm:"column:longitude_deg;index"`
	Country   string  `json:"iso_country" gorm:"column:iso_country;type:varchar(8)"`
	Continent string  `json:"continent" gorm:"column:continent;type:varchar(8)"`
	Type      string  `json:"type" gorm:"column:type;type:varchar(32);index"`

	// Degraded is set when the row could not be loaded and defaults were used.
	Degraded bool `json:"-" gorm:"-"`
}

func (Airport) TableName() string {
	return "airport"
}

// NearbyAirport is an airport annotated with its distance from the player.
type NearbyAirport struct {
	Airport
	Distance int64 `json:"distance"`
}

// IsPlayable reports whether the airport class can be a travel target.
func (a Airport) IsPlayable() bool {
	return a.Type == AirportTypeLarge || a.Type == AirportTypeMedium
}
