package models

import "time"

// AuditEvent is one protocol dispatch, persisted asynchronously by the
// audit worker. Every USSD turn, SMS command and IVR input produces one.
type AuditEvent struct {
	ID          int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	EventID     string     `gorm:"not null;unique_index" json:"event_id"`
	Channel     string     `gorm:"not null;index" json:"channel"`
	TransportID string     `gorm:"not null;index" json:"transport_id"` // sessionId / smsId / callSid
	Phone       string     `gorm:"not null;index" json:"phone"`
	State       string     `gorm:"default:''" json:"state"`
	Input       string     `gorm:"type:text" json:"input"`
	Response    string     `gorm:"type:text" json:"response"`
	LatencyMs   int64      `gorm:"default:0" json:"latency_ms"`
	CreatedAt   *time.Time `json:"created_at"`
}

// SavedPlace is a user's stored address shortcut ("home", "work", ...).
type SavedPlace struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID    string     `gorm:"not null;index" json:"user_id"`
	Label     string     `gorm:"not null" json:"label"`
	Address   string     `gorm:"not null" json:"address"`
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (p SavedPlace) Location() Location {
	return Location{
		Coords:  Coordinates{Lat: p.Lat, Lng: p.Lng},
		Address: p.Address,
	}
}
