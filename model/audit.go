package model

import "time"

type AuditEvent struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	UserID     string    `gorm:"size:64;index"`          // external identity id (empty for sweep events)
	EventType  string    `gorm:"size:64;not null;index"` // gate_allowed, gate_denied, sweep_completed...
	Provider   string    `gorm:"size:16;index"`          // google, twitch (optional)
	SpaceID    string    `gorm:"size:64;index"`          // space the gate decision was made for (optional)
	ReasonCode string    `gorm:"size:64"`                // gate reason code or webhook reject class
	Reason     string    `gorm:"size:512"`               // failure reason or context
	IP         string    `gorm:"size:45"`                // IPv4/IPv6 (optional)
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (AuditEvent) TableName() string {
	return "audit"
}
