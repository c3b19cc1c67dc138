package model

import (
	"time"

	"gorm.io/gorm"
)

// Provider identifies the third party an OAuth credential belongs to.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderTwitch Provider = "twitch"
)

func (p Provider) Valid() bool {
	return p == ProviderGoogle || p == ProviderTwitch
}

// Credential stores one access/refresh token pair per user and provider.
// Token columns hold AES-GCM ciphertext, never plaintext.
type Credential struct {
	ID           uint       `gorm:"primarykey"`
	UserID       string     `gorm:"uniqueIndex:idx_user_provider;size:64;not null"`
	Provider     Provider   `gorm:"uniqueIndex:idx_user_provider;size:16;not null"`
	AccessToken  string     `gorm:"size:2048;not null"`
	RefreshToken *string    `gorm:"size:2048"` // null means the credential cannot be auto-refreshed
	ExpiresAt    *time.Time // null means unknown, assume valid until a call fails
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (c *Credential) BeforeCreate(tx *gorm.DB) error {
	if c.ID == 0 {
		c.ID = GenerateID()
	}
	return nil
}
