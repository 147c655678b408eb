package db

import "time"

// ModActionRecord is one executed moderation action, archived for the daily
// digest. The authoritative copy lives in the ledger snapshot; this table is
// query-friendly history.
type ModActionRecord struct {
	ID        uint   `gorm:"primaryKey"`
	ServerID  string `gorm:"index;not null"`
	UserID    string `gorm:"not null"`
	Action    string `gorm:"not null"`
	ChannelID string
	MessageID string
	Content   string
	CreatedAt time.Time
}

// ServerConfig holds per-server digest settings.
type ServerConfig struct {
	ID              uint   `gorm:"primaryKey"`
	ServerID        string `gorm:"uniqueIndex;not null"`
	ServerName      string
	DigestChannelID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
