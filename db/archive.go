package db

import (
	"fmt"
	"time"

	"ModMate/messages"

	"gorm.io/gorm/clause"
)

// Archive implements the dispatcher's Archiver over the shared connection.
type Archive struct{}

// NewArchive returns an archive handle, or nil when the DB is disabled so
// callers can skip archiving entirely.
func NewArchive() *Archive {
	if !Enabled() {
		return nil
	}
	return &Archive{}
}

// SaveAction appends one executed action.
func (a *Archive) SaveAction(serverID, userID, action string, trigger messages.Message) error {
	record := ModActionRecord{
		ServerID:  serverID,
		UserID:    userID,
		Action:    action,
		ChannelID: trigger.ChannelID,
		MessageID: trigger.MessageID,
		Content:   trigger.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := DB.Create(&record).Error; err != nil {
		return fmt.Errorf("SaveAction: failed to save action for server %s, user %s: %w", serverID, userID, err)
	}
	return nil
}

// GetActionsForServerSince fetches archived actions for a server newer than
// the cutoff, oldest first.
func GetActionsForServerSince(serverID string, since time.Time) ([]ModActionRecord, error) {
	var records []ModActionRecord
	err := DB.Where("server_id = ? AND created_at >= ?", serverID, since.UTC()).
		Order("created_at asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("GetActionsForServerSince: failed to fetch actions for server %s: %w", serverID, err)
	}
	return records, nil
}

// UpsertServerConfig sets (or updates) a server's digest channel.
func UpsertServerConfig(serverID, serverName, digestChannelID string) error {
	now := time.Now().UTC()
	config := ServerConfig{
		ServerID:        serverID,
		ServerName:      serverName,
		DigestChannelID: digestChannelID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "server_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"server_name", "digest_channel_id", "updated_at"}),
	}).Create(&config).Error
}

// GetAllServerConfigs lists every server with digest settings.
func GetAllServerConfigs() ([]ServerConfig, error) {
	var configs []ServerConfig
	err := DB.Find(&configs).Error
	return configs, err
}
