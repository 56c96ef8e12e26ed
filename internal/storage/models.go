package storage

import "time"

// PermissionRule allows one role to use one command in one guild.
// A command with no rules in a guild is unrestricted.
type PermissionRule struct {
	GuildID     string
	CommandName string
	RoleID      string
	CreatedAt   time.Time
}

// Warning is an append-only moderation record
type Warning struct {
	ID          int64
	GuildID     string
	UserID      string
	Reason      string
	ModeratorID string
	CreatedAt   time.Time
}

// MonitorBinding is the persisted copy of a guild's status channel binding
type MonitorBinding struct {
	GuildID   string
	ChannelID string
	Enabled   bool
	UpdatedAt time.Time
}
