package models

import (
	"time"
)

// Guild represents a named community that submissions are grouped under.
// Privacy and posting restrictions are evaluated at submission time; a
// submission's visibility is frozen from the guild state at creation.
type Guild struct {
	ID                int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Name              string    `gorm:"type:varchar(64);not null;uniqueIndex:outpost_guilds_ux1;column:name" json:"name"`
	Description       string    `gorm:"type:varchar(500);not null;default:'';column:description" json:"description"`
	IsBanned          bool      `gorm:"not null;default:false;column:is_banned" json:"is_banned"`
	IsPrivate         bool      `gorm:"not null;default:false;column:is_private" json:"is_private"`
	RestrictedPosting bool      `gorm:"not null;default:false;column:restricted_posting" json:"restricted_posting"`
	Over18            bool      `gorm:"not null;default:false;column:over_18" json:"over_18"`
	Subscribers       int64     `gorm:"not null;default:0;column:subscribers" json:"subscribers"`
	CreatedAt         time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for Guild
func (Guild) TableName() string {
	return "outpost_guilds"
}

// DefaultGuildName is the fallback guild for submissions that name no
// guild, or name one that does not exist.
const DefaultGuildName = "general"

// GuildBan records a user exiled from a guild
type GuildBan struct {
	GuildID   int64     `gorm:"primaryKey;column:guild_id"`
	UserID    int64     `gorm:"primaryKey;column:user_id"`
	Reason    string    `gorm:"type:varchar(256);not null;default:'';column:reason"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Guild *Guild `gorm:"foreignKey:GuildID;references:ID"`
	User  *User  `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for GuildBan
func (GuildBan) TableName() string {
	return "outpost_guild_bans"
}

// GuildContributor records an approved contributor of a restricted or
// private guild
type GuildContributor struct {
	GuildID   int64     `gorm:"primaryKey;column:guild_id"`
	UserID    int64     `gorm:"primaryKey;column:user_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Guild *Guild `gorm:"foreignKey:GuildID;references:ID"`
	User  *User  `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for GuildContributor
func (GuildContributor) TableName() string {
	return "outpost_guild_contributors"
}

// GuildModerator records a moderator of a guild. Moderators can always
// submit, regardless of posting restrictions.
type GuildModerator struct {
	GuildID   int64     `gorm:"primaryKey;column:guild_id"`
	UserID    int64     `gorm:"primaryKey;column:user_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Guild *Guild `gorm:"foreignKey:GuildID;references:ID"`
	User  *User  `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for GuildModerator
func (GuildModerator) TableName() string {
	return "outpost_guild_moderators"
}
