package models

import (
	"database/sql"
	"strconv"
	"time"
)

// Submission represents a persisted post. It is immutable after creation
// except for moderation flags and enrichment fields written by background
// workers. PostPublic is the negation of the guild's privacy at creation
// time and is never recomputed.
type Submission struct {
	ID              int64         `gorm:"primaryKey;autoIncrement;column:id"`
	AuthorID        int64         `gorm:"not null;index;column:author_id"`
	GuildID         int64         `gorm:"not null;index;column:guild_id"`
	OriginalGuildID int64         `gorm:"not null;column:original_guild_id"`
	DomainID        sql.NullInt64 `gorm:"column:domain_id"`
	RepostID        sql.NullInt64 `gorm:"column:repost_id"`
	Over18          bool          `gorm:"not null;default:false;column:over_18"`
	PostPublic      bool          `gorm:"not null;default:true;column:post_public"`
	IsOffensive     bool          `gorm:"not null;default:false;column:is_offensive"`
	IsDeleted       bool          `gorm:"not null;default:false;column:is_deleted"`
	IsBanned        bool          `gorm:"not null;default:false;column:is_banned"`
	CreatedAt       time.Time     `gorm:"not null;column:created_at"`

	// Relationships
	Author  *User              `gorm:"foreignKey:AuthorID;references:ID"`
	Guild   *Guild             `gorm:"foreignKey:GuildID;references:ID"`
	Content *SubmissionContent `gorm:"foreignKey:SubmissionID;references:ID"`
}

// TableName specifies the table name for Submission
func (Submission) TableName() string {
	return "outpost_submissions"
}

// PublicID returns the base36 identifier used in permalinks and as the
// key for background enrichment jobs.
func (s *Submission) PublicID() string {
	return strconv.FormatInt(s.ID, 36)
}

// Permalink returns the canonical path of the submission.
func (s *Submission) Permalink() string {
	return "/post/" + s.PublicID()
}

// SubmissionContent is the 1:1 extension of a Submission, sharing its
// identity. Created atomically with the submission row.
type SubmissionContent struct {
	SubmissionID int64  `gorm:"primaryKey;column:submission_id"`
	Title        string `gorm:"type:varchar(500);not null;column:title"`
	URL          string `gorm:"type:varchar(2048);not null;default:'';column:url"`
	Body         string `gorm:"type:text;not null;default:'';column:body"`
	BodyHTML     string `gorm:"type:text;not null;default:'';column:body_html"`
	EmbedURL     string `gorm:"type:varchar(2048);not null;default:'';column:embed_url"`
	ThumbnailURL string `gorm:"type:varchar(2048);not null;default:'';column:thumbnail_url"`
}

// TableName specifies the table name for SubmissionContent
func (SubmissionContent) TableName() string {
	return "outpost_submission_contents"
}

// Vote records a user's vote on a submission. The author's initial +1 is
// inserted in the same transaction as the submission itself.
type Vote struct {
	ID           int64     `gorm:"primaryKey;autoIncrement;column:id"`
	UserID       int64     `gorm:"not null;index;column:user_id"`
	SubmissionID int64     `gorm:"not null;index;column:submission_id"`
	Value        int16     `gorm:"type:smallint;not null;column:value"`
	CreatedAt    time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Vote
func (Vote) TableName() string {
	return "outpost_votes"
}
