package models

import (
	"strconv"
	"time"
)

// Comment represents a comment on a submission. Comment creation is
// handled elsewhere; this service only serves comment lookups, which share
// the parent submission's visibility rules.
type Comment struct {
	ID           int64     `gorm:"primaryKey;autoIncrement;column:id"`
	SubmissionID int64     `gorm:"not null;index;column:submission_id"`
	AuthorID     int64     `gorm:"not null;index;column:author_id"`
	Body         string    `gorm:"type:text;not null;default:'';column:body"`
	BodyHTML     string    `gorm:"type:text;not null;default:'';column:body_html"`
	IsDeleted    bool      `gorm:"not null;default:false;column:is_deleted"`
	CreatedAt    time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Author     *User       `gorm:"foreignKey:AuthorID;references:ID"`
	Submission *Submission `gorm:"foreignKey:SubmissionID;references:ID"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "outpost_comments"
}

// PublicID returns the base36 identifier of the comment.
func (c *Comment) PublicID() string {
	return strconv.FormatInt(c.ID, 36)
}
