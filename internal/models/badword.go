package models

// BadWord is a disallowed-term row. Pattern is a regular expression
// matched case-insensitively against submitted titles and bodies. A match
// flags the submission as offensive; it never blocks it.
type BadWord struct {
	ID      int64  `gorm:"primaryKey;autoIncrement;column:id"`
	Pattern string `gorm:"type:varchar(256);not null;column:pattern"`
}

// TableName specifies the table name for BadWord
func (BadWord) TableName() string {
	return "outpost_badwords"
}
