package model

import "time"

type ContentRecord struct {
	RecordID       string    `gorm:"column:record_id;type:text;primaryKey"`
	Kind           string    `gorm:"column:kind;type:text;not null;index"`
	AuthorID       string    `gorm:"column:author_id;type:text;not null;index"`
	AuthorName     string    `gorm:"column:author_name;type:text;not null;default:''"`
	Body           string    `gorm:"column:body;type:text;not null"`
	SubmittedAt    time.Time `gorm:"column:submitted_at;not null"`
	Status         string    `gorm:"column:status;type:text;not null;index"`
	QualityScore   int       `gorm:"column:quality_score;not null"`
	SpamScore      int       `gorm:"column:spam_score;not null"`
	ModeratorNotes string    `gorm:"column:moderator_notes;type:text;not null;default:''"`
	Version        uint64    `gorm:"column:version;not null;default:0"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null"`
}

func (ContentRecord) TableName() string {
	return "content_records"
}
