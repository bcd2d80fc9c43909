package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review holds a single user's verdict on a title. The composite unique
// index is the source of truth for the one-review-per-author rule; the
// service layer only translates the violation, it never pre-checks.
type Review struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	Score    int       `gorm:"not null;check:score >= 1 AND score <= 10" json:"score"`
	TitleID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_title_author" json:"-"`
	Title    Title     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_title_author" json:"-"`
	Author   User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PubDate  time.Time `gorm:"autoCreateTime" json:"pub_date"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}

type Comment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	ReviewID uuid.UUID `gorm:"type:uuid;not null" json:"-"`
	Review   Review    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null" json:"-"`
	Author   User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PubDate  time.Time `gorm:"autoCreateTime;index" json:"pub_date"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}
