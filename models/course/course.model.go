package course

import "gorm.io/gorm"

// Course statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Course levels
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Course represents a published learning course in the catalog
type Course struct {
	gorm.Model
	InstructorID uint    `json:"instructor_id" gorm:"index;not null"`
	Title        string  `json:"title"`
	Description  string  `json:"description" gorm:"type:text"`
	Category     string  `json:"category" gorm:"index"`
	Level        string  `json:"level" gorm:"default:'beginner'"`
	Tags         string  `json:"tags"` // comma separated
	Thumbnail    string  `json:"thumbnail"`
	Price        float64 `json:"price" gorm:"default:0"`
	Currency     string  `json:"currency" gorm:"default:'MZN'"`
	Status       string  `json:"status" gorm:"default:'draft';index"`
	Duration     int     `json:"duration" gorm:"default:0"` // in minutes
	Rating       float64 `json:"rating" gorm:"default:0"`
	ReviewCount  int     `json:"review_count" gorm:"default:0"`
	// EnrollmentCount is denormalized for popularity ranking
	EnrollmentCount int    `json:"enrollment_count" gorm:"default:0"`
	IsCertified     bool   `json:"is_certified" gorm:"default:false"`
	Requirements    string `json:"requirements" gorm:"type:text"`
	WhatYouLearn    string `json:"what_you_learn" gorm:"type:text"`
	IsDeleted       bool   `gorm:"default:false" json:"-"`
}

// IsFree reports whether the course can be enrolled without payment
func (c *Course) IsFree() bool {
	return c.Price == 0
}
