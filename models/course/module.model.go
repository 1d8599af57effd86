package course

import "gorm.io/gorm"

// Module represents a section within a course. Modules can optionally be
// purchased individually.
type Module struct {
	gorm.Model
	CourseID    uint    `json:"course_id" gorm:"index;not null"`
	Title       string  `json:"title"`
	Description string  `json:"description" gorm:"type:text"`
	OrderIndex  int     `json:"order_index" gorm:"default:0"`
	Duration    int     `json:"duration" gorm:"default:0"` // in minutes
	Price       float64 `json:"price" gorm:"default:0"`
	IsFree      bool    `json:"is_free" gorm:"default:false"`
	IsDeleted   bool    `gorm:"default:false" json:"-"`
}
