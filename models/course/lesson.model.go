package course

import "gorm.io/gorm"

// Lesson types
const (
	LessonTypeVideo      = "video"
	LessonTypeText       = "text"
	LessonTypePDF        = "pdf"
	LessonTypeQuiz       = "quiz"
	LessonTypeAssignment = "assignment"
)

// Lesson is a single unit of content within a module
type Lesson struct {
	gorm.Model
	ModuleID    uint   `json:"module_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Description string `json:"description" gorm:"type:text"`
	Type        string `json:"type" gorm:"default:'video'"`
	Content     string `json:"content" gorm:"type:text"` // text/quiz body
	VideoURL    string `json:"video_url"`
	PdfURL      string `json:"pdf_url"`
	Duration    int    `json:"duration" gorm:"default:0"` // in minutes
	OrderIndex  int    `json:"order_index" gorm:"default:0"`
	// IsPreview marks lessons viewable without an enrollment
	IsPreview bool `json:"is_preview" gorm:"default:false"`
	IsDeleted bool `gorm:"default:false" json:"-"`
}
