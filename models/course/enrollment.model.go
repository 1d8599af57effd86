package course

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Enrollment statuses. Only active -> completed happens automatically,
// driven by progress reaching 100. Pause/resume/drop are explicit actions.
const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentDropped   = "dropped"
	EnrollmentPaused    = "paused"
)

// Enrollment tracks a user's access grant and progress for a course.
// At most one row exists per (user, course) pair.
type Enrollment struct {
	gorm.Model
	UserID   uint `json:"user_id" gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	CourseID uint `json:"course_id" gorm:"uniqueIndex:idx_enrollment_user_course;not null"`

	Status   string  `json:"status" gorm:"default:'active';index"`
	Progress float64 `json:"progress" gorm:"default:0"` // 0-100

	// CompletedLessons is a JSON array of lesson ids, kept as a set:
	// completing the same lesson twice has no effect on progress.
	CompletedLessons datatypes.JSON `json:"completed_lessons"`
	CurrentLessonID  *uint          `json:"current_lesson_id"`
	TimeSpent        int            `json:"time_spent" gorm:"default:0"`    // in minutes
	LastPosition     int            `json:"last_position" gorm:"default:0"` // video position in seconds

	AmountPaid float64 `json:"amount_paid" gorm:"default:0"` // snapshot of catalog price at enrollment
	Currency   string  `json:"currency" gorm:"default:'MZN'"`

	PaymentID     *uint `json:"payment_id" gorm:"index"`
	CertificateID *uint `json:"certificate_id"`

	EnrolledAt     time.Time  `json:"enrolled_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at"`

	IsDeleted bool `gorm:"default:false" json:"-"`
}

// CompletedLessonIDs decodes the completed-lesson set
func (e *Enrollment) CompletedLessonIDs() []uint {
	var ids []uint
	if len(e.CompletedLessons) == 0 {
		return ids
	}
	if err := json.Unmarshal(e.CompletedLessons, &ids); err != nil {
		return nil
	}
	return ids
}

// SetCompletedLessonIDs encodes the completed-lesson set
func (e *Enrollment) SetCompletedLessonIDs(ids []uint) {
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	e.CompletedLessons = datatypes.JSON(raw)
}

// HasCompletedLesson reports set membership for a lesson id
func (e *Enrollment) HasCompletedLesson(lessonID uint) bool {
	for _, id := range e.CompletedLessonIDs() {
		if id == lessonID {
			return true
		}
	}
	return false
}

// IsActive reports whether the enrollment currently grants content access
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentActive
}

// IsCompleted reports whether the course was finished
func (e *Enrollment) IsCompleted() bool {
	return e.Status == EnrollmentCompleted
}

// CanAccessCertificate reports whether certificate issuance is allowed
func (e *Enrollment) CanAccessCertificate() bool {
	return e.IsCompleted() && e.Progress >= 100
}
