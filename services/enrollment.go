package services

import (
	"aprendimoz/models"
	courseModels "aprendimoz/models/course"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
)

// EnrollmentService gates content access behind enrollments, keeps the
// progress percentage consistent, and drives the completion transition
// exactly once.
type EnrollmentService struct {
	db *gorm.DB
}

func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

// Enroll creates an active enrollment for a published course. Paid courses
// require a completed payment by the same user; free courses enroll
// directly.
func (s *EnrollmentService) Enroll(userID, courseID uint) (*courseModels.Enrollment, error) {
	var course courseModels.Course
	if err := s.db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: course %d", ErrNotFound, courseID)
		}
		return nil, err
	}

	if course.Status != courseModels.StatusPublished {
		return nil, fmt.Errorf("%w: course %d is %s", ErrNotAvailable, courseID, course.Status)
	}

	var existing courseModels.Enrollment
	if err := s.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: course %d", ErrAlreadyEnrolled, courseID)
	}

	var paymentID *uint
	if !course.IsFree() {
		var payment models.Payment
		err := s.db.Where("user_id = ? AND course_id = ? AND status = ?",
			userID, courseID, models.PaymentStatusCompleted).First(&payment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: course %d requires payment", ErrForbidden, courseID)
			}
			return nil, err
		}
		paymentID = &payment.ID
	}

	enrollment := courseModels.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Status:     courseModels.EnrollmentActive,
		Progress:   0,
		AmountPaid: course.Price,
		Currency:   course.Currency,
		PaymentID:  paymentID,
		EnrolledAt: time.Now(),
	}
	enrollment.SetCompletedLessonIDs([]uint{})

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&enrollment).Error; err != nil {
			// a concurrent enroll may win the unique index race
			if isDuplicateKey(err) {
				return fmt.Errorf("%w: course %d", ErrAlreadyEnrolled, courseID)
			}
			return err
		}
		return tx.Model(&course).UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	return &enrollment, nil
}

// isDuplicateKey reports whether err is a unique constraint violation. GORM
// only translates these with TranslateError enabled, so the driver messages
// are matched as well.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

// GrantFromPayment creates the enrollment for a just-completed payment,
// inside the caller's transaction. A pre-existing enrollment makes this a
// no-op so callback replays cannot double-enroll.
func (s *EnrollmentService) GrantFromPayment(tx *gorm.DB, payment *models.Payment) error {
	courseID := uint(0)
	switch {
	case payment.CourseID != nil:
		courseID = *payment.CourseID
	case payment.ModuleID != nil:
		var module courseModels.Module
		if err := tx.Where("id = ?", *payment.ModuleID).First(&module).Error; err != nil {
			return err
		}
		courseID = module.CourseID
	default:
		// wallet top-up, nothing to grant
		return nil
	}

	var existing courseModels.Enrollment
	if err := tx.Where("user_id = ? AND course_id = ?", payment.UserID, courseID).First(&existing).Error; err == nil {
		log.Printf("[ENROLLMENT] User %d already enrolled in course %d, payment %s linked nothing",
			payment.UserID, courseID, payment.TransactionID)
		return nil
	}

	enrollment := courseModels.Enrollment{
		UserID:     payment.UserID,
		CourseID:   courseID,
		Status:     courseModels.EnrollmentActive,
		Progress:   0,
		AmountPaid: payment.Amount,
		Currency:   payment.Currency,
		PaymentID:  &payment.ID,
		EnrolledAt: time.Now(),
	}
	enrollment.SetCompletedLessonIDs([]uint{})

	if err := tx.Create(&enrollment).Error; err != nil {
		return err
	}
	return tx.Model(&courseModels.Course{}).Where("id = ?", courseID).
		UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + 1")).Error
}

// ProgressInput is a single learning event
type ProgressInput struct {
	LessonID        uint
	CurrentLessonID *uint
	TimeSpentDelta  int // minutes
	Position        *int
}

// UpdateProgress records a completed lesson and recomputes the progress
// percentage. Completing the same lesson twice has no effect; reaching 100%
// transitions the enrollment to completed exactly once and queues
// certificate issuance in the same transaction.
func (s *EnrollmentService) UpdateProgress(enrollmentID, userID uint, input ProgressInput) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("id = ? AND user_id = ?", enrollmentID, userID).First(&enrollment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: enrollment %d", ErrNotFound, enrollmentID)
			}
			return err
		}

		if enrollment.Status == courseModels.EnrollmentDropped {
			return fmt.Errorf("%w: enrollment %d was dropped", ErrInvalidState, enrollmentID)
		}

		// the lesson must belong to the enrollment's course
		var lessonCount int64
		tx.Model(&courseModels.Lesson{}).
			Joins("JOIN modules ON modules.id = lessons.module_id").
			Where("lessons.id = ? AND modules.course_id = ? AND lessons.is_deleted = ?", input.LessonID, enrollment.CourseID, false).
			Count(&lessonCount)
		if lessonCount == 0 {
			return fmt.Errorf("%w: lesson %d in course %d", ErrNotFound, input.LessonID, enrollment.CourseID)
		}

		completed := enrollment.CompletedLessonIDs()
		if !enrollment.HasCompletedLesson(input.LessonID) {
			completed = append(completed, input.LessonID)
			enrollment.SetCompletedLessonIDs(completed)
		}

		if input.CurrentLessonID != nil {
			enrollment.CurrentLessonID = input.CurrentLessonID
		}
		if input.TimeSpentDelta > 0 {
			enrollment.TimeSpent += input.TimeSpentDelta
		}
		if input.Position != nil {
			enrollment.LastPosition = *input.Position
		}

		var totalLessons int64
		tx.Model(&courseModels.Lesson{}).
			Joins("JOIN modules ON modules.id = lessons.module_id").
			Where("modules.course_id = ? AND modules.is_deleted = ? AND lessons.is_deleted = ?", enrollment.CourseID, false, false).
			Count(&totalLessons)

		if totalLessons > 0 {
			enrollment.Progress = float64(len(completed)) / float64(totalLessons) * 100
			if enrollment.Progress > 100 {
				enrollment.Progress = 100
			}
		}

		if enrollment.Progress >= 100 && enrollment.Status != courseModels.EnrollmentCompleted {
			completedAt := time.Now()
			enrollment.Status = courseModels.EnrollmentCompleted
			enrollment.CompletedAt = &completedAt

			// queue certificate issuance; the worker picks it up out of band
			job := courseModels.CertificateJob{
				EnrollmentID: enrollment.ID,
				Status:       courseModels.CertJobPending,
				NextRunAt:    time.Now(),
			}
			if err := tx.Create(&job).Error; err != nil {
				return err
			}
		}

		lastAccessed := time.Now()
		enrollment.LastAccessedAt = &lastAccessed

		return tx.Save(&enrollment).Error
	})
	if err != nil {
		return nil, err
	}

	return &enrollment, nil
}

// Get returns an enrollment owned by the user
func (s *EnrollmentService) Get(enrollmentID, userID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := s.db.Where("id = ? AND user_id = ?", enrollmentID, userID).First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: enrollment %d", ErrNotFound, enrollmentID)
		}
		return nil, err
	}
	return &enrollment, nil
}

// ListForUser returns the user's enrollments, most recent first
func (s *EnrollmentService) ListForUser(userID uint) ([]courseModels.Enrollment, error) {
	var enrollments []courseModels.Enrollment
	if err := s.db.Where("user_id = ?", userID).Order("enrolled_at DESC").Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

// Pause suspends an active enrollment
func (s *EnrollmentService) Pause(enrollmentID, userID uint) (*courseModels.Enrollment, error) {
	return s.transition(enrollmentID, userID, courseModels.EnrollmentPaused, courseModels.EnrollmentActive)
}

// Resume reactivates a paused enrollment
func (s *EnrollmentService) Resume(enrollmentID, userID uint) (*courseModels.Enrollment, error) {
	return s.transition(enrollmentID, userID, courseModels.EnrollmentActive, courseModels.EnrollmentPaused)
}

// Drop abandons an enrollment. Dropped is terminal.
func (s *EnrollmentService) Drop(enrollmentID, userID uint) (*courseModels.Enrollment, error) {
	return s.transition(enrollmentID, userID, courseModels.EnrollmentDropped,
		courseModels.EnrollmentActive, courseModels.EnrollmentPaused)
}

func (s *EnrollmentService) transition(enrollmentID, userID uint, to string, from ...string) (*courseModels.Enrollment, error) {
	enrollment, err := s.Get(enrollmentID, userID)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, f := range from {
		if enrollment.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: cannot move enrollment %d from %s to %s", ErrInvalidState, enrollmentID, enrollment.Status, to)
	}

	enrollment.Status = to
	if err := s.db.Save(enrollment).Error; err != nil {
		return nil, err
	}
	return enrollment, nil
}

// GetLesson fetches a lesson, enforcing the preview/enrollment access rule.
// Anonymous callers (userID == nil) only ever see preview lessons.
func (s *EnrollmentService) GetLesson(lessonID uint, userID *uint) (*courseModels.Lesson, error) {
	var lesson courseModels.Lesson
	if err := s.db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: lesson %d", ErrNotFound, lessonID)
		}
		return nil, err
	}

	if lesson.IsPreview {
		return &lesson, nil
	}
	if userID == nil {
		return nil, fmt.Errorf("%w: lesson %d is not available for preview", ErrForbidden, lessonID)
	}

	var module courseModels.Module
	if err := s.db.Where("id = ?", lesson.ModuleID).First(&module).Error; err != nil {
		return nil, err
	}

	var enrollment courseModels.Enrollment
	err := s.db.Where("user_id = ? AND course_id = ? AND status IN ?",
		*userID, module.CourseID,
		[]string{courseModels.EnrollmentActive, courseModels.EnrollmentCompleted}).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: enroll in the course to access this lesson", ErrForbidden)
		}
		return nil, err
	}

	return &lesson, nil
}

// Popular ranks published courses by enrollment volume, then rating
func (s *EnrollmentService) Popular(limit int) ([]courseModels.Course, error) {
	if limit < 1 {
		limit = 10
	}
	var courses []courseModels.Course
	err := s.db.Where("status = ? AND is_deleted = ?", courseModels.StatusPublished, false).
		Order("enrollment_count DESC, rating DESC").
		Limit(limit).
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// Recommended suggests published courses from the categories the user already
// studies, rating-ranked. Users with no enrollments get the popular list.
func (s *EnrollmentService) Recommended(userID uint, limit int) ([]courseModels.Course, error) {
	if limit < 1 {
		limit = 5
	}

	var categories []string
	err := s.db.Model(&courseModels.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("enrollments.user_id = ?", userID).
		Distinct().
		Pluck("courses.category", &categories).Error
	if err != nil {
		return nil, err
	}

	cleaned := categories[:0]
	for _, c := range categories {
		if strings.TrimSpace(c) != "" {
			cleaned = append(cleaned, c)
		}
	}

	if len(cleaned) == 0 {
		return s.Popular(limit)
	}

	var courses []courseModels.Course
	err = s.db.Where("status = ? AND is_deleted = ? AND category IN ?",
		courseModels.StatusPublished, false, cleaned).
		Order("rating DESC").
		Limit(limit).
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}
