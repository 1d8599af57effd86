package services

import (
	courseModels "aprendimoz/models/course"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollFreeCourse(t *testing.T) {
	db, _, enrollments := newTestServices(t, &fakeGateway{})

	user := createTestUser(t, db, "amina@test.mz")
	course, _ := createPublishedCourse(t, db, 0, 3)

	enrollment, err := enrollments.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	assert.Equal(t, courseModels.EnrollmentActive, enrollment.Status)
	assert.Zero(t, enrollment.Progress)
	assert.Empty(t, enrollment.CompletedLessonIDs())

	var updatedCourse courseModels.Course
	require.NoError(t, db.First(&updatedCourse, course.ID).Error)
	assert.Equal(t, 1, updatedCourse.EnrollmentCount)
}

func TestEnrollUnpublishedCourse(t *testing.T) {
	db, _, enrollments := newTestServices(t, &fakeGateway{})

	user := createTestUser(t, db, "amina@test.mz")
	course, _ := createPublishedCourse(t, db, 0, 3)
	require.NoError(t, db.Model(course).UpdateColumn("status", courseModels.StatusDraft).Error)

	_, err := enrollments.Enroll(user.ID, course.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotAvailable))
}

func TestDoubleEnrollRejected(t *testing.T) {
	db, _, enrollments := newTestServices(t, &fakeGateway{})

	user := createTestUser(t, db, "amina@test.mz")
	course, _ := createPublishedCourse(t, db, 0, 3)

	_, err := enrollments.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	_, err = enrollments.Enroll(user.ID, course.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyEnrolled))

	var count int64
	db.Model(&courseModels.Enrollment{}).Where("user_id = ?", user.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestEnrollDuplicateKeyMapsToAlreadyEnrolled(t *testing.T) {
	db, _, enrollments := newTestServices(t, &fakeGateway{})

	user := createTestUser(t, db, "amina@test.mz")
	course, _ := createPublishedCourse(t, db, 0, 3)

	_, err := enrollments.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	// a concurrent enroll that loses the unique index race surfaces the raw
	// driver error; it must be recognized as a duplicate
	dup := courseModels.Enrollment{
		UserID:   user.ID,
		CourseID: course.ID,
		Status:   courseModels.EnrollmentActive,
	}
	dup.SetCompletedLessonIDs([]uint{})
	err = db.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, isDuplicateKey(err))
	assert.False(t, isDuplicateKey(errors.New("connection reset")))
}

func TestEnrollPaidCourseRequiresPayment(t *testing.T) {
	db, _, enrollments := newTestServices(t, &fakeGateway{})

	user := createTestUser(t, db, "amina@test.mz")
	course, _ := createPublishedCourse(t, db, 1500, 3)

	_, err := enrollments.Enroll(user.ID, course.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestProgressPercentageAndCompletion(t *testing.T) {
	db, _, enrollments := newTestServices(t, &fakeGateway{})

	user := createTestUser(t, db, "amina@test.mz")
	// 5 lessons split over 2 modules
	course, lessons := createPublishedCourse(t, db, 0, 3, 2)
	require.Len(t, lessons, 5)

	enrollment, err := enrollments.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	// 2 of 5 lessons is 40%
	for _, id := range lessons[:2] {
		enrollment, err = enrollments.UpdateProgress(enrollment.ID, user.ID, ProgressInput{LessonID: id})
		require.NoError(t, err)
	}
	assert.InDelta(t, 40.0, enrollment.Progress, 0.001)
	assert.Equal(t, courseModels.EnrollmentActive, enrollment.Status)

	// repeating a lesson changes nothing
	enrollment, err = enrollments.UpdateProgress(enrollment.ID, user.ID, ProgressInput{LessonID: lessons[0]})
	require.NoError(t, err)
	assert.InDelta(t, 40.0, enrollment.Progress, 0.001)
	assert.Len(t, enrollment.CompletedLessonIDs(), 2)

	// 3 of 5 is 60%
	enrollment, err = enrollments.UpdateProgress(enrollment.ID, user.ID, ProgressInput{LessonID: lessons[2]})
	require.NoError(t, err)
	assert.InDelta(t, 60.0, enrollment.Progress, 0.001)

	// finishing the rest completes the enrollment and queues a certificate
	for _, id := range lessons[3:] {
		enrollment, err = enrollments.UpdateProgress(enrollment.ID, user.ID, ProgressInput{LessonID: id})
		require.NoError(t, err)
	}
	assert.InDelta(t, 100.0, enrollment.Progress, 0.001)
	assert.Equal(t, courseModels.EnrollmentCompleted, enrollment.Status)
	require.NotNil(t, enrollment.CompletedAt)
	completedAt := *enrollment.CompletedAt

	var jobs []courseModels.CertificateJob
	require.NoError(t, db.Where("enrollment_id = ?", enrollment.ID).Find(&jobs).Error)
	require.Len(t, jobs, 1)
	assert.Equal(t, courseModels.CertJobPending, jobs[0].Status)

	// a further progress event does not move the completion timestamp or
	// queue a second certificate
	enrollment, err = enrollments.UpdateProgress(enrollment.ID, user.ID, ProgressInput{LessonID: lessons[0]})
	require.NoError(t, err)
	require.NotNil(t, enrollment.CompletedAt)
	assert.True(t, enrollment.CompletedAt.Equal(completedAt))

	require.NoError(t, db.Where("enrollment_id = ?", enrollment.ID).Find(&jobs).Error)
	assert.Len(t, jobs, 1)
}

func TestProgressRejectsForeignLesson(t *testing.T) {
	db, _, enrollments := newTestServices(t, &fakeGateway{})

	user := createTestUser(t, db, "amina@test.mz")
	course, _ := createPublishedCourse(t, db, 0, 2)
	_, otherLessons := createPublishedCourse(t, db, 0, 2)

	enrollment, err := enrollments.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	_, err = enrollments.UpdateProgress(enrollment.ID, user.ID, ProgressInput{LessonID: otherLessons[0]})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProgressRejectedAfterDrop(t *testing.T) {
	db, _, enrollments := newTestServices(t, &fakeGateway{})

	user := createTestUser(t, db, "amina@test.mz")
	course, lessons := createPublishedCourse(t, db, 0, 3)

	enrollment, err := enrollments.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	_, err = enrollments.Drop(enrollment.ID, user.ID)
	require.NoError(t, err)

	_, err = enrollments.UpdateProgress(enrollment.ID, user.ID, ProgressInput{LessonID: lessons[0]})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestPauseResumeDropTransitions(t *testing.T) {
	db, _, enrollments := newTestServices(t, &fakeGateway{})

	user := createTestUser(t, db, "amina@test.mz")
	course, _ := createPublishedCourse(t, db, 0, 3)

	enrollment, err := enrollments.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	// resume only applies to paused enrollments
	_, err = enrollments.Resume(enrollment.ID, user.ID)
	assert.True(t, errors.Is(err, ErrInvalidState))

	paused, err := enrollments.Pause(enrollment.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.EnrollmentPaused, paused.Status)

	// pausing twice is invalid
	_, err = enrollments.Pause(enrollment.ID, user.ID)
	assert.True(t, errors.Is(err, ErrInvalidState))

	resumed, err := enrollments.Resume(enrollment.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.EnrollmentActive, resumed.Status)

	dropped, err := enrollments.Drop(enrollment.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.EnrollmentDropped, dropped.Status)

	// dropped is terminal
	_, err = enrollments.Resume(enrollment.ID, user.ID)
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestLessonAccessRules(t *testing.T) {
	db, _, enrollments := newTestServices(t, &fakeGateway{})

	user := createTestUser(t, db, "amina@test.mz")
	stranger := createTestUser(t, db, "carlos@test.mz")
	course, lessons := createPublishedCourse(t, db, 0, 3)

	// mark the first lesson as preview
	require.NoError(t, db.Model(&courseModels.Lesson{}).Where("id = ?", lessons[0]).
		UpdateColumn("is_preview", true).Error)

	// preview is public
	lesson, err := enrollments.GetLesson(lessons[0], nil)
	require.NoError(t, err)
	assert.True(t, lesson.IsPreview)

	// non-preview needs an account
	_, err = enrollments.GetLesson(lessons[1], nil)
	assert.True(t, errors.Is(err, ErrForbidden))

	// and an enrollment
	_, err = enrollments.GetLesson(lessons[1], &stranger.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	enrollment, err := enrollments.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	_, err = enrollments.GetLesson(lessons[1], &user.ID)
	require.NoError(t, err)

	// paused enrollments lose access until resumed
	_, err = enrollments.Pause(enrollment.ID, user.ID)
	require.NoError(t, err)
	_, err = enrollments.GetLesson(lessons[1], &user.ID)
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestRecommendedFallsBackToPopular(t *testing.T) {
	db, _, enrollments := newTestServices(t, &fakeGateway{})

	user := createTestUser(t, db, "amina@test.mz")
	popular, _ := createPublishedCourse(t, db, 0, 1)
	require.NoError(t, db.Model(popular).UpdateColumn("enrollment_count", 50).Error)

	courses, err := enrollments.Recommended(user.ID, 5)
	require.NoError(t, err)
	require.NotEmpty(t, courses)
	assert.Equal(t, popular.ID, courses[0].ID)
}

func TestRecommendedUsesEnrolledCategories(t *testing.T) {
	db, _, enrollments := newTestServices(t, &fakeGateway{})

	user := createTestUser(t, db, "amina@test.mz")
	enrolled, _ := createPublishedCourse(t, db, 0, 1)

	sameCategory := &courseModels.Course{
		InstructorID: 999,
		Title:        "Estruturas de Dados",
		Description:  "Curso de teste",
		Category:     "tecnologia",
		Currency:     "MZN",
		Status:       courseModels.StatusPublished,
		Rating:       4.8,
	}
	require.NoError(t, db.Create(sameCategory).Error)

	otherCategory := &courseModels.Course{
		InstructorID: 999,
		Title:        "Gestao Financeira",
		Description:  "Curso de teste",
		Category:     "negocios",
		Currency:     "MZN",
		Status:       courseModels.StatusPublished,
		Rating:       5.0,
	}
	require.NoError(t, db.Create(otherCategory).Error)

	_, err := enrollments.Enroll(user.ID, enrolled.ID)
	require.NoError(t, err)

	courses, err := enrollments.Recommended(user.ID, 5)
	require.NoError(t, err)

	for _, c := range courses {
		assert.Equal(t, "tecnologia", c.Category)
	}
}
