package services

import (
	courseModels "aprendimoz/models/course"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCertificateFixture(t *testing.T) (*gorm.DB, *EnrollmentService, *CertificateService, string) {
	t.Helper()

	db := setupTestDB(t)
	certDir := t.TempDir()
	enrollments := NewEnrollmentService(db)
	certificates := NewCertificateService(db, "https://aprendimoz.test", certDir)
	return db, enrollments, certificates, certDir
}

func completeEnrollment(t *testing.T, db *gorm.DB, enrollments *EnrollmentService, userID uint) *courseModels.Enrollment {
	t.Helper()

	course, lessons := createPublishedCourse(t, db, 0, 2)
	enrollment, err := enrollments.Enroll(userID, course.ID)
	require.NoError(t, err)

	for _, id := range lessons {
		enrollment, err = enrollments.UpdateProgress(enrollment.ID, userID, ProgressInput{LessonID: id})
		require.NoError(t, err)
	}
	require.Equal(t, courseModels.EnrollmentCompleted, enrollment.Status)
	return enrollment
}

func TestGenerateRequiresCompletedCourse(t *testing.T) {
	db, enrollments, certificates, _ := newCertificateFixture(t)

	user := createTestUser(t, db, "amina@test.mz")
	course, _ := createPublishedCourse(t, db, 0, 3)
	enrollment, err := enrollments.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	_, err = certificates.Generate(enrollment.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestGenerateIssuesCertificate(t *testing.T) {
	db, enrollments, certificates, certDir := newCertificateFixture(t)

	user := createTestUser(t, db, "amina@test.mz")
	enrollment := completeEnrollment(t, db, enrollments, user.ID)

	var notified int
	certificates.Notifier = func(email, name string, cert *courseModels.Certificate) {
		notified++
		assert.Equal(t, user.Email, email)
	}

	cert, err := certificates.Generate(enrollment.ID)
	require.NoError(t, err)

	assert.Len(t, cert.VerificationCode, 16)
	assert.Equal(t, strings.ToUpper(cert.VerificationCode), cert.VerificationCode)
	assert.True(t, strings.HasPrefix(cert.QRCode, "data:image/png;base64,"))
	assert.Equal(t, "/certificates/"+cert.VerificationCode+".pdf", cert.CertificateURL)
	assert.Equal(t, "AprendiMoz", cert.IssuerName)
	assert.Equal(t, 1, notified)

	// the PDF was written next to the static root
	_, err = os.Stat(filepath.Join(certDir, cert.VerificationCode+".pdf"))
	require.NoError(t, err)

	// the enrollment now points at the certificate
	var fresh courseModels.Enrollment
	require.NoError(t, db.First(&fresh, enrollment.ID).Error)
	require.NotNil(t, fresh.CertificateID)
	assert.Equal(t, cert.ID, *fresh.CertificateID)
}

func TestGenerateIsIdempotent(t *testing.T) {
	db, enrollments, certificates, _ := newCertificateFixture(t)

	user := createTestUser(t, db, "amina@test.mz")
	enrollment := completeEnrollment(t, db, enrollments, user.ID)

	first, err := certificates.Generate(enrollment.ID)
	require.NoError(t, err)

	second, err := certificates.Generate(enrollment.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.VerificationCode, second.VerificationCode)

	var count int64
	db.Model(&courseModels.Certificate{}).Where("user_id = ?", user.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestVerifyCertificate(t *testing.T) {
	db, enrollments, certificates, _ := newCertificateFixture(t)

	user := createTestUser(t, db, "amina@test.mz")
	enrollment := completeEnrollment(t, db, enrollments, user.ID)

	cert, err := certificates.Generate(enrollment.ID)
	require.NoError(t, err)

	found, err := certificates.Verify(cert.VerificationCode)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, found.ID)

	// lookups are case and whitespace tolerant
	found, err = certificates.Verify("  " + strings.ToLower(cert.VerificationCode) + " ")
	require.NoError(t, err)
	assert.Equal(t, cert.ID, found.ID)

	_, err = certificates.Verify("UNKNOWNCODE00000")
	assert.True(t, errors.Is(err, ErrNotFound))

	// revoked certificates verify as not found
	require.NoError(t, db.Model(cert).UpdateColumn("is_revoked", true).Error)
	_, err = certificates.Verify(cert.VerificationCode)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProcessPendingJobsIssuesCertificates(t *testing.T) {
	db, enrollments, certificates, _ := newCertificateFixture(t)

	user := createTestUser(t, db, "amina@test.mz")
	enrollment := completeEnrollment(t, db, enrollments, user.ID)

	// completing the course queued the job
	var job courseModels.CertificateJob
	require.NoError(t, db.Where("enrollment_id = ?", enrollment.ID).First(&job).Error)
	require.Equal(t, courseModels.CertJobPending, job.Status)

	certificates.ProcessPendingJobs(10)

	require.NoError(t, db.First(&job, job.ID).Error)
	assert.Equal(t, courseModels.CertJobDone, job.Status)

	var cert courseModels.Certificate
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", user.ID, enrollment.CourseID).First(&cert).Error)
	assert.NotEmpty(t, cert.VerificationCode)
}

func TestProcessPendingJobsRetriesWithBackoff(t *testing.T) {
	db, _, certificates, _ := newCertificateFixture(t)

	// job pointing at an enrollment that does not exist
	job := courseModels.CertificateJob{
		EnrollmentID: 12345,
		Status:       courseModels.CertJobPending,
		NextRunAt:    time.Now().Add(-time.Minute),
	}
	require.NoError(t, db.Create(&job).Error)

	certificates.ProcessPendingJobs(10)

	require.NoError(t, db.First(&job, job.ID).Error)
	assert.Equal(t, courseModels.CertJobPending, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.NotEmpty(t, job.LastError)
	assert.True(t, job.NextRunAt.After(time.Now()))

	// not picked up again before its next run time
	certificates.ProcessPendingJobs(10)
	require.NoError(t, db.First(&job, job.ID).Error)
	assert.Equal(t, 1, job.Attempts)
}

func TestProcessPendingJobsFailsPermanently(t *testing.T) {
	db, _, certificates, _ := newCertificateFixture(t)

	job := courseModels.CertificateJob{
		EnrollmentID: 12345,
		Status:       courseModels.CertJobPending,
		Attempts:     certJobMaxAttempts - 1,
		NextRunAt:    time.Now().Add(-time.Minute),
	}
	require.NoError(t, db.Create(&job).Error)

	certificates.ProcessPendingJobs(10)

	require.NoError(t, db.First(&job, job.ID).Error)
	assert.Equal(t, courseModels.CertJobFailed, job.Status)
	assert.Equal(t, certJobMaxAttempts, job.Attempts)
}
