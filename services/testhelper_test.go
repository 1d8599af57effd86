package services

import (
	"aprendimoz/database"
	"aprendimoz/models"
	courseModels "aprendimoz/models/course"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-callback-secret"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	return db
}

// fakeGateway is a scriptable PaymentGateway for tests
type fakeGateway struct {
	initiateID  string
	initiateErr error
	verifyCode  string
	verifyErr   error
	reverseOK   bool
	reverseErr  error

	initiated []string
	reversed  []string
}

func (g *fakeGateway) Initiate(phone string, amount float64, reference string) (string, error) {
	g.initiated = append(g.initiated, reference)
	if g.initiateErr != nil {
		return "", g.initiateErr
	}
	if g.initiateID == "" {
		return "GW-" + reference, nil
	}
	return g.initiateID, nil
}

func (g *fakeGateway) Verify(gatewayTxnID string) (string, error) {
	if g.verifyErr != nil {
		return "", g.verifyErr
	}
	return g.verifyCode, nil
}

func (g *fakeGateway) Reverse(gatewayTxnID string, amount float64, reason string) (bool, error) {
	g.reversed = append(g.reversed, gatewayTxnID)
	if g.reverseErr != nil {
		return false, g.reverseErr
	}
	return g.reverseOK, nil
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		FullName: "Amina Machava",
		Email:    email,
		Password: "not-a-real-hash",
		Role:     models.RoleStudent,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// createPublishedCourse seeds a published course and returns it with the ids
// of all its lessons, spread over len(lessonsPerModule) modules.
func createPublishedCourse(t *testing.T, db *gorm.DB, price float64, lessonsPerModule ...int) (*courseModels.Course, []uint) {
	t.Helper()

	course := &courseModels.Course{
		InstructorID: 999,
		Title:        "Introducao a Programacao",
		Description:  "Curso de teste",
		Category:     "tecnologia",
		Price:        price,
		Currency:     "MZN",
		Status:       courseModels.StatusPublished,
		IsCertified:  true,
	}
	require.NoError(t, db.Create(course).Error)

	var lessonIDs []uint
	for m, count := range lessonsPerModule {
		module := &courseModels.Module{
			CourseID:   course.ID,
			Title:      fmt.Sprintf("Modulo %d", m+1),
			OrderIndex: m,
		}
		require.NoError(t, db.Create(module).Error)

		for l := 0; l < count; l++ {
			lesson := &courseModels.Lesson{
				ModuleID:   module.ID,
				Title:      fmt.Sprintf("Licao %d.%d", m+1, l+1),
				Type:       courseModels.LessonTypeVideo,
				OrderIndex: l,
			}
			require.NoError(t, db.Create(lesson).Error)
			lessonIDs = append(lessonIDs, lesson.ID)
		}
	}

	return course, lessonIDs
}

func newTestServices(t *testing.T, gw PaymentGateway) (*gorm.DB, *PaymentService, *EnrollmentService) {
	t.Helper()

	db := setupTestDB(t)
	enrollments := NewEnrollmentService(db)
	payments := NewPaymentService(db, gw, enrollments, 0.16, testSecret, true)
	return db, payments, enrollments
}
