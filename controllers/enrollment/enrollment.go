package enrollmentController

import (
	"aprendimoz/database"
	"aprendimoz/middleware"
	"aprendimoz/models"
	courseModels "aprendimoz/models/course"
	"aprendimoz/services"
	"aprendimoz/utils"

	"github.com/gofiber/fiber/v2"
)

// Enroll registers the caller on a course. Free courses enroll directly,
// paid courses require a completed payment first.
func Enroll(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData := new(struct {
		CourseID uint `json:"courseId"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.CourseID == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	enrollment, err := services.Enrollments.Enroll(userID, reqData.CourseID)
	if err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, err.Error(), nil)
	}

	var user models.User
	var course courseModels.Course
	if database.Database.Db.Where("id = ?", userID).First(&user).Error == nil &&
		database.Database.Db.Where("id = ?", enrollment.CourseID).First(&course).Error == nil {
		utils.SendEnrollmentEmail(user.Email, user.FullName, course.Title)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled successfully.", enrollment)
}

// MyEnrollments lists the caller's enrollments with course summaries
func MyEnrollments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollments, err := services.Enrollments.ListForUser(userID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	type EnrollmentWithCourse struct {
		courseModels.Enrollment
		CourseTitle     string `json:"course_title"`
		CourseThumbnail string `json:"course_thumbnail"`
		CourseCategory  string `json:"course_category"`
	}

	result := make([]EnrollmentWithCourse, len(enrollments))
	for i, e := range enrollments {
		var course courseModels.Course
		database.Database.Db.Where("id = ?", e.CourseID).First(&course)
		result[i] = EnrollmentWithCourse{
			Enrollment:      e,
			CourseTitle:     course.Title,
			CourseThumbnail: course.Thumbnail,
			CourseCategory:  course.Category,
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully.", fiber.Map{
		"enrollments": result,
		"total":       len(result),
	})
}

// GetEnrollment returns one enrollment owned by the caller
func GetEnrollment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollmentID, err := c.ParamsInt("id")
	if err != nil || enrollmentID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid enrollment id!", nil)
	}

	enrollment, err := services.Enrollments.Get(uint(enrollmentID), userID)
	if err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, err.Error(), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment fetched successfully.", enrollment)
}

// UpdateProgress records a completed lesson and recomputes course progress
func UpdateProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollmentID, err := c.ParamsInt("id")
	if err != nil || enrollmentID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid enrollment id!", nil)
	}

	reqData := new(struct {
		LessonID        uint  `json:"lessonId"`
		CurrentLessonID *uint `json:"currentLessonId"`
		TimeSpentDelta  int   `json:"timeSpentDelta"`
		Position        *int  `json:"position"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.LessonID == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	enrollment, err := services.Enrollments.UpdateProgress(uint(enrollmentID), userID, services.ProgressInput{
		LessonID:        reqData.LessonID,
		CurrentLessonID: reqData.CurrentLessonID,
		TimeSpentDelta:  reqData.TimeSpentDelta,
		Position:        reqData.Position,
	})
	if err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, err.Error(), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully.", enrollment)
}

func Pause(c *fiber.Ctx) error {
	return changeState(c, services.Enrollments.Pause, "Enrollment paused successfully.")
}

func Resume(c *fiber.Ctx) error {
	return changeState(c, services.Enrollments.Resume, "Enrollment resumed successfully.")
}

func Drop(c *fiber.Ctx) error {
	return changeState(c, services.Enrollments.Drop, "Enrollment dropped successfully.")
}

func changeState(c *fiber.Ctx, fn func(uint, uint) (*courseModels.Enrollment, error), message string) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollmentID, err := c.ParamsInt("id")
	if err != nil || enrollmentID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid enrollment id!", nil)
	}

	enrollment, err := fn(uint(enrollmentID), userID)
	if err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, err.Error(), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, message, enrollment)
}
