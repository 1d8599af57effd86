package courseController

import (
	"aprendimoz/database"
	"aprendimoz/middleware"
	courseModels "aprendimoz/models/course"
	"aprendimoz/services"

	"github.com/gofiber/fiber/v2"
)

// ListCourses is the public catalog listing. Only published courses are
// visible here regardless of query parameters.
func ListCourses(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 12)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 12
	}

	db := database.Database.Db
	query := db.Model(&courseModels.Course{}).
		Where("status = ? AND is_deleted = ?", courseModels.StatusPublished, false)

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if level := c.Query("level"); level != "" {
		query = query.Where("level = ?", level)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	var total int64
	query.Count(&total)

	var courses []courseModels.Course
	if err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully.", fiber.Map{
		"courses": courses,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// GetCourse returns course details with modules and lessons. Anonymous
// visitors see the structure; enrollment status needs a token.
func GetCourse(c *fiber.Ctx) error {
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	db := database.Database.Db

	var course courseModels.Course
	if err := db.Where("id = ? AND status = ? AND is_deleted = ?", courseID, courseModels.StatusPublished, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var modules []courseModels.Module
	db.Where("course_id = ? AND is_deleted = ?", courseID, false).Order("order_index ASC").Find(&modules)

	type ModuleWithLessons struct {
		courseModels.Module
		Lessons []courseModels.Lesson `json:"lessons"`
	}

	result := make([]ModuleWithLessons, len(modules))
	for i, module := range modules {
		var lessons []courseModels.Lesson
		db.Where("module_id = ? AND is_deleted = ?", module.ID, false).Order("order_index ASC").Find(&lessons)
		result[i] = ModuleWithLessons{Module: module, Lessons: lessons}
	}

	isEnrolled := false
	var enrollment *courseModels.Enrollment
	if userID, ok := c.Locals("userId").(uint); ok {
		var e courseModels.Enrollment
		if db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&e).Error == nil {
			isEnrolled = true
			enrollment = &e
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details fetched successfully.", fiber.Map{
		"course":      course,
		"modules":     result,
		"is_enrolled": isEnrolled,
		"enrollment":  enrollment,
	})
}

// GetLesson serves lesson content. Preview lessons are public, everything
// else needs an active or completed enrollment in the lesson's course.
func GetLesson(c *fiber.Ctx) error {
	lessonID, err := c.ParamsInt("id")
	if err != nil || lessonID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid lesson id!", nil)
	}

	var userID *uint
	if id, ok := c.Locals("userId").(uint); ok {
		userID = &id
	}

	lesson, err := services.Enrollments.GetLesson(uint(lessonID), userID)
	if err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, err.Error(), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson fetched successfully.", lesson)
}

// Recommended suggests courses based on the user's enrollment categories
func Recommended(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	limit := c.QueryInt("limit", 6)
	if limit < 1 || limit > 20 {
		limit = 6
	}

	courses, err := services.Enrollments.Recommended(userID, limit)
	if err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, err.Error(), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Recommended courses fetched successfully.", courses)
}

// Popular lists the most enrolled published courses
func Popular(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 6)
	if limit < 1 || limit > 20 {
		limit = 6
	}

	courses, err := services.Enrollments.Popular(limit)
	if err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, err.Error(), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Popular courses fetched successfully.", courses)
}
