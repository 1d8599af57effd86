package courseController

import (
	"aprendimoz/database"
	"aprendimoz/middleware"
	"aprendimoz/models"
	courseModels "aprendimoz/models/course"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ownedCourse loads a course the caller is allowed to manage. Admins manage
// everything, instructors and institutions only their own courses.
func ownedCourse(c *fiber.Ctx, courseID int) (*courseModels.Course, error) {
	userID := c.Locals("userId").(uint)
	role, _ := c.Locals("userRole").(string)

	var course courseModels.Course
	query := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false)
	if role != models.RoleAdmin {
		query = query.Where("instructor_id = ?", userID)
	}
	if err := query.First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func CreateCourse(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData := new(struct {
		Title        string  `json:"title"`
		Description  string  `json:"description"`
		Category     string  `json:"category"`
		Level        string  `json:"level"`
		Tags         string  `json:"tags"`
		Thumbnail    string  `json:"thumbnail"`
		Price        float64 `json:"price"`
		Duration     int     `json:"duration"`
		IsCertified  *bool   `json:"isCertified"`
		Requirements string  `json:"requirements"`
		WhatYouLearn string  `json:"whatYouLearn"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	course := courseModels.Course{
		InstructorID: userID,
		Title:        reqData.Title,
		Description:  reqData.Description,
		Category:     reqData.Category,
		Level:        reqData.Level,
		Tags:         reqData.Tags,
		Thumbnail:    reqData.Thumbnail,
		Price:        reqData.Price,
		Duration:     reqData.Duration,
		Requirements: reqData.Requirements,
		WhatYouLearn: reqData.WhatYouLearn,
	}
	if reqData.IsCertified != nil {
		course.IsCertified = *reqData.IsCertified
	}

	if err := database.Database.Db.Create(&course).Error; err != nil {
		log.Printf("Error creating course: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully.", course)
}

func UpdateCourse(c *fiber.Ctx) error {
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	course, err := ownedCourse(c, courseID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData := new(struct {
		Title        *string  `json:"title"`
		Description  *string  `json:"description"`
		Category     *string  `json:"category"`
		Level        *string  `json:"level"`
		Tags         *string  `json:"tags"`
		Thumbnail    *string  `json:"thumbnail"`
		Price        *float64 `json:"price"`
		Duration     *int     `json:"duration"`
		IsCertified  *bool    `json:"isCertified"`
		Requirements *string  `json:"requirements"`
		WhatYouLearn *string  `json:"whatYouLearn"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	if reqData.Title != nil {
		course.Title = *reqData.Title
	}
	if reqData.Description != nil {
		course.Description = *reqData.Description
	}
	if reqData.Category != nil {
		course.Category = *reqData.Category
	}
	if reqData.Level != nil {
		course.Level = *reqData.Level
	}
	if reqData.Tags != nil {
		course.Tags = *reqData.Tags
	}
	if reqData.Thumbnail != nil {
		course.Thumbnail = *reqData.Thumbnail
	}
	if reqData.Price != nil {
		course.Price = *reqData.Price
	}
	if reqData.Duration != nil {
		course.Duration = *reqData.Duration
	}
	if reqData.IsCertified != nil {
		course.IsCertified = *reqData.IsCertified
	}
	if reqData.Requirements != nil {
		course.Requirements = *reqData.Requirements
	}
	if reqData.WhatYouLearn != nil {
		course.WhatYouLearn = *reqData.WhatYouLearn
	}

	if err := database.Database.Db.Save(course).Error; err != nil {
		log.Printf("Error updating course: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully.", course)
}

// PublishCourse moves a draft into the public catalog. A course needs at
// least one module with one lesson before it can go live.
func PublishCourse(c *fiber.Ctx) error {
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	course, err := ownedCourse(c, courseID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	if course.Status == courseModels.StatusPublished {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Course is already published!", nil)
	}

	var lessonCount int64
	database.Database.Db.Model(&courseModels.Lesson{}).
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ? AND lessons.is_deleted = ?", course.ID, false).
		Count(&lessonCount)
	if lessonCount == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course needs at least one lesson before publishing!", nil)
	}

	course.Status = courseModels.StatusPublished
	if err := database.Database.Db.Save(course).Error; err != nil {
		log.Printf("Error publishing course: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to publish course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course published successfully.", course)
}

// ArchiveCourse hides a course from the catalog without touching existing
// enrollments.
func ArchiveCourse(c *fiber.Ctx) error {
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	course, err := ownedCourse(c, courseID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	course.Status = courseModels.StatusArchived
	if err := database.Database.Db.Save(course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to archive course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course archived successfully.", course)
}

// InstructorCourses lists the caller's own courses in every status
func InstructorCourses(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var courses []courseModels.Course
	if err := database.Database.Db.Where("instructor_id = ? AND is_deleted = ?", userID, false).
		Order("created_at DESC").Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully.", courses)
}

func CreateModule(c *fiber.Ctx) error {
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	course, err := ownedCourse(c, courseID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData := new(struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		OrderIndex  int     `json:"orderIndex"`
		Duration    int     `json:"duration"`
		Price       float64 `json:"price"`
		IsFree      bool    `json:"isFree"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	module := courseModels.Module{
		CourseID:    course.ID,
		Title:       reqData.Title,
		Description: reqData.Description,
		OrderIndex:  reqData.OrderIndex,
		Duration:    reqData.Duration,
		Price:       reqData.Price,
		IsFree:      reqData.IsFree,
	}

	if err := database.Database.Db.Create(&module).Error; err != nil {
		log.Printf("Error creating module: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create module!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Module created successfully.", module)
}

func CreateLesson(c *fiber.Ctx) error {
	moduleID, err := c.ParamsInt("moduleId")
	if err != nil || moduleID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid module id!", nil)
	}

	var module courseModels.Module
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", moduleID, false).First(&module).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Module not found!", nil)
	}

	if _, err := ownedCourse(c, int(module.CourseID)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData := new(struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Type        string `json:"type"`
		Content     string `json:"content"`
		VideoURL    string `json:"videoUrl"`
		PdfURL      string `json:"pdfUrl"`
		Duration    int    `json:"duration"`
		OrderIndex  int    `json:"orderIndex"`
		IsPreview   bool   `json:"isPreview"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	lesson := courseModels.Lesson{
		ModuleID:    module.ID,
		Title:       reqData.Title,
		Description: reqData.Description,
		Type:        reqData.Type,
		Content:     reqData.Content,
		VideoURL:    reqData.VideoURL,
		PdfURL:      reqData.PdfURL,
		Duration:    reqData.Duration,
		OrderIndex:  reqData.OrderIndex,
		IsPreview:   reqData.IsPreview,
	}

	if err := database.Database.Db.Create(&lesson).Error; err != nil {
		log.Printf("Error creating lesson: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully.", lesson)
}
