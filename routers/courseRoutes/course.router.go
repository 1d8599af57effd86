package courseRoutes

import (
	courseControllers "aprendimoz/controllers/course"
	"aprendimoz/middleware"
	"aprendimoz/models"
	courseValidators "aprendimoz/validators/course"

	"github.com/gofiber/fiber/v2"
)

func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/courses")

	// public catalog
	courseGroup.Get("/", courseControllers.ListCourses)
	courseGroup.Get("/popular", courseControllers.Popular)
	courseGroup.Get("/recommended", middleware.JWTMiddleware, courseControllers.Recommended)
	courseGroup.Get("/:id", middleware.OptionalJWTMiddleware, courseControllers.GetCourse)

	// lesson access, previews are public
	app.Get("/lessons/:id", middleware.OptionalJWTMiddleware, courseControllers.GetLesson)

	// authoring
	instructorOnly := []string{models.RoleInstructor, models.RoleInstitution, models.RoleAdmin}
	courseGroup.Post("/", middleware.JWTMiddleware, middleware.RequireRole(instructorOnly...), courseValidators.CreateCourse(), courseControllers.CreateCourse)
	courseGroup.Get("/mine/list", middleware.JWTMiddleware, middleware.RequireRole(instructorOnly...), courseControllers.InstructorCourses)
	courseGroup.Put("/:id", middleware.JWTMiddleware, middleware.RequireRole(instructorOnly...), courseControllers.UpdateCourse)
	courseGroup.Patch("/:id/publish", middleware.JWTMiddleware, middleware.RequireRole(instructorOnly...), courseControllers.PublishCourse)
	courseGroup.Patch("/:id/archive", middleware.JWTMiddleware, middleware.RequireRole(instructorOnly...), courseControllers.ArchiveCourse)
	courseGroup.Post("/:id/modules", middleware.JWTMiddleware, middleware.RequireRole(instructorOnly...), courseValidators.CreateModule(), courseControllers.CreateModule)
	app.Post("/modules/:moduleId/lessons", middleware.JWTMiddleware, middleware.RequireRole(instructorOnly...), courseValidators.CreateLesson(), courseControllers.CreateLesson)
}
