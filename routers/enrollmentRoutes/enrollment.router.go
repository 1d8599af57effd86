package enrollmentRoutes

import (
	enrollmentControllers "aprendimoz/controllers/enrollment"
	"aprendimoz/middleware"
	enrollmentValidators "aprendimoz/validators/enrollment"

	"github.com/gofiber/fiber/v2"
)

func SetupEnrollmentRoutes(app *fiber.App) {
	enrollmentGroup := app.Group("/enrollments", middleware.JWTMiddleware)

	enrollmentGroup.Post("/", enrollmentControllers.Enroll)
	enrollmentGroup.Get("/", enrollmentControllers.MyEnrollments)
	enrollmentGroup.Get("/:id", enrollmentControllers.GetEnrollment)
	enrollmentGroup.Patch("/:id/progress", enrollmentValidators.UpdateProgress(), enrollmentControllers.UpdateProgress)
	enrollmentGroup.Patch("/:id/pause", enrollmentControllers.Pause)
	enrollmentGroup.Patch("/:id/resume", enrollmentControllers.Resume)
	enrollmentGroup.Patch("/:id/drop", enrollmentControllers.Drop)
}
