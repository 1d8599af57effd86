package certificateRoutes

import (
	certificateControllers "aprendimoz/controllers/certificate"
	"aprendimoz/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupCertificateRoutes(app *fiber.App) {
	// public verification, linked from the QR code
	app.Get("/verify/:code", certificateControllers.VerifyCertificate)

	certificateGroup := app.Group("/certificates", middleware.JWTMiddleware)
	certificateGroup.Get("/", certificateControllers.MyCertificates)
	certificateGroup.Post("/:enrollmentId/generate", certificateControllers.GenerateCertificate)
}
