package certificateController

import (
	"aprendimoz/database"
	"aprendimoz/middleware"
	courseModels "aprendimoz/models/course"
	"aprendimoz/services"

	"github.com/gofiber/fiber/v2"
)

// MyCertificates lists the caller's issued certificates
func MyCertificates(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	certificates, err := services.Certificates.ListForUser(userID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	type CertificateWithCourse struct {
		courseModels.Certificate
		CourseTitle string `json:"course_title"`
	}

	result := make([]CertificateWithCourse, len(certificates))
	for i, cert := range certificates {
		var course courseModels.Course
		database.Database.Db.Where("id = ?", cert.CourseID).First(&course)
		result[i] = CertificateWithCourse{
			Certificate: cert,
			CourseTitle: course.Title,
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully.", result)
}

// VerifyCertificate is the public verification endpoint behind the QR code
func VerifyCertificate(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Verification code is required!", nil)
	}

	certificate, err := services.Certificates.Verify(code)
	if err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, "Certificate not found or revoked!", nil)
	}

	var course courseModels.Course
	database.Database.Db.Where("id = ?", certificate.CourseID).First(&course)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate is valid.", fiber.Map{
		"certificate":  certificate,
		"course_title": course.Title,
	})
}

// GenerateCertificate issues the certificate for one of the caller's
// completed enrollments. The background worker normally handles this; the
// endpoint covers re-issuing when the email got lost.
func GenerateCertificate(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollmentID, err := c.ParamsInt("enrollmentId")
	if err != nil || enrollmentID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid enrollment id!", nil)
	}

	// ownership check before issuing
	if _, err := services.Enrollments.Get(uint(enrollmentID), userID); err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, err.Error(), nil)
	}

	certificate, err := services.Certificates.Generate(uint(enrollmentID))
	if err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, err.Error(), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certificate issued successfully.", certificate)
}
