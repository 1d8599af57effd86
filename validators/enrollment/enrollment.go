package enrollmentValidator

import (
	"aprendimoz/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// UpdateProgress validator middleware
func UpdateProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			LessonID       uint `json:"lessonId" validate:"required,gt=0"`
			TimeSpentDelta int  `json:"timeSpentDelta" validate:"gte=0"`
			Position       *int `json:"position" validate:"omitempty,gte=0"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if err := validate.Struct(reqData); err != nil {
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "LessonID":
					errors["lessonId"] = "Lesson id is required!"
				case "TimeSpentDelta":
					errors["timeSpentDelta"] = "Time spent must not be negative!"
				case "Position":
					errors["position"] = "Position must not be negative!"
				}
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		return c.Next()
	}
}
