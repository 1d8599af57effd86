package courseValidator

import (
	"aprendimoz/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// CreateCourse validator middleware
func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title       string  `json:"title" validate:"required,min=5,max=200"`
			Description string  `json:"description" validate:"required,min=20"`
			Category    string  `json:"category" validate:"required"`
			Level       string  `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
			Price       float64 `json:"price" validate:"gte=0"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if err := validate.Struct(reqData); err != nil {
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "Title":
					errors["title"] = "Title must be between 5 and 200 characters!"
				case "Description":
					errors["description"] = "Description must be at least 20 characters long!"
				case "Category":
					errors["category"] = "Category is required!"
				case "Level":
					errors["level"] = "Level must be beginner, intermediate or advanced!"
				case "Price":
					errors["price"] = "Price must not be negative!"
				}
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		return c.Next()
	}
}

// CreateModule validator middleware
func CreateModule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title      string  `json:"title" validate:"required,min=3,max=200"`
			OrderIndex int     `json:"orderIndex" validate:"gte=0"`
			Price      float64 `json:"price" validate:"gte=0"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if err := validate.Struct(reqData); err != nil {
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "Title":
					errors["title"] = "Title must be between 3 and 200 characters!"
				case "OrderIndex":
					errors["orderIndex"] = "Order index must not be negative!"
				case "Price":
					errors["price"] = "Price must not be negative!"
				}
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		return c.Next()
	}
}

// CreateLesson validator middleware
func CreateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title      string `json:"title" validate:"required,min=3,max=200"`
			Type       string `json:"type" validate:"required,oneof=video text pdf quiz assignment"`
			OrderIndex int    `json:"orderIndex" validate:"gte=0"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if err := validate.Struct(reqData); err != nil {
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "Title":
					errors["title"] = "Title must be between 3 and 200 characters!"
				case "Type":
					errors["type"] = "Type must be video, text, pdf, quiz or assignment!"
				case "OrderIndex":
					errors["orderIndex"] = "Order index must not be negative!"
				}
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		return c.Next()
	}
}
