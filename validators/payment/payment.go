package paymentValidator

import (
	"aprendimoz/middleware"
	"aprendimoz/models"
	"aprendimoz/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// CreatePayment validator middleware. The validated input is stored for the
// controller so amounts and method only get parsed once.
func CreatePayment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			CourseID    *uint   `json:"courseId"`
			ModuleID    *uint   `json:"moduleId"`
			Amount      float64 `json:"amount" validate:"gte=0"`
			Method      string  `json:"method" validate:"required,oneof=mpesa credit_card wallet"`
			PhoneNumber string  `json:"phoneNumber"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if err := validate.Struct(reqData); err != nil {
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "Amount":
					errors["amount"] = "Amount must not be negative!"
				case "Method":
					errors["method"] = "Method must be mpesa, credit_card or wallet!"
				}
			}
		}

		if reqData.CourseID != nil && reqData.ModuleID != nil {
			errors["target"] = "Provide either courseId or moduleId, not both!"
		}
		if reqData.Method == string(models.PaymentMethodMpesa) {
			if _, ok := services.ValidateMpesaPhone(reqData.PhoneNumber); !ok {
				errors["phoneNumber"] = "A valid Mozambican phone number is required for M-Pesa!"
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedPayment", &services.CreatePaymentInput{
			CourseID:    reqData.CourseID,
			ModuleID:    reqData.ModuleID,
			Amount:      reqData.Amount,
			Method:      models.PaymentMethod(reqData.Method),
			PhoneNumber: reqData.PhoneNumber,
		})
		return c.Next()
	}
}
