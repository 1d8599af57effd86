package paymentRoutes

import (
	paymentControllers "aprendimoz/controllers/payment"
	"aprendimoz/middleware"
	paymentValidators "aprendimoz/validators/payment"

	"github.com/gofiber/fiber/v2"
)

func SetupPaymentRoutes(app *fiber.App) {
	paymentGroup := app.Group("/payments")

	// the gateway calls this one, no auth
	paymentGroup.Post("/mpesa/callback", paymentControllers.MpesaCallback)

	paymentGroup.Post("/", middleware.JWTMiddleware, paymentValidators.CreatePayment(), paymentControllers.CreatePayment)
	paymentGroup.Get("/", middleware.JWTMiddleware, paymentControllers.ListPayments)
	paymentGroup.Get("/stats", middleware.JWTMiddleware, paymentControllers.PaymentStats)
	paymentGroup.Get("/:id", middleware.JWTMiddleware, paymentControllers.GetPayment)
	paymentGroup.Post("/:id/mpesa/initiate", middleware.JWTMiddleware, paymentControllers.InitiateMpesa)
	paymentGroup.Post("/:id/verify", middleware.JWTMiddleware, paymentControllers.VerifyPayment)
	paymentGroup.Post("/:id/refund", middleware.JWTMiddleware, paymentControllers.RefundPayment)
}
