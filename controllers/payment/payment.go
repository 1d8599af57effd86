package paymentController

import (
	"aprendimoz/database"
	"aprendimoz/middleware"
	"aprendimoz/models"
	"aprendimoz/services"
	"aprendimoz/utils"
	"log"

	"github.com/gofiber/fiber/v2"
)

// CreatePayment records a pending payment for a course or module purchase
func CreatePayment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedPayment").(*services.CreatePaymentInput)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	payment, err := services.Payments.Create(userID, *reqData)
	if err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, err.Error(), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Payment created successfully.", payment)
}

// InitiateMpesa pushes the USSD prompt to the customer's phone
func InitiateMpesa(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	paymentID, err := c.ParamsInt("id")
	if err != nil || paymentID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid payment id!", nil)
	}

	payment, err := services.Payments.Initiate(uint(paymentID), userID)
	if err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, err.Error(), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment initiated. Confirm on your phone.", payment)
}

// MpesaCallback receives the gateway confirmation. It is unauthenticated and
// idempotent; authenticity comes from the payload signature.
func MpesaCallback(c *fiber.Ctx) error {
	var callback services.MpesaCallback
	if err := c.BodyParser(&callback); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid callback payload!", nil)
	}

	log.Printf("[MPESA] Callback received: ref=%s code=%s", callback.ThirdPartyReference, callback.ResponseCode)

	payment, err := services.Payments.ProcessCallback(callback)
	if err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, err.Error(), nil)
	}

	if payment.IsCompleted() {
		var user models.User
		if database.Database.Db.Where("id = ?", payment.UserID).First(&user).Error == nil {
			utils.SendPaymentReceiptEmail(user.Email, user.FullName, payment.TransactionID, payment.TotalAmount())
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Callback processed.", fiber.Map{
		"transaction_id": payment.TransactionID,
		"status":         payment.Status,
	})
}

// VerifyPayment polls the gateway for a pending payment whose callback never
// arrived.
func VerifyPayment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	paymentID, err := c.ParamsInt("id")
	if err != nil || paymentID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid payment id!", nil)
	}

	payment, err := services.Payments.VerifyPending(uint(paymentID), userID)
	if err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, err.Error(), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment status verified.", payment)
}

// RefundPayment reverses a completed payment at the gateway
func RefundPayment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	paymentID, err := c.ParamsInt("id")
	if err != nil || paymentID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid payment id!", nil)
	}

	reqData := new(struct {
		Reason string `json:"reason"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.Reason == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Refund reason is required!", nil)
	}

	payment, err := services.Payments.Refund(uint(paymentID), reqData.Reason, userID)
	if err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, err.Error(), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment refunded successfully.", payment)
}

// ListPayments returns the caller's payment history
func ListPayments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	status := models.PaymentStatus(c.Query("status"))

	payments, total, err := services.Payments.List(userID, status, page, limit)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch payments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payments fetched successfully.", fiber.Map{
		"payments": payments,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// GetPayment returns a single payment owned by the caller
func GetPayment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	paymentID, err := c.ParamsInt("id")
	if err != nil || paymentID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid payment id!", nil)
	}

	payment, err := services.Payments.Get(uint(paymentID), userID)
	if err != nil {
		return middleware.JsonResponse(c, services.HTTPStatus(err), false, err.Error(), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment fetched successfully.", payment)
}

// PaymentStats aggregates the caller's spending
func PaymentStats(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	stats, err := services.Payments.Stats(userID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch payment stats!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment stats fetched successfully.", stats)
}
