package services

import (
	"aprendimoz/models"
	courseModels "aprendimoz/models/course"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jinzhu/now"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeeSchedule computes the processing fee for a payment method. It is a
// policy hook, not a constant: deployments can swap it without touching the
// processor.
type FeeSchedule func(method models.PaymentMethod, amount float64) float64

// DefaultFeeSchedule mirrors the platform's gateway contracts: M-Pesa takes
// a flat 2%, cards 2.9% plus 30 centavos, internal wallet is free.
func DefaultFeeSchedule(method models.PaymentMethod, amount float64) float64 {
	switch method {
	case models.PaymentMethodMpesa:
		return amount * 0.02
	case models.PaymentMethodCreditCard:
		return amount*0.029 + 0.30
	case models.PaymentMethodWallet:
		return 0
	default:
		return 0
	}
}

// PaymentService validates, prices and carries a payment through its
// lifecycle. The authenticated principal is always an explicit argument.
type PaymentService struct {
	db          *gorm.DB
	gateway     PaymentGateway
	enrollments *EnrollmentService
	feeSchedule FeeSchedule
	vatRate     float64
	secret      string
	sandbox     bool
}

// NewPaymentService wires the payment processor. The sandbox flag disables
// callback signature verification, matching the gateway's sandbox behaviour.
func NewPaymentService(db *gorm.DB, gateway PaymentGateway, enrollments *EnrollmentService, vatRate float64, secret string, sandbox bool) *PaymentService {
	return &PaymentService{
		db:          db,
		gateway:     gateway,
		enrollments: enrollments,
		feeSchedule: DefaultFeeSchedule,
		vatRate:     vatRate,
		secret:      secret,
		sandbox:     sandbox,
	}
}

// CreatePaymentInput is the purchase request after HTTP validation
type CreatePaymentInput struct {
	CourseID    *uint
	ModuleID    *uint
	Amount      float64
	Method      models.PaymentMethod
	PhoneNumber string
}

// Create validates the amount against the live catalog price, derives fee
// and tax, and persists a pending payment with a fresh transaction
// reference. No money moves yet.
func (s *PaymentService) Create(userID uint, input CreatePaymentInput) (*models.Payment, error) {
	if input.CourseID != nil && input.ModuleID != nil {
		return nil, fmt.Errorf("%w: payment may target a course or a module, not both", ErrInvalidState)
	}

	expectedAmount := input.Amount // wallet top-ups have no catalog price
	currency := "MZN"

	if input.CourseID != nil {
		var course courseModels.Course
		if err := s.db.Where("id = ? AND is_deleted = ?", *input.CourseID, false).First(&course).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: course %d", ErrNotFound, *input.CourseID)
			}
			return nil, err
		}
		expectedAmount = course.Price
		currency = course.Currency
	} else if input.ModuleID != nil {
		var module courseModels.Module
		if err := s.db.Where("id = ? AND is_deleted = ?", *input.ModuleID, false).First(&module).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: module %d", ErrNotFound, *input.ModuleID)
			}
			return nil, err
		}
		var course courseModels.Course
		if err := s.db.Where("id = ?", module.CourseID).First(&course).Error; err != nil {
			return nil, err
		}
		expectedAmount = module.Price
		currency = course.Currency
	}

	if input.Amount != expectedAmount {
		return nil, fmt.Errorf("%w: expected %.2f, got %.2f", ErrInvalidAmount, expectedAmount, input.Amount)
	}

	phone := ""
	if input.Method == models.PaymentMethodMpesa {
		formatted, ok := ValidateMpesaPhone(input.PhoneNumber)
		if !ok {
			return nil, fmt.Errorf("%w: invalid M-Pesa phone number", ErrInvalidState)
		}
		phone = formatted
	}

	payment := models.Payment{
		UserID:           userID,
		CourseID:         input.CourseID,
		ModuleID:         input.ModuleID,
		Amount:           input.Amount,
		Currency:         currency,
		Method:           input.Method,
		Status:           models.PaymentStatusPending,
		TransactionID:    GenerateTransactionRef("PAY"),
		MpesaPhoneNumber: phone,
		Fee:              s.feeSchedule(input.Method, input.Amount),
		Tax:              input.Amount * s.vatRate,
	}

	if err := s.db.Create(&payment).Error; err != nil {
		return nil, err
	}

	return &payment, nil
}

// Initiate pushes the USSD prompt for a pending M-Pesa payment. The charged
// amount is the full total including fee and tax.
func (s *PaymentService) Initiate(paymentID, userID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Where("id = ? AND user_id = ?", paymentID, userID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment %d", ErrNotFound, paymentID)
		}
		return nil, err
	}

	if payment.Status != models.PaymentStatusPending {
		return nil, fmt.Errorf("%w: payment %d is %s", ErrInvalidState, paymentID, payment.Status)
	}
	if payment.Method != models.PaymentMethodMpesa {
		return nil, fmt.Errorf("%w: only M-Pesa payments can be initiated", ErrInvalidState)
	}

	gatewayTxnID, err := s.gateway.Initiate(payment.MpesaPhoneNumber, payment.TotalAmount(), payment.TransactionID)
	if err != nil {
		// payment stays pending, the caller decides whether to retry
		return nil, err
	}

	if gatewayTxnID != "" {
		payment.MpesaTransactionID = gatewayTxnID
		if err := s.db.Save(&payment).Error; err != nil {
			return nil, err
		}
	}

	return &payment, nil
}

// ProcessCallback applies a gateway confirmation to the referenced payment.
// It is idempotent under at-least-once delivery: a replay against a settled
// payment is absorbed as a no-op. A completed payment grants the enrollment
// inside the same transaction.
func (s *PaymentService) ProcessCallback(cb MpesaCallback) (*models.Payment, error) {
	if !s.sandbox && !cb.VerifySignature(s.secret) {
		return nil, ErrInvalidSignature
	}
	return s.applyConfirmation(cb)
}

// applyConfirmation runs the pending -> completed|failed transition under a
// row lock. Shared by the callback and the pull-verification paths.
func (s *PaymentService) applyConfirmation(cb MpesaCallback) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("transaction_id = ?", cb.ThirdPartyReference).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: payment reference %s", ErrNotFound, cb.ThirdPartyReference)
			}
			return err
		}

		if payment.Status != models.PaymentStatusPending {
			// duplicate delivery, not an error
			log.Printf("[PAYMENT] Callback replay for %s ignored (status=%s)", payment.TransactionID, payment.Status)
			return nil
		}

		if raw, err := json.Marshal(cb); err == nil {
			payment.GatewayPayload = datatypes.JSON(raw)
		}

		if cb.Succeeded() {
			processedAt := time.Now()
			payment.Status = models.PaymentStatusCompleted
			payment.MpesaTransactionID = cb.TransactionID
			payment.ProcessedAt = &processedAt

			if err := tx.Save(&payment).Error; err != nil {
				return err
			}
			return s.enrollments.GrantFromPayment(tx, &payment)
		}

		payment.Status = models.PaymentStatusFailed
		payment.FailureReason = fmt.Sprintf("%s (%s)", cb.ResponseDesc, cb.ResponseCode)
		return tx.Save(&payment).Error
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// VerifyPending is the pull-side of confirmation, used when a callback was
// lost. It asks the gateway for the transaction status and applies the same
// transition rules as the callback path.
func (s *PaymentService) VerifyPending(paymentID, userID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Where("id = ? AND user_id = ?", paymentID, userID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment %d", ErrNotFound, paymentID)
		}
		return nil, err
	}

	if payment.Status != models.PaymentStatusPending {
		return &payment, nil
	}
	if payment.MpesaTransactionID == "" {
		return nil, fmt.Errorf("%w: payment %d was never initiated", ErrInvalidState, paymentID)
	}

	code, err := s.gateway.Verify(payment.MpesaTransactionID)
	if err != nil {
		return nil, err
	}

	return s.applyConfirmation(MpesaCallback{
		ResponseCode:        code,
		TransactionID:       payment.MpesaTransactionID,
		ResponseDesc:        "status verification",
		ThirdPartyReference: payment.TransactionID,
	})
}

// Refund reverses a completed, refundable payment. The gateway reversal must
// succeed before any state changes; an adapter failure leaves the payment
// completed and surfaces to the caller with no automatic retry.
func (s *PaymentService) Refund(paymentID uint, reason string, userID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Where("id = ? AND user_id = ?", paymentID, userID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment %d", ErrNotFound, paymentID)
		}
		return nil, err
	}

	if payment.Status != models.PaymentStatusCompleted {
		return nil, fmt.Errorf("%w: only completed payments can be refunded", ErrInvalidState)
	}
	if !payment.CanBeRefunded() {
		return nil, fmt.Errorf("%w: payment %d", ErrNotRefundable, paymentID)
	}
	if payment.Method != models.PaymentMethodMpesa || payment.MpesaTransactionID == "" {
		return nil, fmt.Errorf("%w: payment %d has no gateway transaction to reverse", ErrNotRefundable, paymentID)
	}

	total := payment.TotalAmount()
	ok, err := s.gateway.Reverse(payment.MpesaTransactionID, total, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: reversal rejected for payment %d", ErrGateway, paymentID)
	}

	refundedAt := time.Now()
	payment.Status = models.PaymentStatusRefunded
	payment.RefundedAt = &refundedAt
	payment.RefundedAmount = &total
	payment.RefundReason = reason
	payment.RefundTransactionID = GenerateTransactionRef("REFUND")

	if err := s.db.Save(&payment).Error; err != nil {
		return nil, err
	}

	return &payment, nil
}

// Get returns a single payment owned by the user
func (s *PaymentService) Get(paymentID, userID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Where("id = ? AND user_id = ?", paymentID, userID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment %d", ErrNotFound, paymentID)
		}
		return nil, err
	}
	return &payment, nil
}

// List returns the user's payments, newest first
func (s *PaymentService) List(userID uint, status models.PaymentStatus, page, limit int) ([]models.Payment, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	query := s.db.Model(&models.Payment{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var payments []models.Payment
	if err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// PaymentStats aggregates a user's payment history
type PaymentStats struct {
	TotalSpent        float64 `json:"total_spent"`
	SpentThisMonth    float64 `json:"spent_this_month"`
	CompletedPayments int     `json:"completed_payments"`
	PendingPayments   int     `json:"pending_payments"`
	FailedPayments    int     `json:"failed_payments"`
	RefundedPayments  int     `json:"refunded_payments"`
}

// Stats is a pure read over the user's payment rows
func (s *PaymentService) Stats(userID uint) (*PaymentStats, error) {
	var payments []models.Payment
	if err := s.db.Where("user_id = ?", userID).Find(&payments).Error; err != nil {
		return nil, err
	}

	monthStart := now.BeginningOfMonth()

	stats := &PaymentStats{}
	for i := range payments {
		p := &payments[i]
		switch p.Status {
		case models.PaymentStatusCompleted:
			stats.TotalSpent += p.TotalAmount()
			stats.CompletedPayments++
			if p.ProcessedAt != nil && !p.ProcessedAt.Before(monthStart) {
				stats.SpentThisMonth += p.TotalAmount()
			}
		case models.PaymentStatusPending:
			stats.PendingPayments++
		case models.PaymentStatusFailed:
			stats.FailedPayments++
		case models.PaymentStatusRefunded:
			stats.RefundedPayments++
		}
	}

	return stats, nil
}

// GenerateTransactionRef builds a globally unique payment reference
func GenerateTransactionRef(prefix string) string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// fall back to the clock, uniqueness is still enforced by the db index
		return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s%d%X", prefix, time.Now().UnixMilli(), buf)
}

// lockForUpdate serializes concurrent writers on the selected rows.
// SQLite (used in tests) has a single writer and no FOR UPDATE support.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
