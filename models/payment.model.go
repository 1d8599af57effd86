package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentMethod defines how a payment is settled
type PaymentMethod string

const (
	PaymentMethodMpesa      PaymentMethod = "mpesa"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodWallet     PaymentMethod = "wallet"
)

// PaymentStatus defines the lifecycle state of a payment.
// Transitions are monotonic: pending -> completed|failed, completed -> refunded.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment is the ledger entry for a purchase attempt. Rows are never deleted;
// they are the financial audit trail.
type Payment struct {
	gorm.Model
	UserID   uint  `gorm:"index;not null" json:"user_id"`
	CourseID *uint `gorm:"index" json:"course_id"`
	ModuleID *uint `gorm:"index" json:"module_id"`

	Amount   float64       `gorm:"not null" json:"amount"`
	Currency string        `gorm:"default:'MZN'" json:"currency"`
	Method   PaymentMethod `gorm:"type:varchar(20);default:'mpesa'" json:"method"`
	Status   PaymentStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	// TransactionID is our reference, generated at creation and sent to the
	// gateway as the correlation id for callbacks.
	TransactionID      string `gorm:"type:varchar(64);uniqueIndex" json:"transaction_id"`
	MpesaTransactionID string `gorm:"type:varchar(100);index" json:"mpesa_transaction_id"`
	MpesaPhoneNumber   string `gorm:"type:varchar(20)" json:"mpesa_phone_number"`

	FailureReason  string         `gorm:"type:text" json:"failure_reason"`
	GatewayPayload datatypes.JSON `json:"-"` // raw callback body, kept for audit

	// Fee and tax are derived at creation time, never client-supplied.
	Fee float64 `gorm:"default:0" json:"fee"`
	Tax float64 `gorm:"default:0" json:"tax"`

	IsRefundable        bool       `gorm:"default:true" json:"is_refundable"`
	RefundedAt          *time.Time `json:"refunded_at"`
	RefundedAmount      *float64   `json:"refunded_amount"`
	RefundReason        string     `json:"refund_reason"`
	RefundTransactionID string     `json:"refund_transaction_id"`

	ProcessedAt *time.Time `json:"processed_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

// TotalAmount is the amount the payer is actually charged
func (p *Payment) TotalAmount() float64 {
	return p.Amount + p.Fee + p.Tax
}

// IsPending reports whether the payment still awaits gateway confirmation
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}

// IsCompleted reports whether the payment settled successfully
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}

// CanBeRefunded reports whether a refund may be requested for this payment
func (p *Payment) CanBeRefunded() bool {
	return p.Status == PaymentStatusCompleted && p.IsRefundable && p.RefundedAt == nil
}

// FormattedAmount renders the base amount with its currency tag
func (p *Payment) FormattedAmount() string {
	return fmt.Sprintf("%s %.2f", p.Currency, p.Amount)
}

// FormattedTotalAmount renders the charged total with its currency tag
func (p *Payment) FormattedTotalAmount() string {
	return fmt.Sprintf("%s %.2f", p.Currency, p.TotalAmount())
}
