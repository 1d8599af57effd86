package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// MpesaSuccessCode is the response code the gateway sends for a settled
// transaction. Any other code is a failure.
const MpesaSuccessCode = "INS-0"

// PaymentGateway abstracts the mobile-money API. Calls are bounded by
// timeouts and never retried internally; retry policy belongs to the caller.
type PaymentGateway interface {
	// Initiate pushes a USSD payment prompt to the customer's phone and
	// returns the gateway conversation/transaction id.
	Initiate(phone string, amount float64, reference string) (string, error)
	// Verify returns the gateway's response code for a transaction.
	Verify(gatewayTxnID string) (string, error)
	// Reverse refunds a settled transaction. Returns false without error
	// when the gateway rejects the reversal.
	Reverse(gatewayTxnID string, amount float64, reason string) (bool, error)
}

// MpesaCallback is the payload the gateway POSTs to our callback endpoint
type MpesaCallback struct {
	ResponseCode        string `json:"output_ResponseCode"`
	TransactionID       string `json:"output_TransactionID"`
	ResponseDesc        string `json:"output_ResponseDesc"`
	ThirdPartyReference string `json:"output_ThirdPartyReference"`
	SignedData          string `json:"output_SignedData"`
}

// Succeeded reports whether the callback signals a settled payment
func (cb *MpesaCallback) Succeeded() bool {
	return cb.ResponseCode == MpesaSuccessCode
}

// Sign computes the HMAC-SHA256 signature over the callback fields
func (cb *MpesaCallback) Sign(secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s|%s", cb.ResponseCode, cb.TransactionID, cb.ThirdPartyReference)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks SignedData against the shared secret
func (cb *MpesaCallback) VerifySignature(secret string) bool {
	expected := cb.Sign(secret)
	return hmac.Equal([]byte(expected), []byte(cb.SignedData))
}
