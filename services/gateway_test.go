package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMpesaPhone(t *testing.T) {
	assert.Equal(t, "258841234567", FormatMpesaPhone("841234567"))
	assert.Equal(t, "258841234567", FormatMpesaPhone("+258 84 123 4567"))
	assert.Equal(t, "258841234567", FormatMpesaPhone("258841234567"))
	assert.Equal(t, "258841234567", FormatMpesaPhone("84-123-4567"))
}

func TestValidateMpesaPhone(t *testing.T) {
	formatted, ok := ValidateMpesaPhone("84 123 4567")
	assert.True(t, ok)
	assert.Equal(t, "258841234567", formatted)

	_, ok = ValidateMpesaPhone("12345")
	assert.False(t, ok)

	_, ok = ValidateMpesaPhone("")
	assert.False(t, ok)
}

func TestCallbackSignatureRoundTrip(t *testing.T) {
	cb := MpesaCallback{
		ResponseCode:        MpesaSuccessCode,
		TransactionID:       "MP987",
		ThirdPartyReference: "PAY123",
	}
	cb.SignedData = cb.Sign("secret")

	assert.True(t, cb.VerifySignature("secret"))
	assert.False(t, cb.VerifySignature("other-secret"))

	cb.SignedData = "tampered"
	assert.False(t, cb.VerifySignature("secret"))
}

func TestCallbackSucceeded(t *testing.T) {
	assert.True(t, (&MpesaCallback{ResponseCode: "INS-0"}).Succeeded())
	assert.False(t, (&MpesaCallback{ResponseCode: "INS-6"}).Succeeded())
}
