package services

import (
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	mpesaSandboxURL    = "https://sandbox.m-pesa.co.mz/v1"
	mpesaProductionURL = "https://api.m-pesa.co.mz/v1"
)

// MpesaGateway talks to the Vodacom M-Pesa Mozambique open API
type MpesaGateway struct {
	client      *resty.Client
	verify      *resty.Client
	apiKey      string
	provider    string
	environment string
}

// NewMpesaGateway builds a gateway client. Initiate and reverse calls get a
// 30s budget, status checks 10s; a timeout surfaces as a gateway error and is
// never retried here.
func NewMpesaGateway(apiURL, apiKey, provider, environment string) *MpesaGateway {
	if apiURL == "" {
		apiURL = mpesaSandboxURL
		if environment == "production" {
			apiURL = mpesaProductionURL
		}
	}

	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(30*time.Second).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	verify := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(10*time.Second).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	return &MpesaGateway{
		client:      client,
		verify:      verify,
		apiKey:      apiKey,
		provider:    provider,
		environment: environment,
	}
}

type mpesaPaymentResponse struct {
	ResponseCode  string `json:"output_ResponseCode"`
	ResponseDesc  string `json:"output_ResponseDesc"`
	TransactionID string `json:"output_TransactionID"`
}

// Initiate sends the USSD push payment request
func (g *MpesaGateway) Initiate(phone string, amount float64, reference string) (string, error) {
	var result mpesaPaymentResponse

	resp, err := g.client.R().
		SetBody(map[string]interface{}{
			"input_Amount":                   fmt.Sprintf("%.2f", amount),
			"input_Country":                  "MZ",
			"input_Currency":                 "MZN",
			"input_CustomerMSISDN":           phone,
			"input_ServiceProviderCode":      g.provider,
			"input_TransactionReference":     reference,
			"input_ThirdPartyConversationID": generateConversationID(),
			"input_PurchasedItemsDesc":       "Pagamento AprendiMoz",
		}).
		SetResult(&result).
		Post("/payment/request")
	if err != nil {
		return "", fmt.Errorf("%w: initiate: %v", ErrGateway, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: initiate returned %s", ErrGateway, resp.Status())
	}

	log.Printf("[MPESA] Payment initiated: ref=%s code=%s", reference, result.ResponseCode)
	return result.TransactionID, nil
}

// Verify checks the status of a transaction at the gateway
func (g *MpesaGateway) Verify(gatewayTxnID string) (string, error) {
	var result mpesaPaymentResponse

	resp, err := g.verify.R().
		SetResult(&result).
		Get("/transaction/status/" + gatewayTxnID)
	if err != nil {
		return "", fmt.Errorf("%w: verify: %v", ErrGateway, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: verify returned %s", ErrGateway, resp.Status())
	}

	return result.ResponseCode, nil
}

// Reverse refunds a settled transaction at the gateway
func (g *MpesaGateway) Reverse(gatewayTxnID string, amount float64, reason string) (bool, error) {
	var result mpesaPaymentResponse

	resp, err := g.client.R().
		SetBody(map[string]interface{}{
			"input_TransactionID":            gatewayTxnID,
			"input_Amount":                   fmt.Sprintf("%.2f", amount),
			"input_ReversalReason":           reason,
			"input_ThirdPartyConversationID": generateConversationID(),
		}).
		SetResult(&result).
		Post("/payment/reverse")
	if err != nil {
		return false, fmt.Errorf("%w: reverse: %v", ErrGateway, err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("%w: reverse returned %s", ErrGateway, resp.Status())
	}

	log.Printf("[MPESA] Reversal for %s: code=%s", gatewayTxnID, result.ResponseCode)
	return result.ResponseCode == MpesaSuccessCode, nil
}

func generateConversationID() string {
	return fmt.Sprintf("%d_%06d", time.Now().UnixMilli(), rand.Intn(1000000))
}

var nonDigits = regexp.MustCompile(`\D`)

// FormatMpesaPhone normalizes a Mozambican MSISDN to the 258-prefixed form
// the gateway expects.
func FormatMpesaPhone(phone string) string {
	cleaned := nonDigits.ReplaceAllString(phone, "")
	if len(cleaned) >= 3 && cleaned[:3] == "258" {
		return cleaned
	}
	return "258" + cleaned
}

// ValidateMpesaPhone reports whether a phone number can receive M-Pesa
// prompts, returning the normalized form when valid.
func ValidateMpesaPhone(phone string) (string, bool) {
	formatted := FormatMpesaPhone(phone)
	// country code + 9 digit subscriber number
	if len(formatted) != 12 {
		return "", false
	}
	return formatted, true
}
