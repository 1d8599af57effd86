package services

import (
	"aprendimoz/config"

	"gorm.io/gorm"
)

// Shared service instances, wired once at startup
var (
	Payments     *PaymentService
	Enrollments  *EnrollmentService
	Certificates *CertificateService
)

// Init wires the service layer. A nil gateway falls back to the real M-Pesa
// client built from config; tests inject fakes.
func Init(db *gorm.DB, gateway PaymentGateway) {
	cfg := config.AppConfig

	if gateway == nil {
		gateway = NewMpesaGateway(cfg.MpesaApiURL, cfg.MpesaApiKey, cfg.MpesaProvider, cfg.MpesaEnvironment)
	}

	Enrollments = NewEnrollmentService(db)
	Payments = NewPaymentService(db, gateway, Enrollments, cfg.VatRate, cfg.MpesaSecretKey, cfg.MpesaEnvironment != "production")
	Certificates = NewCertificateService(db, cfg.BaseURL, cfg.CertificateDir)
}
