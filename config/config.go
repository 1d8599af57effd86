package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	JWTKey    string
	SaltRound int

	BaseURL string // public base URL, used for certificate verification links

	MpesaApiURL      string
	MpesaApiKey      string
	MpesaSecretKey   string
	MpesaEnvironment string // sandbox or production
	MpesaProvider    string // service provider code

	VatRate float64 // Mozambique IVA

	EmailSender    string
	SendgridApiKey string

	CertificateDir string // where generated certificate PDFs are written
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		BaseURL: getEnv("BASE_URL", "https://aprendimoz.co.mz"),

		MpesaApiURL:      getEnv("MPESA_API_URL", ""),
		MpesaApiKey:      getEnv("MPESA_API_KEY", ""),
		MpesaSecretKey:   getEnv("MPESA_SECRET", ""),
		MpesaEnvironment: getEnv("MPESA_ENVIRONMENT", "sandbox"),
		MpesaProvider:    getEnv("MPESA_PROVIDER_CODE", "000000"),

		VatRate: getEnvFloat("VAT_RATE", 0.16),

		EmailSender:    getEnv("EMAIL_SENDER", "certificados@aprendimoz.co.mz"),
		SendgridApiKey: getEnv("SENDGRID_API_KEY", ""),

		CertificateDir: getEnv("CERTIFICATE_DIR", "./public/certificates"),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.MpesaEnvironment == "production" && AppConfig.MpesaSecretKey == "" {
		log.Println("Warning: MPESA_SECRET is empty. Callback signatures cannot be verified.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

// getEnvFloat retrieves an environment variable as a float or returns the default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Error converting environment variable %s to float: %v", key, err)
		return defaultValue
	}
	return floatValue
}
