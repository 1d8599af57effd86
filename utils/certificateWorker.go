package utils

import (
	"aprendimoz/services"
	"log"

	"github.com/robfig/cron/v3"
)

// InitializeCertificateWorker starts the background job that turns queued
// completion events into issued certificates.
func InitializeCertificateWorker() {
	log.Println("[CERT-WORKER] Initializing certificate worker...")

	c := cron.New()

	// every minute, small batches keep PDF rendering off the request path
	c.AddFunc("* * * * *", func() {
		services.Certificates.ProcessPendingJobs(20)
	})

	c.Start()
	log.Println("[CERT-WORKER] Certificate worker started - runs every minute")
}
