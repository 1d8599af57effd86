package main

import (
	"aprendimoz/config"
	"aprendimoz/database"
	authRoutes "aprendimoz/routers/authRoutes"
	certificateRoutes "aprendimoz/routers/certificateRoutes"
	courseRoutes "aprendimoz/routers/courseRoutes"
	enrollmentRoutes "aprendimoz/routers/enrollmentRoutes"
	paymentRoutes "aprendimoz/routers/paymentRoutes"
	"aprendimoz/services"
	"aprendimoz/utils"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	services.Init(database.Database.Db, nil)
	services.Certificates.Notifier = utils.NotifyCertificateIssued

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Serve static files, issued certificate PDFs live under /certificates
	app.Static("/", "./public")

	authRoutes.SetupAuthRoutes(app)
	courseRoutes.SetupCourseRoutes(app)
	enrollmentRoutes.SetupEnrollmentRoutes(app)
	paymentRoutes.SetupPaymentRoutes(app)
	certificateRoutes.SetupCertificateRoutes(app)

	utils.InitializeCertificateWorker()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
