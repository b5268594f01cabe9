package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/theraloop/theraloop-backend/internal/config"
	"github.com/theraloop/theraloop-backend/internal/controller"
	"github.com/theraloop/theraloop-backend/internal/handler"
	"github.com/theraloop/theraloop-backend/internal/middleware"
	"github.com/theraloop/theraloop-backend/internal/repository"
	"github.com/theraloop/theraloop-backend/internal/service"
	"github.com/theraloop/theraloop-backend/pkg/acuity"
	"github.com/theraloop/theraloop-backend/pkg/database"
	"github.com/theraloop/theraloop-backend/pkg/email"
	"github.com/theraloop/theraloop-backend/pkg/payment"
	"github.com/theraloop/theraloop-backend/pkg/storage"
	"github.com/theraloop/theraloop-backend/pkg/utils"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := config.LoadConfig()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zapLogger.Sync()

	// Initialize database (runs migrations and seeds the package catalog)
	db := database.NewDatabase()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	packageRepo := repository.NewTherapyPackageRepository(db)
	userPackageRepo := repository.NewUserPackageRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Acuity client
	acuityClient := acuity.NewClient(cfg.Acuity.UserID, cfg.Acuity.APIKey)
	if cfg.Acuity.BaseURL != "" {
		acuityClient.BaseURL = cfg.Acuity.BaseURL
	}

	// Report storage (R2)
	reportStorage, err := storage.NewCloudflareStorage(cfg)
	if err != nil {
		log.Fatal("Failed to initialize report storage:", err)
	}

	// Email service
	emailService := email.NewEmailService(zapLogger)

	// Stripe service
	stripeService := payment.NewStripeService(cfg.Stripe.SecretKey, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)

	// Services
	authService := service.NewAuthService(userRepo, emailService)
	userService := service.NewUserService(userRepo, appointmentRepo, activityRepo)
	packageService := service.NewPackageService(packageRepo, userPackageRepo)
	scheduleService := service.NewScheduleService(acuityClient)
	syncService := service.NewSyncService(acuityClient, userRepo, userPackageRepo, activityRepo, zapLogger)
	bookingService := service.NewBookingService(acuityClient, userRepo, userPackageRepo, appointmentRepo, activityRepo, emailService, zapLogger)
	paymentService := service.NewPaymentService(stripeService, acuityClient, userRepo, packageRepo, userPackageRepo, appointmentRepo, activityRepo, zapLogger)
	adminService := service.NewAdminService(acuityClient, userPackageRepo, reportStorage, zapLogger)

	// Controllers
	authController := controller.NewAuthController(authService)
	userController := controller.NewUserController(userService)
	bookingController := controller.NewBookingController(bookingService, syncService)
	paymentController := controller.NewPaymentController(paymentService)
	adminController := controller.NewAdminController(adminService)

	validator := utils.NewValidator()

	// Handlers
	authHandler := handler.NewAuthHandler(authController)
	userHandler := handler.NewUserHandler(userController)
	packageHandler := handler.NewPackageHandler(packageService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService, validator)
	bookingHandler := handler.NewBookingHandler(bookingController, validator)
	paymentHandler := handler.NewPaymentHandler(paymentController, validator, zapLogger)
	adminHandler := handler.NewAdminHandler(adminController, bookingController, validator, zapLogger)

	// Router
	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE",
		AllowCredentials: true,
	}))
	app.Use(logger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	api := app.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)

	// Public catalog and availability
	api.Get("/packages", packageHandler.GetAllPackages)
	api.Get("/packages/:id", packageHandler.GetPackageByID)
	api.Get("/schedule/appointment-types", scheduleHandler.GetAppointmentTypes)
	api.Get("/schedule/calendars", scheduleHandler.GetCalendars)
	api.Get("/schedule/availability/dates", scheduleHandler.GetAvailableDates)
	api.Get("/schedule/availability/times", scheduleHandler.GetAvailableTimes)

	// Stripe webhook (public, signature-verified)
	api.Post("/payments/webhook", paymentHandler.HandleStripeWebhook)

	// Protected routes
	api.Use(middleware.AuthMiddleware())
	{
		user := api.Group("/user")
		user.Get("/profile", userHandler.GetMyProfile)
		user.Put("/profile", userHandler.UpdateProfile)
		user.Post("/change-password", userHandler.ChangePassword)
		user.Get("/appointments", userHandler.GetMyAppointments)
		user.Get("/activity", userHandler.GetMyActivity)
		user.Get("/packages", packageHandler.GetMyPackages)

		bookings := api.Group("/bookings")
		bookings.Post("/package", bookingHandler.BookWithPackage)
		bookings.Post("/cancel", bookingHandler.CancelAppointment)
		bookings.Post("/sync-packages", bookingHandler.SyncPackages)

		payments := api.Group("/payments")
		payments.Get("/history", paymentHandler.GetPurchaseHistory)
		payments.Post("/checkout/:packageId", paymentHandler.CreatePackageCheckout)
		payments.Post("/confirm-purchase", paymentHandler.ConfirmPurchase)
		payments.Post("/confirm-appointment", paymentHandler.ConfirmAppointment)

		admin := api.Group("/admin", middleware.AdminMiddleware())
		admin.Get("/reports/retention", adminHandler.GetRetentionReport)
		admin.Get("/reports/revenue", adminHandler.GetRevenueReport)
		admin.Post("/reports/revenue/export", adminHandler.ExportRevenueReport)
		admin.Post("/sync-certificates", adminHandler.SyncAllCertificates)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Fatal(app.Listen(":" + port))
}
