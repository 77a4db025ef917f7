package main

import (
	"context"
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"invoicegen/internal/caching"
	"invoicegen/internal/config"
	"invoicegen/internal/handlers"
	"invoicegen/internal/jobs"
	"invoicegen/internal/middleware"
	"invoicegen/internal/repositories"
	"invoicegen/internal/services"
	"invoicegen/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pool, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create repositories
	userRepo := repositories.NewUserRepo(pool)
	clientRepo := repositories.NewClientRepo(pool)
	invoiceRepo := repositories.NewInvoiceRepo(pool)
	templateRepo := repositories.NewTemplateRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	// Create object storage
	storageSvc, err := services.NewMinioStorage(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if err := storageSvc.EnsureBucketExists(context.Background()); err != nil {
		log.Printf("WARNING: object storage unavailable: %v", err)
	}

	// Create services
	authSvc := services.NewAuthService(userRepo, cacheSvc, cfg.JWTSecret)
	clientSvc := services.NewClientService(clientRepo)
	invoiceSvc := services.NewInvoiceService(invoiceRepo, clientRepo, templateRepo)
	templateSvc := services.NewTemplateService(templateRepo)
	pdfSvc := services.NewPDFService()
	emailSvc := services.NewEmailService(cfg.Email)
	currencySvc := services.NewCurrencyService(cfg.ExchangeRateAPIURL, cacheSvc)

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(authSvc)
	clientHandlers := handlers.NewClientHandlers(clientSvc)
	invoiceHandlers := handlers.NewInvoiceHandlers(invoiceSvc, clientSvc, authSvc, pdfSvc, emailSvc, storageSvc)
	templateHandlers := handlers.NewTemplateHandlers(templateSvc)
	currencyHandlers := handlers.NewCurrencyHandlers(currencySvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, storageSvc)

	// Background jobs
	scheduler, err := jobs.NewJobScheduler(invoiceRepo)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop scheduler: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadyCheck)

	v1 := e.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)
	auth.POST("/logout", authHandlers.Logout)

	protected := v1.Group("")
	protected.Use(middleware.JWTMiddleware(userRepo, cfg.JWTSecret))

	protected.GET("/auth/me", authHandlers.Me)

	protected.POST("/clients", clientHandlers.CreateClient)
	protected.GET("/clients", clientHandlers.ListClients)
	protected.GET("/clients/:id", clientHandlers.GetClient)
	protected.PUT("/clients/:id", clientHandlers.UpdateClient)
	protected.DELETE("/clients/:id", clientHandlers.DeleteClient)

	protected.POST("/invoices", invoiceHandlers.CreateInvoice)
	protected.GET("/invoices", invoiceHandlers.ListInvoices)
	protected.POST("/invoices/check-duplicate", invoiceHandlers.CheckDuplicate)
	protected.GET("/invoices/:id", invoiceHandlers.GetInvoice)
	protected.PUT("/invoices/:id", invoiceHandlers.UpdateInvoice)
	protected.PATCH("/invoices/:id/status", invoiceHandlers.UpdateInvoiceStatus)
	protected.DELETE("/invoices/:id", invoiceHandlers.DeleteInvoice)
	protected.POST("/invoices/:id/clone", invoiceHandlers.CloneInvoice)
	protected.GET("/invoices/:id/pdf", invoiceHandlers.DownloadPDF)
	protected.POST("/invoices/:id/pdf/upload", invoiceHandlers.UploadPDF)
	protected.POST("/invoices/:id/send", invoiceHandlers.SendInvoice)

	protected.POST("/templates", templateHandlers.CreateTemplate)
	protected.GET("/templates", templateHandlers.ListTemplates)
	protected.GET("/templates/:id", templateHandlers.GetTemplate)
	protected.PUT("/templates/:id", templateHandlers.UpdateTemplate)
	protected.DELETE("/templates/:id", templateHandlers.DeleteTemplate)

	protected.GET("/currencies/rates", currencyHandlers.GetRates)
	protected.GET("/currencies/convert", currencyHandlers.Convert)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Port)))
}
