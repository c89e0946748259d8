package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"family-budget-service/internal/adapter/exchangerate"
	"family-budget-service/internal/adapter/postgres"
	"family-budget-service/internal/entity"
	"family-budget-service/internal/handler"
	"family-budget-service/internal/service"
	"family-budget-service/internal/usecase"
	"family-budget-service/pkg/config"
	"family-budget-service/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log := logger.Init(cfg.Log.Level)

	log.Info("Starting app...")

	// initialize db pool and schema
	dbPool, err := postgres.InitDBPool(*cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize db pool")
	}

	if err := postgres.RunMigrations(postgres.BuildDSN(*cfg)); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Info("Migrations applied")

	// initialize adapters
	providerClient := exchangerate.NewClient(
		cfg.Provider.BaseURL,
		time.Duration(cfg.Provider.TimeoutSeconds)*time.Second,
		log,
	)
	log.Info("Initialized rate provider client")

	db := postgres.NewPostgresRepo(dbPool, log)
	log.Info("Initialized database repository")

	// initialize service
	rateService := service.NewRateService(providerClient, db, log)
	log.Info("Initialized service layer")

	// initialize usecase
	displayDefault, _ := entity.Normalize(cfg.Currency.DisplayDefault)
	sourceDefault, _ := entity.Normalize(cfg.Currency.SourceDefault)
	session := usecase.NewConversionSession(rateService, displayDefault, sourceDefault, log)
	log.Infof("Initialized conversion session, display currency %s", session.DisplayCurrency())

	currencyHandler := handler.NewCurrencyHandler(session, log)

	r := gin.Default()

	// cors for the dashboard frontends
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:8080", "http://127.0.0.1:8080"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	r.GET("/currency/convert", currencyHandler.Convert)
	r.GET("/currency/rate", currencyHandler.GetRate)
	r.GET("/currency/currencies", currencyHandler.ListCurrencies)
	r.PUT("/currency/display", currencyHandler.SetDisplayCurrency)
	r.POST("/currency/rates/refresh", currencyHandler.RefreshRates)

	// task scheduler
	c := cron.New()

	// daily rate warm-up
	_, err = c.AddFunc("0 6 * * *", func() {
		log.Info("Auto refreshing rates...")
		ctx := context.Background()
		if err := session.RefreshRates(ctx); err != nil {
			log.Errorf("Error refreshing rates: %v", err)
		} else {
			log.Info("Successfully refreshed rates")
		}
	})
	if err != nil {
		log.Fatalf("Error adding task to scheduler: %v", err)
	}

	c.Start()
	log.Info("Scheduler initialized. Rates refresh every day at 6 AM")

	go func() {
		log.Info("Warming rates on startup...")
		time.Sleep(2 * time.Second)
		ctx := context.Background()
		if err := session.RefreshRates(ctx); err != nil {
			log.Errorf("Error warming rates on startup: %v", err)
		} else {
			log.Info("Successfully warmed rates on startup")
		}
	}()

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Infof("Server starting on port %s...", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Got shutdown signal...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Error server shutdown:", err)
	}
	log.Info("Server stopped")

	c.Stop()
	log.Info("Scheduler stopped")

	dbPool.Close()
	log.Info("Gracefully shutdowned")
}
