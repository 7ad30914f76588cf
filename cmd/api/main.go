// Oxipay Payments Microservice
//
// This is the main entry point for the payment adapter service.
// It wires up all dependencies and starts the HTTP server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopstack/oxipay-payments/config"
	"github.com/shopstack/oxipay-payments/internal/api"
	"github.com/shopstack/oxipay-payments/internal/logging"
	"github.com/shopstack/oxipay-payments/internal/oxipay"
	"github.com/shopstack/oxipay-payments/internal/payment"
	"github.com/shopstack/oxipay-payments/internal/platform/storecore"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().
		Str("port", cfg.Server.Port).
		Str("core_url", cfg.Core.BaseURL).
		Bool("sandbox", cfg.Oxipay.UseSandbox).
		Msg("starting oxipay payments service")

	// Validate required configuration
	if cfg.Oxipay.MerchantID == "" || cfg.Oxipay.EncryptionKey == "" {
		log.Fatal().Msg("OXIPAY_MERCHANT_ID and OXIPAY_ENCRYPTION_KEY are required")
	}
	if cfg.Core.APIKey == "" {
		log.Warn().Msg("STORE_CORE_API_KEY not set")
	}

	region := oxipay.ParseRegion(cfg.Oxipay.Region)

	// Wire up dependencies (manual dependency injection)
	//
	// Infrastructure Layer
	coreClient := storecore.NewClient(cfg.Core.BaseURL, cfg.Core.APIKey, cfg.Oxipay.HTTPTimeout)
	verifier := oxipay.NewVerifier(oxipay.CheckoutURL(cfg.Oxipay.UseSandbox, region), cfg.Oxipay.HTTPTimeout, log)
	refunder := oxipay.NewRefundSender(oxipay.RefundURL(cfg.Oxipay.UseSandbox, region), cfg.Oxipay.HTTPTimeout)

	// Service Layer
	paymentService := payment.NewService(
		coreClient, // implements domain.OrderRepository
		coreClient, // implements domain.OrderProcessor
		verifier,
		refunder,
		payment.Config{
			Merchant: oxipay.MerchantConfig{
				MerchantID:    cfg.Oxipay.MerchantID,
				EncryptionKey: cfg.Oxipay.EncryptionKey,
				Sandbox:       cfg.Oxipay.UseSandbox,
				Region:        region,
				StoreBaseURL:  cfg.Store.BaseURL,
				ShopName:      cfg.Store.Name,
				CurrencyCode:  cfg.Store.CurrencyCode,
			},
			MinimumOrderTotal: cfg.Oxipay.MinimumOrderTotal,
			MaximumOrderTotal: cfg.Oxipay.MaximumOrderTotal,
			OnlineRefunds:     cfg.Oxipay.OnlineRefunds,
		},
		log,
	)

	// API Layer
	handler := api.NewHandler(paymentService, coreClient, cfg.Store.BaseURL, log)
	router := api.SetupRouter(handler, cfg.Server.GinMode)

	// Start server in a goroutine
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	go func() {
		log.Info().Str("addr", serverAddr).Msg("server listening")
		if err := router.Run(serverAddr); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
}
