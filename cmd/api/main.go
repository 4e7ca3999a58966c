package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront-api/internal/config"
	"storefront-api/internal/db"
	"storefront-api/internal/httpserver"
	"storefront-api/internal/payment"
	cardprovider "storefront-api/internal/payment/card"
	installmentprovider "storefront-api/internal/payment/installment"
	cartrepo "storefront-api/internal/repository/cart"
	orderrepo "storefront-api/internal/repository/order"
	productrepo "storefront-api/internal/repository/product"
	sessionrepo "storefront-api/internal/repository/session"
	shopperrepo "storefront-api/internal/repository/shopper"
	wishlistrepo "storefront-api/internal/repository/wishlist"
	cartsvc "storefront-api/internal/service/cart"
	catalogsvc "storefront-api/internal/service/catalog"
	checkoutsvc "storefront-api/internal/service/checkout"
	sessionsvc "storefront-api/internal/service/session"
	shoppersvc "storefront-api/internal/service/shopper"
	stocksvc "storefront-api/internal/service/stock"
	wishlistsvc "storefront-api/internal/service/wishlist"

	"storefront-api/internal/domain"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	sessionRepo := sessionrepo.NewPostgres(dbpool, logger)
	sessionService, err := sessionsvc.New(sessionRepo, cfg.SessionSecret)
	if err != nil {
		logger.Fatalf("init sessions: %v", err)
	}

	productRepo := productrepo.NewPostgres(dbpool, logger)
	catalogService := catalogsvc.New(productRepo)

	cartRepo := cartrepo.NewPostgres(dbpool)
	cartService := cartsvc.New(cartRepo, productRepo)

	wishlistRepo := wishlistrepo.NewPostgres(dbpool)
	wishlistService := wishlistsvc.New(wishlistRepo, productRepo)

	stockService := stocksvc.New(productRepo)

	shopperRepo := shopperrepo.NewPostgres(dbpool)
	shopperService := shoppersvc.New(shopperRepo)

	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	installmentClient := installmentprovider.NewClient(cfg.InstallmentAPIURL, cfg.InstallmentAPIKey, cfg.PublicBaseURL)
	providers := map[string]payment.Provider{
		domain.ProviderCard:        cardprovider.New(cfg.StripeSecretKey, cfg.PublicBaseURL),
		domain.ProviderInstallment: installmentClient,
	}
	checkoutService := checkoutsvc.New(cartRepo, productRepo, orderRepo, stockService, providers, installmentClient, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Sessions:     sessionService,
		Catalog:      catalogService,
		Carts:        cartService,
		Wishlists:    wishlistService,
		Stock:        stockService,
		Checkout:     checkoutService,
		Shoppers:     shopperService,
		Orders:       orderRepo,
		CookieSecure: cfg.CookieSecure,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
