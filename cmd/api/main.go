package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/events"
	"storefront/internal/httpserver"
	"storefront/internal/platform/keylock"
	cartrepo "storefront/internal/repository/cart"
	customerrepo "storefront/internal/repository/customer"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	shippingrepo "storefront/internal/repository/shipping"
	tokenrepo "storefront/internal/repository/token"
	anonymoussvc "storefront/internal/service/anonymous"
	cartsvc "storefront/internal/service/cart"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	reordersvc "storefront/internal/service/reorder"
	shippingsvc "storefront/internal/service/shipping"
)

const guestPurgeInterval = time.Hour

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	var rateCache shippingsvc.RateCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Printf("redis not reachable at %s, shipping cache degraded: %v", cfg.RedisAddr, err)
		}
		cancel()
		rateCache = shippingsvc.NewRedisCache(rdb, cfg.ShippingCacheTTL)
	}

	var publisher ordersvc.Events = events.NewLogPublisher(logger)
	if cfg.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			logger.Fatalf("connect to amqp: %v", err)
		}
		defer conn.Close()
		rabbit, err := events.NewRabbitPublisher(conn, cfg.EventsQueue)
		if err != nil {
			logger.Fatalf("init event publisher: %v", err)
		}
		defer rabbit.Close()
		publisher = rabbit
	}

	locks := keylock.New()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	productService := productsvc.New(productRepo)
	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool), productRepo, locks, logger)
	customerService := customersvc.New(customerrepo.NewPostgres(dbpool, logger), logger)
	shippingService := shippingsvc.New(shippingrepo.NewPostgres(dbpool, logger), rateCache, logger)
	guestService := anonymoussvc.New(tokenrepo.NewPostgres(dbpool), cfg.GuestTokenTTL)

	orderService, err := ordersvc.New(ordersvc.Deps{
		Orders:    orderrepo.NewPostgres(dbpool, productRepo, cfg.OrderNumberPrefix, logger),
		Catalog:   productRepo,
		Shipping:  shippingService,
		Customers: customerService,
		Carts:     cartService,
		Events:    publisher,
		Locks:     locks,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatalf("init order service: %v", err)
	}
	reorderService := reordersvc.New(orderService, productRepo, cartService, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		GuestSvc:    guestService,
		CartSvc:     cartService,
		OrderSvc:    orderService,
		ReorderSvc:  reorderService,
		ShippingSvc: shippingService,
		CustomerSvc: customerService,
		ProductSvc:  productService,
	}, cfg.CORSAllowOrigins)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go purgeGuestTokens(purgeCtx, guestService, logger)

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

func purgeGuestTokens(ctx context.Context, guests *anonymoussvc.Service, logger *log.Logger) {
	ticker := time.NewTicker(guestPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := guests.PurgeExpired(ctx)
			if err != nil {
				logger.Printf("purge guest tokens: %v", err)
				continue
			}
			if n > 0 {
				logger.Printf("purged %d expired guest tokens", n)
			}
		}
	}
}
