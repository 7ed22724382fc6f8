package main

import (
	"context"
	"log"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	productrepo "storefront/internal/repository/product"
	shippingrepo "storefront/internal/repository/shipping"
	"storefront/internal/seed"
	productsvc "storefront/internal/service/product"
	shippingsvc "storefront/internal/service/shipping"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	products := productsvc.New(productrepo.NewPostgres(pool, logger))
	// No cache: a running API keeps serving cached rates until their TTL expires.
	rates := shippingsvc.New(shippingrepo.NewPostgres(pool, logger), nil, logger)

	if err := seed.Apply(ctx, products, rates); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Println("seed applied")
}
