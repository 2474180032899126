// Command tenantctl registers a tenant, prints a bearer token for it and
// can seed the demo pizzeria data.
//
//	tenantctl -name "Bella Napoli" -type pizzeria -credential s3cret-pass -seed
//
// Running it again for an existing tenant checks the credential and prints
// a fresh token.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"kitchen-service/internal/model"
	"kitchen-service/internal/service"
	"kitchen-service/internal/store"
	"kitchen-service/pkg/cache"
	"kitchen-service/pkg/config"
	"kitchen-service/pkg/database"
	"kitchen-service/pkg/jwtutil"
	"kitchen-service/pkg/logger"
)

func main() {
	name := flag.String("name", "", "tenant display name (required)")
	businessType := flag.String("type", model.BusinessOther, "business type: pizzeria, burger, restaurant or other")
	credential := flag.String("credential", "", "tenant credential, at least 8 characters (required)")
	seed := flag.Bool("seed", false, "create the demo ingredients and pizza when the tenant has no ingredients")
	flag.Parse()

	if *name == "" || *credential == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*name, *businessType, *credential, *seed); err != nil {
		fmt.Fprintln(os.Stderr, "tenantctl:", err)
		os.Exit(1)
	}
}

func run(name, businessType, credential string, seed bool) error {
	cfg, err := config.Load("kitchen-service")
	if err != nil {
		return err
	}
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: "tenantctl",
	}); err != nil {
		return err
	}
	log := logger.GetLogger()
	defer log.Sync()

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close(db)
	if err := database.MigrateModels(db, model.AllModels()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx := logger.WithContext(context.Background(), log)
	scope := store.NewScope(db)
	registry := service.NewTenantRegistry(scope)

	tenant, err := registry.Authenticate(ctx, name, credential)
	switch {
	case errors.Is(err, service.ErrBadCredential):
		if _, lookupErr := scope.Read(ctx).Tenants.GetByName(name); lookupErr == nil {
			return err
		}
		tenant, err = registry.Register(ctx, name, businessType, credential)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		log.Info("Tenant already registered", zap.Uint("tenant_id", tenant.ID))
	}

	if seed {
		if err := seedDemo(ctx, scope, cfg, tenant.ID); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})
	token, err := jwt.GenerateTenantToken(tenant.ID, tenant.Name, tenant.BusinessType)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	fmt.Printf("tenant_id: %d\n", tenant.ID)
	fmt.Printf("token: %s\n", token)
	return nil
}

func seedDemo(ctx context.Context, scope *store.Scope, cfg *config.Config, tenantID uint) error {
	log := logger.FromContext(ctx)

	n, err := scope.Read(ctx).Ingredients.Count(tenantID)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info("Tenant already has ingredients, skipping seed", zap.Int64("ingredients", n))
		return nil
	}

	// a running server may have cached the tenant's empty product list
	var productCache cache.Cache
	if cfg.Redis.Enabled() {
		client, err := cache.InitRedis(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		productCache = cache.NewRedisCache(client, cfg.Redis.CacheTTL)
	}

	ledger := service.NewLedger(scope, productCache, cfg.Inventory.DefaultMinStockLevel)
	product, err := service.SeedDemo(ctx, ledger, service.NewCatalog(scope, productCache), tenantID)
	if err != nil {
		return err
	}
	log.Info("Demo data seeded",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("product_id", product.ID),
		zap.String("production_cost", product.ProductionCost.String()))
	return nil
}
