package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/chouseangly/my-app/internal/cart"
	"github.com/chouseangly/my-app/internal/cart/cache"
	"github.com/chouseangly/my-app/internal/cart/consumer"
	"github.com/chouseangly/my-app/internal/cart/repository"
	"github.com/chouseangly/my-app/internal/catalog"
	"github.com/chouseangly/my-app/internal/checkout"
	"github.com/chouseangly/my-app/internal/checkout/journal"
	"github.com/chouseangly/my-app/internal/config"
	h "github.com/chouseangly/my-app/internal/http"
	"github.com/chouseangly/my-app/internal/logger"
	"github.com/chouseangly/my-app/internal/orders"
	"github.com/chouseangly/my-app/internal/pricing"
	"github.com/chouseangly/my-app/internal/profile"
	"github.com/chouseangly/my-app/internal/promotion"
	"github.com/chouseangly/my-app/internal/publisher"
	"github.com/chouseangly/my-app/internal/remote"
	"github.com/chouseangly/my-app/internal/search"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("storefront", cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck
	zap.ReplaceGlobals(log)

	// traceparent flows from the UI through to the remote API
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deliveryFee, err := decimal.NewFromString(cfg.DeliveryFee)
	if err != nil {
		log.Warn("invalid DELIVERY_FEE, using default", zap.String("value", cfg.DeliveryFee))
		deliveryFee = pricing.DefaultDeliveryFee
	}

	// Remote storefront API
	catalogClient := catalog.NewCachedClient(
		catalog.NewClient(remote.NewClient("catalog", cfg.RemoteBaseURL, cfg.RemoteTimeout, log)),
		cfg.CatalogCacheTTL,
	)
	ordersClient := orders.NewClient(remote.NewClient("orders", cfg.RemoteBaseURL, cfg.RemoteTimeout, log))
	profileClient := profile.NewClient(remote.NewClient("profile", cfg.RemoteBaseURL, cfg.RemoteTimeout, log))

	var promotions promotion.Resolver = promotion.Placeholder{}
	if len(cfg.PromotionSigningKey) > 0 {
		promotions = promotion.NewRemote(
			remote.NewClient("promotions", cfg.RemoteBaseURL, cfg.RemoteTimeout, log),
			cfg.PromotionSigningKey,
		)
		log.Info("promotions resolved by remote service")
	} else {
		log.Warn("PROMOTION_SIGNING_KEY not set, using placeholder promotion codes")
	}

	// Cart persistence
	var cartRepo repository.CartRepository = repository.NewMemoryRepository()
	if cfg.MongoURI != "" {
		mongoDB, err := repository.ConnectMongoDB(ctx, repository.MongoOptions{
			URI:            cfg.MongoURI,
			Database:       cfg.MongoDBName,
			AppName:        "storefront",
			MaxPoolSize:    uint64(max(cfg.MongoPoolSize, 0)),
			ConnectTimeout: cfg.MongoTimeout,
		})
		if err != nil {
			log.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
				log.Warn("mongo disconnect failed", zap.Error(err))
			}
		}()
		mongoRepo := repository.NewMongoRepository(mongoDB)
		if err := mongoRepo.CreateIndexes(ctx); err != nil {
			log.Fatal("failed to create cart indexes", zap.Error(err))
		}
		cartRepo = mongoRepo
		log.Info("connected to MongoDB", zap.String("database", cfg.MongoDBName))
	} else {
		log.Warn("MONGO_URI not set, carts are kept in memory")
	}

	var (
		cartCache cache.CartCache = cache.Noop{}
		recent    h.RecentStore   = search.NewMemoryRecentSearches()
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("redis connection failed", zap.Error(err))
		}
		cartCache = cache.NewRedisCache(redisClient, cache.RedisOptions{
			Namespace: cfg.RedisNamespace,
			BaseTTL:   cfg.CartCacheTTL,
			MaxJitter: cfg.CartCacheTTL / 4,
		})
		recent = search.NewRecentSearches(redisClient)
		log.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))
	}

	cartStore := cart.NewStore(cartRepo, cartCache, log)

	if len(cfg.KafkaBrokers) > 0 {
		orderConsumer := consumer.NewOrderPlacedConsumer(cartStore, consumer.NewKafkaReader(cfg.OrderTopic, cfg.KafkaBrokers...), log)
		defer orderConsumer.Close()
		go orderConsumer.Run(ctx)
		log.Info("order placed consumer started", zap.String("group_id", consumer.GroupID))
	}

	// Checkout journal and outbox
	deps := checkout.Deps{
		Cart:        cartStore,
		Catalog:     catalogClient,
		Profiles:    profileClient,
		Orders:      ordersClient,
		Promotions:  promotions,
		DeliveryFee: deliveryFee,
		Logger:      log,
	}
	if cfg.DB.Host != "" {
		creds := &journal.Credentials{
			Host:              cfg.DB.Host,
			Port:              cfg.DB.Port,
			User:              cfg.DB.User,
			Password:          cfg.DB.Password,
			DBName:            cfg.DB.Name,
			MigrationsDirPath: cfg.DB.MigrationsPath,
		}
		repo, err := journal.NewRepository(ctx, creds)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		defer repo.Close()
		if err := repo.RunMigrations(creds); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		log.Info("database migrations completed")
		deps.Journal = repo

		if len(cfg.KafkaBrokers) > 0 {
			writer := publisher.NewKafkaWriter(cfg.OrderTopic, cfg.KafkaBrokers...)
			defer writer.Close()
			go publisher.NewOutboxPoller(repo, writer, log).Run(ctx)
			log.Info("outbox publisher started", zap.String("topic", cfg.OrderTopic), zap.Strings("brokers", cfg.KafkaBrokers))
		}
	} else {
		log.Warn("DB_HOST not set, checkout journal disabled")
	}
	orchestrator := checkout.NewOrchestrator(deps)

	searchService := search.NewService(cfg.SearchDebounce, catalogClient, log)
	defer searchService.Close()

	router := h.NewRouter(h.RouterConfig{
		Auth:               h.NewAuthenticator(cfg.JWTSecret),
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Cart:               h.NewCartHandler(cartStore, catalogClient, deliveryFee, cfg.RequestTimeout, log),
		Checkout:           h.NewCheckoutHandler(orchestrator, cfg.RequestTimeout, log),
		Orders:             h.NewOrdersHandler(ordersClient, cfg.RequestTimeout, log),
		Products:           h.NewProductHandler(catalogClient, cfg.RequestTimeout, log),
		Profile:            h.NewProfileHandler(profileClient, cfg.RequestTimeout, log),
		Search:             h.NewSearchHandler(searchService, recent, cfg.RequestTimeout, log),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server exited")
}
