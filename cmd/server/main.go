package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bakery-system/internal/config"
	"bakery-system/internal/database"
	"bakery-system/internal/handlers"
	"bakery-system/internal/kafka"
	"bakery-system/internal/logger"
	"bakery-system/internal/models"
	"bakery-system/internal/redis"
	"bakery-system/internal/services"
)

// Фабричные функции для подключения внешних сервисов (подменяемые в тестах).
var (
	dbConnect        = database.Connect
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	kafkaHealthCheck = handlers.CheckKafkaHealth
	loadConfig       = config.Load
	newLogger        = logger.New
)

// application агрегирует собранные зависимости.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	mux      *http.ServeMux
	server   *http.Server
}

func main() {
	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting bakery system server...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = app.consumer.Stop()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	_ = app.producer.Close()
	_ = app.redis.Close()
	_ = app.db.Close()
	app.log.Info("Server exited")
}

// buildApplication создает все зависимости (подменяемые в тестах).
func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)

	db, err := dbConnect(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	redisClient, err := redisConnect(&cfg.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	producer, err := newKafkaProducer(&cfg.Kafka, log)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	consumer, err := newKafkaConsumer(&cfg.Kafka, log)
	if err != nil {
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	catalogService := services.NewCatalogService(db, log)
	zoneService := services.NewZoneService(db, redisClient, log, cfg.Delivery, time.Duration(cfg.Promo.ZoneCacheTTLSeconds)*time.Second)
	ruleService := services.NewPricingRuleService(db, redisClient, log, time.Duration(cfg.Promo.RuleCacheTTLSeconds)*time.Second)
	promoService := services.NewPromoService(db, log)
	orderService := services.NewOrderService(db, log, catalogService, zoneService, ruleService, promoService, producer)
	analyticsService := services.NewAnalyticsService(db, redisClient, log, &cfg.Analytics)
	rateLimiter := services.NewRateLimiter(redisClient, log, &cfg.RateLimit)

	orderHandler := handlers.NewOrderHandler(orderService, log)
	productHandler := handlers.NewProductHandler(catalogService, log)
	zoneHandler := handlers.NewZoneHandler(zoneService, log)
	ruleHandler := handlers.NewPricingRuleHandler(ruleService, log)
	promoHandler := handlers.NewPromoHandler(promoService, catalogService, zoneService, log)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, log, &cfg.Analytics)
	healthHandler := handlers.NewHealthHandler(db, redisClient, cfg.Kafka.Brokers, kafkaHealthCheck)

	registerEventHandlers(consumer, log)
	if err := consumer.Start(); err != nil {
		_ = consumer.Stop()
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer start: %w", err)
	}

	mux := setupRoutes(orderHandler, productHandler, zoneHandler, ruleHandler, promoHandler, analyticsHandler, healthHandler, rateLimiter, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return &application{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    redisClient,
		producer: producer,
		consumer: consumer,
		mux:      mux,
		server:   server,
	}, nil
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(orderHandler *handlers.OrderHandler, productHandler *handlers.ProductHandler, zoneHandler *handlers.ZoneHandler, ruleHandler *handlers.PricingRuleHandler, promoHandler *handlers.PromoHandler, analyticsHandler *handlers.AnalyticsHandler, healthHandler *handlers.HealthHandler, rateLimiter *services.RateLimiter, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	applyAPI := func(h http.HandlerFunc) http.HandlerFunc {
		return corsMiddleware(handlers.RateLimitMiddleware(rateLimiter, log, h))
	}

	// Health check endpoints
	mux.HandleFunc("/health", corsMiddleware(healthHandler.Health))
	mux.HandleFunc("/health/readiness", corsMiddleware(healthHandler.Readiness))
	mux.HandleFunc("/health/liveness", corsMiddleware(healthHandler.Liveness))

	// Order endpoints
	mux.HandleFunc("/api/orders", applyAPI(handleOrdersRoute(orderHandler)))
	mux.HandleFunc("/api/orders/", applyAPI(handleOrderRoute(orderHandler)))

	// Product catalog endpoints
	mux.HandleFunc("/api/products", applyAPI(handleProductsRoute(productHandler)))
	mux.HandleFunc("/api/products/", applyAPI(handleProductRoute(productHandler)))

	// Delivery zone endpoints
	mux.HandleFunc("/api/zones", applyAPI(handleZonesRoute(zoneHandler)))
	mux.HandleFunc("/api/zones/", applyAPI(handleZoneRoute(zoneHandler)))

	// Pricing rule endpoints
	mux.HandleFunc("/api/pricing-rules", applyAPI(handlePricingRulesRoute(ruleHandler)))
	mux.HandleFunc("/api/pricing-rules/", applyAPI(handlePricingRuleRoute(ruleHandler)))

	// Promo codes endpoints
	mux.HandleFunc("/api/promo-codes", applyAPI(handlePromoCodesRoute(promoHandler)))
	mux.HandleFunc("/api/promo-codes/", applyAPI(handlePromoCodeRoute(promoHandler)))

	// Analytics endpoints
	mux.HandleFunc("/api/analytics/promo-stats", applyAPI(analyticsHandler.GetPromoStats))

	return mux
}

// handleOrdersRoute обрабатывает маршруты для коллекции заказов
func handleOrdersRoute(handler *handlers.OrderHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.GetOrders(w, r)
		case http.MethodPost:
			handler.CreateOrder(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handleOrderRoute обрабатывает маршруты для отдельного заказа
func handleOrderRoute(handler *handlers.OrderHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/status") {
			// Обновление статуса заказа
			if r.Method == http.MethodPut {
				handler.UpdateOrderStatus(w, r)
			} else {
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		} else {
			// Получение заказа по ID
			if r.Method == http.MethodGet {
				handler.GetOrder(w, r)
			} else {
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		}
	}
}

// handleProductsRoute обрабатывает коллекцию товаров
func handleProductsRoute(handler *handlers.ProductHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.ListProducts(w, r)
		case http.MethodPost:
			handler.CreateProduct(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handleProductRoute обрабатывает отдельный товар
func handleProductRoute(handler *handlers.ProductHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.GetProduct(w, r)
		case http.MethodPut:
			handler.UpdateProduct(w, r)
		case http.MethodDelete:
			handler.DeleteProduct(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handleZonesRoute обрабатывает коллекцию зон доставки
func handleZonesRoute(handler *handlers.ZoneHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.ListZones(w, r)
		case http.MethodPost:
			handler.CreateZone(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handleZoneRoute обрабатывает отдельную зону доставки
func handleZoneRoute(handler *handlers.ZoneHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.GetZone(w, r)
		case http.MethodPut:
			handler.UpdateZone(w, r)
		case http.MethodDelete:
			handler.DeleteZone(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handlePricingRulesRoute обрабатывает коллекцию ценовых правил
func handlePricingRulesRoute(handler *handlers.PricingRuleHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.ListPricingRules(w, r)
		case http.MethodPost:
			handler.CreatePricingRule(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handlePricingRuleRoute обрабатывает отдельное ценовое правило
func handlePricingRuleRoute(handler *handlers.PricingRuleHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.GetPricingRule(w, r)
		case http.MethodPut:
			handler.UpdatePricingRule(w, r)
		case http.MethodDelete:
			handler.DeletePricingRule(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handlePromoCodesRoute обрабатывает коллекцию промокодов
func handlePromoCodesRoute(handler *handlers.PromoHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.ListPromoCodes(w, r)
		case http.MethodPost:
			handler.CreatePromoCode(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handlePromoCodeRoute обрабатывает отдельный промокод. Проверка корзины
// диспетчеризуется до извлечения кода из пути.
func handlePromoCodeRoute(handler *handlers.PromoHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/validate") {
			if r.Method == http.MethodPost {
				handler.ValidatePromoCode(w, r)
			} else {
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
			return
		}
		if r.Method == http.MethodGet {
			handler.GetPromoCode(w, r)
			return
		}
		if r.Method == http.MethodPut {
			handler.UpdatePromoCode(w, r)
			return
		}
		if r.Method == http.MethodDelete {
			handler.DeletePromoCode(w, r)
			return
		}
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// registerEventHandlers регистрирует обработчики событий Kafka
func registerEventHandlers(consumer *kafka.Consumer, log *logger.Logger) {
	// Лента для кухни: новые заказы попадают пекарям через события
	consumer.RegisterHandler(models.EventTypeOrderCreated, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing order created event")
		return nil
	})

	consumer.RegisterHandler(models.EventTypeOrderStatusChanged, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing order status changed event")
		return nil
	})

	// Отказы промокодов логируются для последующего разбора в аналитике
	consumer.RegisterHandler(models.EventTypePromoRejected, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing promo rejected event")
		return nil
	})
}

// corsMiddleware и другие helper функции
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	type errorResponse struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
