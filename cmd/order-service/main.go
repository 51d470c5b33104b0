package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ordeneslab/orders-service/internal/catalog"
	"github.com/ordeneslab/orders-service/internal/config"
	"github.com/ordeneslab/orders-service/internal/db"
	"github.com/ordeneslab/orders-service/internal/events"
	"github.com/ordeneslab/orders-service/internal/httpx"
	"github.com/ordeneslab/orders-service/internal/logging"
	"github.com/ordeneslab/orders-service/internal/metrics"
	ord "github.com/ordeneslab/orders-service/internal/order"
	"github.com/ordeneslab/orders-service/internal/payment"
)

func main() {
	log := logging.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	if err := db.Migrate(cfg.PostgresDSN); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	cat := catalog.NewCachedClient(catalog.NewHTTPClient(cfg.CatalogBaseURL), rdb, 30*time.Second, log)
	gateway := payment.NewHTTPGateway(cfg.PaymentBaseURL)
	reg := metrics.NewRegistry()

	store := ord.NewPGStore(pool)
	svc := ord.NewService(store, cat, gateway, cfg.Currency, reg, log)

	consumer := events.NewConsumer(log, cfg.KafkaBrokers, cfg.PaymentsTopic, cfg.KafkaGroupID, svc)
	go func() {
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("payment consumer stopped", "err", err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(reg.Handler()))

	r.POST("/orders", createOrderHandler(svc))
	r.GET("/orders", listOrdersHandler(svc))
	r.GET("/orders/:id", getOrderHandler(svc))
	r.PUT("/orders/:id/status", updateOrderStatusHandler(svc))
	r.POST("/orders/:id/payment-session", retryPaymentSessionHandler(svc))
	r.DELETE("/orders/:id", deleteOrderHandler(svc))
	r.POST("/webhooks/payment", paymentWebhookHandler(svc, cfg.WebhookSecret))

	srv := &http.Server{
		Addr:         cfg.OrderSvcAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("order-service listening", "addr", cfg.OrderSvcAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("order-service shutdown complete")
}
