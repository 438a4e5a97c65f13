package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"RelayGate/global/config"
	"RelayGate/logger"
	"RelayGate/middleware"
	"RelayGate/service/authclient"
	"RelayGate/service/presence"
	"RelayGate/service/relay"
	"RelayGate/service/relay/handlers"
)

func main() {
	cfg, err := config.Load("relaygate")
	if err != nil {
		logger.Errorf("[main] config load failed: %v", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.File)

	auth := authclient.New(cfg.Backend)
	pres := presence.NewManager(cfg.Presence.TypingTimeout)
	srv := relay.NewServer(auth, pres, relay.Options{
		SessionTTL:    cfg.Relay.SessionTTL,
		SweepEvery:    cfg.Relay.SweepEvery,
		MaxPerUser:    cfg.Relay.MaxPerUser,
		AuthTimeout:   cfg.Backend.AuthTimeout,
		FanoutWorkers: cfg.Relay.FanoutWorkers,
		FanoutQueue:   cfg.Relay.FanoutQueue,
		SendQueue:     cfg.Relay.SendQueue,

		RateLimitEvents: cfg.Relay.RateLimitEvents,
		RateLimitBurst:  cfg.Relay.RateLimitBurst,
		RateLimitWindow: cfg.Relay.RateLimitWindow,
	})
	handlers.RegisterAll(srv)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	r.GET("/ws", srv.HandleWS(middleware.OriginChecker(cfg.Server.AllowedOrigins)))
	r.POST("/emit", middleware.EmitAuth(cfg.Server.EmitJWTSecret), srv.HandleEmit)
	r.GET("/health", srv.HandleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	go func() {
		logger.Infof("[main] relay listening on %s (backend %s)", cfg.Server.Addr, cfg.Backend.BaseURL)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("[main] http server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("[main] shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	srv.Close()
}
