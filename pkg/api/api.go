// Package api exposes the reservation flow over JSON/HTTP with gin.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parkshare/pkg/logger"
	"parkshare/service"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc    service.IServiceManager
	health Pinger
	log    logger.ILogger
}

func NewRouter(svc service.IServiceManager, health Pinger, log logger.ILogger) *gin.Engine {
	h := &Handler{svc: svc, health: health, log: log}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors())

	r.GET("/healthz", h.healthz)

	api := r.Group("/api")
	{
		api.POST("/users", h.register)
		api.POST("/users/login", h.login)

		api.GET("/parkings/active", h.listActiveParkings)
		api.GET("/parkings/:id", h.getParking)
	}

	auth := api.Group("", requireUser())
	{
		auth.POST("/parkings", h.createParking)
		auth.GET("/parkings/mine", h.myParkings)

		auth.POST("/reservations", h.createReservation)
		auth.GET("/reservations", h.myReservations)
		auth.GET("/reservations/:id", h.getReservation)
		auth.POST("/reservations/:id/arrived", h.markArrived)
		auth.POST("/reservations/:id/extra-time", h.requestExtraTime)
		auth.POST("/reservations/:id/extra-time/approve", h.approveExtraTime)
		auth.POST("/reservations/:id/extra-time/reject", h.rejectExtraTime)
		auth.POST("/reservations/:id/cancel", h.cancelReservation)
		auth.POST("/reservations/:id/finish", h.finishReservation)

		auth.GET("/notifications", h.listNotifications)
		auth.POST("/notifications/read", h.markNotificationsRead)
		auth.POST("/notifications/clear", h.clearNotifications)

		auth.GET("/driver/stats", h.driverStats)
	}

	return r
}

// RunServer serves until ctx is cancelled, then drains for up to 10s.
func RunServer(ctx context.Context, addr string, svc service.IServiceManager, health Pinger, log logger.ILogger) error {
	gin.SetMode(gin.ReleaseMode)

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(svc, health, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (h *Handler) healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "storage unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
}
