package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"biliticket/otpservice/internal/config"
	"biliticket/otpservice/internal/handler/middleware"
)

// SetupRouter mounts the OTP API. metricsHandler may be nil to disable /metrics.
func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	otpHandler *OTPHandler,
	metricsHandler http.Handler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if metricsHandler != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(metricsHandler))
	}

	otp := r.Group("/api/v1/otp")
	{
		otp.POST("/generate", otpHandler.Generate)
		otp.POST("/validate", otpHandler.Validate)
	}

	return r
}
