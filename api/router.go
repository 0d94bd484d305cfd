package api

import (
	"net/http"
	"time"

	"campus-canteen/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler, registry *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	r.POST("/sessions", h.CreateSession)
	r.DELETE("/sessions/:id", h.EndSession)

	r.GET("/menu", h.Menu)
	r.GET("/menu/options", h.MenuOptions)

	cart := r.Group("/cart")
	{
		cart.GET("", h.Cart)
		cart.DELETE("", h.ClearCart)
		cart.POST("/items/:id", h.AddToCart)
		cart.DELETE("/items/:id", h.RemoveFromCart)
		cart.PUT("/items/:id", h.SetCartQuantity)
	}

	r.GET("/favorites", h.Favorites)
	r.POST("/favorites/:id", h.ToggleFavorite)

	return r
}

func requestLogger() gin.HandlerFunc {
	log := logger.GetLogger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugw("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
