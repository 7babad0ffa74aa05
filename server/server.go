package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/ordershop/pkg/config"
	"github.com/example/ordershop/pkg/models"
	"github.com/example/ordershop/pkg/saga"
	"github.com/example/ordershop/pkg/store"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	router *gin.Engine
	saga   *saga.Coordinator
	store  store.OrderStore
	cache  *store.OrderCache
}

// New builds the HTTP server. cache may be nil; order-by-id reads then skip
// the cache layer entirely.
func New(cfg *config.Config, logger *zap.Logger, coordinator *saga.Coordinator, st store.OrderStore, cache *store.OrderCache) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
		saga:   coordinator,
		store:  st,
		cache:  cache,
	}
}

func (s *Server) SetupRoutes() {
	s.router.GET("/health", s.health)

	orders := s.router.Group("/orders")
	{
		orders.GET("", s.listOrders)
		orders.GET("/:id", s.getOrder)
		// gin's routing tree cannot hold a static "user" segment next to the
		// :id wildcard, so /orders/user/:userId goes through the wildcard
		// route and the handler rejects any other first segment.
		orders.GET("/:id/:userId", s.listOrdersByUser)
		orders.POST("", s.createOrder)
		orders.PATCH("/:id/status", s.updateOrderStatus)
		orders.DELETE("/:id", s.deleteOrder)
	}

	// Swagger
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("Order service starting", zap.String("address", addr))
	return s.router.Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   s.config.Server.Name,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"dependencies": gin.H{
			"userService":    s.config.Services.DirectoryURL,
			"productService": s.config.Services.CatalogURL,
		},
	})
}

func (s *Server) listOrders(c *gin.Context) {
	orders, err := s.store.ListAll(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "data": orders})
}

func (s *Server) getOrder(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if s.cache != nil {
		if order, err := s.cache.GetOrder(ctx, id); err == nil && order != nil {
			c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
			return
		}
	}

	order, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Order not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to get order", zap.String("order_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	if s.cache != nil {
		if err := s.cache.SetOrder(ctx, order); err != nil {
			s.logger.Warn("Failed to cache order", zap.String("order_id", id), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

func (s *Server) listOrdersByUser(c *gin.Context) {
	if c.Param("id") != "user" {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Not found"})
		return
	}

	userID := c.Param("userId")
	orders, err := s.store.ListByUser(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error("Failed to list orders by user", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "data": orders})
}

type createOrderRequest struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	order, err := s.saga.Create(c.Request.Context(), req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		c.JSON(creationStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Order created successfully",
		"data":    order,
	})
}

// creationStatus maps a saga outcome to its HTTP status: caller errors and
// business-rule rejections are 400, everything that broke mid-workflow is 500.
func creationStatus(err error) int {
	switch {
	case errors.Is(err, saga.ErrInvalidInput),
		errors.Is(err, saga.ErrUserNotFound),
		errors.Is(err, saga.ErrProductNotFound),
		errors.Is(err, saga.ErrInsufficientStock):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	id := c.Param("id")

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if !models.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   fmt.Sprintf("Invalid status. Must be one of: %s", strings.Join(models.OrderStatuses(), ", ")),
		})
		return
	}

	order, err := s.store.UpdateStatus(c.Request.Context(), id, req.Status)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Order not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to update order status", zap.String("order_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	s.invalidate(c, id)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order status updated successfully",
		"data":    order,
	})
}

func (s *Server) deleteOrder(c *gin.Context) {
	id := c.Param("id")

	err := s.store.Delete(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Order not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to delete order", zap.String("order_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	s.invalidate(c, id)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order deleted successfully",
	})
}

func (s *Server) invalidate(c *gin.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(c.Request.Context(), id); err != nil {
		s.logger.Warn("Failed to invalidate order cache", zap.String("order_id", id), zap.Error(err))
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
