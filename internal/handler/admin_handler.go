package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"gym_backend/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves administrative user management
type AdminHandler struct {
	service service.UserService
	logger  *slog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(s service.UserService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{service: s, logger: logger}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "Error listing users", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "Error deleting user", slog.Int64("user_id", id), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// RegisterAdminRoutes registers admin routes behind the given middlewares
func (h *AdminHandler) RegisterAdminRoutes(rg *gin.RouterGroup, mws ...gin.HandlerFunc) {
	adminGroup := rg.Group("/admin", mws...)
	{
		adminGroup.GET("/users", h.ListUsers)
		adminGroup.DELETE("/users/:id", h.DeleteUser)
	}
}
