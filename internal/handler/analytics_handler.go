package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/middleware"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/service"
)

type analyticsService interface {
	Dashboard(actor *service.Claims) (*model.DashboardAnalytics, error)
	Heatmap(actor *service.Claims) ([]model.HeatmapPoint, error)
	Trends(actor *service.Claims, days int) ([]model.TrendPoint, error)
}

type AnalyticsHandler struct {
	analytics analyticsService
}

func NewAnalyticsHandler(analytics analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Handles GET /api/analytics/dashboard
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	dashboard, err := h.analytics.Dashboard(claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, dashboard)
}

// Handles GET /api/analytics/heatmap
func (h *AnalyticsHandler) Heatmap(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	points, err := h.analytics.Heatmap(claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"points": points, "total": len(points)})
}

// Handles GET /api/analytics/trends?days=30
func (h *AnalyticsHandler) Trends(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	trends, err := h.analytics.Trends(claims, days)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"trends": trends})
}
