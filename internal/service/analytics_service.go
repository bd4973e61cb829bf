package service

import (
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

type analyticsStore interface {
	StatusBreakdown() (map[string]int, error)
	CategoryBreakdown() (map[string]int, error)
	AvgResolutionHours() (float64, error)
	WorkerProductivity() ([]model.WorkerProductivity, error)
	HeatmapPoints() ([]model.HeatmapPoint, error)
	DailyTrends(days int) ([]model.TrendPoint, error)
}

type AnalyticsService struct {
	store analyticsStore
}

func NewAnalyticsService(store analyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

func (s *AnalyticsService) Dashboard(actor *Claims) (*model.DashboardAnalytics, error) {
	if !model.IsOfficialAccount(actor.UserType) {
		return nil, errs.Denied("Only officials can view analytics")
	}

	statuses, err := s.store.StatusBreakdown()
	if err != nil {
		return nil, err
	}
	categories, err := s.store.CategoryBreakdown()
	if err != nil {
		return nil, err
	}
	avgHours, err := s.store.AvgResolutionHours()
	if err != nil {
		return nil, err
	}
	productivity, err := s.store.WorkerProductivity()
	if err != nil {
		return nil, err
	}
	if productivity == nil {
		productivity = []model.WorkerProductivity{}
	}

	return &model.DashboardAnalytics{
		StatusBreakdown:    statuses,
		CategoryBreakdown:  categories,
		AvgResolutionHours: avgHours,
		WorkerProductivity: productivity,
	}, nil
}

func (s *AnalyticsService) Heatmap(actor *Claims) ([]model.HeatmapPoint, error) {
	if !model.IsOfficialAccount(actor.UserType) {
		return nil, errs.Denied("Only officials can view analytics")
	}
	points, err := s.store.HeatmapPoints()
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []model.HeatmapPoint{}
	}
	return points, nil
}

func (s *AnalyticsService) Trends(actor *Claims, days int) ([]model.TrendPoint, error) {
	if !model.IsOfficialAccount(actor.UserType) {
		return nil, errs.Denied("Only officials can view analytics")
	}
	if days <= 0 || days > 90 {
		days = 30
	}
	trends, err := s.store.DailyTrends(days)
	if err != nil {
		return nil, err
	}
	if trends == nil {
		trends = []model.TrendPoint{}
	}
	return trends, nil
}
