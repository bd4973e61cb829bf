package repository

import (
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

type AnalyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) StatusBreakdown() (map[string]int, error) {
	return r.countsBy(`SELECT status, COUNT(*) FROM tickets GROUP BY status`)
}

func (r *AnalyticsRepository) CategoryBreakdown() (map[string]int, error) {
	return r.countsBy(`SELECT category, COUNT(*) FROM tickets GROUP BY category`)
}

func (r *AnalyticsRepository) countsBy(query string) (map[string]int, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

// AvgResolutionHours measures creation-to-last-update time over closed tickets.
func (r *AnalyticsRepository) AvgResolutionHours() (float64, error) {
	query := `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (updated_at - created_at)) / 3600), 0)
		FROM tickets
		WHERE status IN ('resolved', 'verified')
	`
	var hours float64
	err := r.db.QueryRow(query).Scan(&hours)
	return hours, err
}

func (r *AnalyticsRepository) WorkerProductivity() ([]model.WorkerProductivity, error) {
	query := `
		SELECT u.id, u.name,
			COUNT(t.id) AS assigned_count,
			COUNT(t.id) FILTER (WHERE t.status IN ('resolved', 'verified')) AS resolved_count
		FROM users u
		LEFT JOIN tickets t
			ON t.assignees @> jsonb_build_array(jsonb_build_object('workerId', u.id::text))
		WHERE u.user_type = 'official' AND u.official_role = 'worker'
		GROUP BY u.id, u.name
		ORDER BY resolved_count DESC, u.name ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.WorkerProductivity
	for rows.Next() {
		var w model.WorkerProductivity
		if err := rows.Scan(&w.WorkerID, &w.WorkerName, &w.AssignedCount, &w.ResolvedCount); err != nil {
			return nil, err
		}
		stats = append(stats, w)
	}
	return stats, rows.Err()
}

// HeatmapPoints returns every geo-located ticket, weighted by co-located count.
func (r *AnalyticsRepository) HeatmapPoints() ([]model.HeatmapPoint, error) {
	query := `
		SELECT latitude, longitude, category, status, COUNT(*) AS weight
		FROM tickets
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		GROUP BY latitude, longitude, category, status
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []model.HeatmapPoint
	for rows.Next() {
		var p model.HeatmapPoint
		if err := rows.Scan(&p.Latitude, &p.Longitude, &p.Category, &p.Status, &p.Weight); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// DailyTrends returns created/resolved counts per day over the trailing window.
func (r *AnalyticsRepository) DailyTrends(days int) ([]model.TrendPoint, error) {
	query := `
		SELECT d::date::text,
			COUNT(t.id) FILTER (WHERE t.created_at::date = d::date),
			COUNT(t.id) FILTER (WHERE t.status IN ('resolved', 'verified') AND t.updated_at::date = d::date)
		FROM generate_series(NOW() - ($1 - 1) * INTERVAL '1 day', NOW(), INTERVAL '1 day') AS d
		LEFT JOIN tickets t
			ON t.created_at::date = d::date
			OR (t.status IN ('resolved', 'verified') AND t.updated_at::date = d::date)
		GROUP BY d::date
		ORDER BY d::date ASC
	`
	rows, err := r.db.Query(query, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trends []model.TrendPoint
	for rows.Next() {
		var p model.TrendPoint
		if err := rows.Scan(&p.Date, &p.Created, &p.Resolved); err != nil {
			return nil, err
		}
		trends = append(trends, p)
	}
	return trends, rows.Err()
}
