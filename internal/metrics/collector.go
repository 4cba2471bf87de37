package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/clubhouse-dev/clubhouse/internal/authz"
	"github.com/clubhouse-dev/clubhouse/internal/models"
	"gorm.io/gorm"
)

// Refresh recomputes the business gauges from the database.
func (m *Metrics) Refresh(ctx context.Context, db *gorm.DB) error {
	var roles int64
	if err := db.WithContext(ctx).Model(&models.CustomRole{}).Count(&roles).Error; err != nil {
		return err
	}
	m.RolesTotal.Set(float64(roles))

	var rows []struct {
		BaseRole authz.BaseRole
		Count    int64
	}
	if err := db.WithContext(ctx).Model(&models.User{}).
		Select("base_role, COUNT(*) AS count").
		Group("base_role").
		Scan(&rows).Error; err != nil {
		return err
	}
	m.UsersTotal.Reset()
	for _, r := range rows {
		m.UsersTotal.WithLabelValues(string(r.BaseRole)).Set(float64(r.Count))
	}
	return nil
}

// RunRefresher refreshes the gauges every interval until ctx is done.
func (m *Metrics) RunRefresher(ctx context.Context, db *gorm.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := m.Refresh(ctx, db); err != nil && ctx.Err() == nil {
			slog.Warn("Failed to refresh metrics", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
