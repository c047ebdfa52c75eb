package repository

import (
	"context"
	"fmt"

	"github.com/sitecraft/sitecraft-identity/internal/model"
)

// StatsRepository computes the admin dashboard aggregates.
type StatsRepository struct {
	db DBTX
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(db DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

const statsQuery = `SELECT
	(SELECT COUNT(*) FROM users WHERE is_admin = FALSE),
	(SELECT COUNT(*) FROM projects),
	(SELECT COUNT(*) FROM projects WHERE published = TRUE),
	(SELECT COALESCE(SUM(energy), 0) FROM users WHERE is_admin = FALSE)`

// Get returns the current aggregates. Admin accounts are excluded from the
// user count and the energy total.
func (r *StatsRepository) Get(ctx context.Context) (model.Stats, error) {
	var s model.Stats
	err := r.db.QueryRowContext(ctx, statsQuery).Scan(
		&s.TotalUsers, &s.TotalProjects, &s.TotalPublished, &s.TotalEnergyDistributed,
	)
	if err != nil {
		return model.Stats{}, fmt.Errorf("querying stats: %w", err)
	}
	return s, nil
}
