package repository

import (
	"context"
	"database/sql"
	"fmt"

	"boilermon/internal/models"
)

type RuleSQLite struct {
	db *sql.DB
}

func NewRuleSQLite(db *sql.DB) *RuleSQLite {
	return &RuleSQLite{db: db}
}

const selectActiveRulesSQL = `
	SELECT id, site_id, parameter, condition, threshold_min, threshold_max, severity, is_active, created_at
	FROM alert_rules WHERE site_id = ? AND parameter = ? AND is_active = 1
	ORDER BY id
`

// ActiveForParameter returns the active rules matching one (site, parameter)
// pair. Every match fires independently; the evaluator does not deduplicate.
func (r *RuleSQLite) ActiveForParameter(ctx context.Context, siteID, parameter string) ([]models.AlertRule, error) {
	rows, err := r.db.QueryContext(ctx, selectActiveRulesSQL, siteID, parameter)
	if err != nil {
		return nil, fmt.Errorf("list rules for %q/%q: %w", siteID, parameter, err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.AlertRule
	for rows.Next() {
		var (
			rule     models.AlertRule
			min, max sql.NullFloat64
		)
		if err := rows.Scan(
			&rule.ID,
			&rule.SiteID,
			&rule.Parameter,
			&rule.Condition,
			&min,
			&max,
			&rule.Severity,
			&rule.IsActive,
			&rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rule row: %w", err)
		}
		if min.Valid {
			v := min.Float64
			rule.ThresholdMin = &v
		}
		if max.Valid {
			v := max.Float64
			rule.ThresholdMax = &v
		}
		rule.CreatedAt = rule.CreatedAt.UTC()
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule rows: %w", err)
	}
	return out, nil
}
