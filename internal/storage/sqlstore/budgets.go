package sqlstore

import (
	"context"
	"fmt"

	"dompet/internal/calendar"
	"dompet/internal/core"
)

func (s *Store) ActiveBudget(ctx context.Context, userID string, window calendar.Range) (core.Budget, error) {
	var (
		b                     core.Budget
		scope, period, levels string
		start, end            int64
		created, updated      int64
	)
	err := s.queryRow(ctx, `
		SELECT id, user_id, scope, period, start_date, end_date, limit_amount, alert_thresholds, created_at, updated_at
		FROM budgets
		WHERE user_id = ? AND scope = ? AND period = ? AND start_date <= ? AND end_date >= ?
		ORDER BY end_date DESC
		LIMIT 1`,
		userID, string(core.ScopeOverall), string(core.PeriodMonthly), millis(window.End), millis(window.Start),
	).Scan(&b.ID, &b.UserID, &scope, &period, &start, &end, &b.LimitAmount, &levels, &created, &updated)
	if err != nil {
		return core.Budget{}, notFound(err)
	}
	b.Scope = core.BudgetScope(scope)
	b.Period = core.BudgetPeriod(period)
	b.StartDate = fromMillis(start)
	b.EndDate = fromMillis(end)
	b.AlertThresholds = splitLevels(levels)
	b.CreatedAt = fromMillis(created)
	b.UpdatedAt = fromMillis(updated)
	return b, nil
}

func (s *Store) UpsertBudget(ctx context.Context, b core.Budget) error {
	if b.ID == "" {
		b.ID = core.NewID()
	}
	_, err := s.exec(ctx, `
		INSERT INTO budgets (id, user_id, scope, period, start_date, end_date, limit_amount, alert_thresholds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, scope, period, start_date, end_date) DO UPDATE SET
			limit_amount = excluded.limit_amount,
			alert_thresholds = excluded.alert_thresholds,
			updated_at = excluded.updated_at`,
		b.ID, b.UserID, string(b.Scope), string(b.Period), millis(b.StartDate), millis(b.EndDate),
		b.LimitAmount, joinLevels(b.AlertThresholds), millis(b.CreatedAt), millis(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}
