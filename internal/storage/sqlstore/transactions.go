package sqlstore

import (
	"context"
	"fmt"
	"strconv"

	"dompet/internal/calendar"
	"dompet/internal/core"
	"dompet/internal/query"
	"dompet/internal/storage"
)

const transactionColumns = "id, user_id, account_id, category_id, kind, amount, note, occurred_at, created_at, updated_at"

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		t                          core.Transaction
		kind                       string
		occurred, created, updated int64
	)
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &kind, &t.Amount, &t.Note, &occurred, &created, &updated)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.Kind(kind)
	t.OccurredAt = fromMillis(occurred)
	t.CreatedAt = fromMillis(created)
	t.UpdatedAt = fromMillis(updated)
	return t, nil
}

func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) error {
	_, err := s.exec(ctx,
		"INSERT INTO transactions ("+transactionColumns+", note_folded) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.UserID, t.AccountID, t.CategoryID, string(t.Kind), t.Amount, t.Note,
		millis(t.OccurredAt), millis(t.CreatedAt), millis(t.UpdatedAt), query.Fold(t.Note))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := scanTransaction(s.queryRow(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND user_id = ?", id, userID))
	if err != nil {
		return core.Transaction{}, notFound(err)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	err := expectRow(s.exec(ctx, `
		UPDATE transactions
		SET account_id = ?, category_id = ?, amount = ?, note = ?, note_folded = ?, occurred_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.AccountID, t.CategoryID, t.Amount, t.Note, query.Fold(t.Note), millis(t.OccurredAt), millis(t.UpdatedAt),
		t.ID, t.UserID))
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	err := expectRow(s.exec(ctx, "DELETE FROM transactions WHERE id = ? AND user_id = ?", id, userID))
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

func (s *Store) CountTransactions(ctx context.Context, f query.Filter) (int, error) {
	where, args, err := s.dialect.where(f)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM transactions WHERE "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (s *Store) FindTransactions(ctx context.Context, f query.Filter, page query.Page) ([]core.Transaction, error) {
	where, args, err := s.dialect.where(f)
	if err != nil {
		return nil, err
	}
	q := "SELECT " + transactionColumns + " FROM transactions WHERE " + where + " ORDER BY occurred_at DESC, id DESC"
	if page.Limit > 0 {
		q += " LIMIT " + strconv.Itoa(page.Limit)
	} else if page.Skip > 0 && s.dialect.unboundedLimit != "" {
		q += " " + s.dialect.unboundedLimit
	}
	if page.Skip > 0 {
		q += " OFFSET " + strconv.Itoa(page.Skip)
	}

	rows, err := s.queryRows(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) aggregate(ctx context.Context, expr string, f query.Filter) (int64, error) {
	where, args, err := s.dialect.where(f)
	if err != nil {
		return 0, err
	}
	var v int64
	q := "SELECT CAST(COALESCE(" + expr + ", 0) AS BIGINT) FROM transactions WHERE " + where
	if err := s.queryRow(ctx, q, args...).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func (s *Store) SumAmount(ctx context.Context, f query.Filter) (int64, error) {
	v, err := s.aggregate(ctx, "SUM(amount)", f)
	if err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return v, nil
}

func (s *Store) MaxAmount(ctx context.Context, f query.Filter) (int64, error) {
	v, err := s.aggregate(ctx, "MAX(amount)", f)
	if err != nil {
		return 0, fmt.Errorf("max transaction: %w", err)
	}
	return v, nil
}

func (s *Store) SumByCategory(ctx context.Context, f query.Filter) ([]storage.CategoryTotal, error) {
	where, args, err := s.dialect.where(f)
	if err != nil {
		return nil, err
	}
	rows, err := s.queryRows(ctx, `
		SELECT category_id, CAST(SUM(amount) AS BIGINT) AS total
		FROM transactions WHERE `+where+`
		GROUP BY category_id
		ORDER BY total DESC, category_id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var out []storage.CategoryTotal
	for rows.Next() {
		var ct storage.CategoryTotal
		if err := rows.Scan(&ct.CategoryID, &ct.Amount); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

func (s *Store) SumByDay(ctx context.Context, f query.Filter) ([]storage.DayTotal, error) {
	where, args, err := s.dialect.where(f)
	if err != nil {
		return nil, err
	}
	// Civil day number; occurrence instants are never before the epoch.
	day := fmt.Sprintf("((occurred_at + %d) / 86400000)", calendar.OffsetMillis)
	rows, err := s.queryRows(ctx, `
		SELECT CAST(`+day+` AS BIGINT) AS civil_day, CAST(SUM(amount) AS BIGINT)
		FROM transactions WHERE `+where+`
		GROUP BY civil_day
		ORDER BY civil_day ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by day: %w", err)
	}
	defer rows.Close()

	var out []storage.DayTotal
	for rows.Next() {
		var (
			n     int64
			total int64
		)
		if err := rows.Scan(&n, &total); err != nil {
			return nil, fmt.Errorf("scan day total: %w", err)
		}
		out = append(out, storage.DayTotal{Day: calendar.CivilDayStart(n), Amount: total})
	}
	return out, rows.Err()
}
