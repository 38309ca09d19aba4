package sqlstore

import (
	"context"
	"fmt"

	"dompet/internal/core"
)

const accountColumns = "id, user_id, name, type, balance, archived, created_at, updated_at"

func scanAccount(row scanner) (core.Account, error) {
	var (
		a                core.Account
		archived         int64
		created, updated int64
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance, &archived, &created, &updated); err != nil {
		return core.Account{}, err
	}
	a.Archived = archived != 0
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := s.queryRows(ctx, "SELECT "+accountColumns+" FROM accounts WHERE user_id = ? ORDER BY name", userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	a, err := scanAccount(s.queryRow(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = ? AND user_id = ?", id, userID))
	if err != nil {
		return core.Account{}, notFound(err)
	}
	return a, nil
}

func (s *Store) ResolveAccount(ctx context.Context, userID, name, accountType string) (core.Account, error) {
	now := millis(s.now())
	a, err := scanAccount(s.queryRow(ctx, `
		INSERT INTO accounts (id, user_id, name, type, balance, archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, 0, ?, ?)
		ON CONFLICT (user_id, name) DO UPDATE SET archived = 0, updated_at = excluded.updated_at
		RETURNING `+accountColumns,
		core.NewID(), userID, name, accountType, now, now))
	if err != nil {
		return core.Account{}, fmt.Errorf("upsert account %q: %w", name, err)
	}
	return a, nil
}

func (s *Store) IncrementBalance(ctx context.Context, userID, accountID string, delta int64) error {
	err := expectRow(s.exec(ctx,
		"UPDATE accounts SET balance = balance + ?, updated_at = ? WHERE id = ? AND user_id = ?",
		delta, millis(s.now()), accountID, userID))
	if err != nil {
		return fmt.Errorf("increment balance of %s: %w", accountID, err)
	}
	return nil
}

func (s *Store) SumBalances(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := s.queryRow(ctx,
		"SELECT CAST(COALESCE(SUM(balance), 0) AS BIGINT) FROM accounts WHERE user_id = ? AND archived = 0",
		userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum balances: %w", err)
	}
	return total, nil
}

func (s *Store) ArchiveAccount(ctx context.Context, userID, accountID string) error {
	return expectRow(s.exec(ctx,
		"UPDATE accounts SET archived = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		boolInt(true), millis(s.now()), accountID, userID))
}
