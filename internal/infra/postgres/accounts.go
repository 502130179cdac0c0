package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/store"
)

const accountColumns = `id, name, kind, balance, is_savings, color, created_at`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var (
		a       domain.Account
		kind    string
		balance pgtype.Numeric
	)
	if err := row.Scan(&a.ID, &a.Name, &kind, &balance, &a.IsSavings, &a.Color, &a.CreatedAt); err != nil {
		return domain.Account{}, err
	}
	a.Kind = domain.AccountKind(kind)
	if k, err := domain.ParseAccountKind(kind); err == nil {
		a.Kind = k
	}
	a.Balance = fromNumeric(balance)
	return a, nil
}

func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, mapError("ListAccounts", err)
	}
	return collect(rows, "ListAccounts", scanAccount)
}

func (r *Repository) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return domain.Account{}, mapError("GetAccount", err)
	}
	return a, nil
}

func (r *Repository) InsertAccount(ctx context.Context, a domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, name, kind, balance, is_savings, color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Name, string(a.Kind), toNumeric(a.Balance), a.IsSavings, a.Color, createdAt(a.CreatedAt))
	return mapError("InsertAccount", err)
}

func (r *Repository) UpdateAccount(ctx context.Context, a domain.Account) error {
	return updateAccount(ctx, r.pool, a)
}

func updateAccount(ctx context.Context, q querier, a domain.Account) error {
	return execOne(ctx, q, "UpdateAccount", `
		UPDATE accounts
		SET name = $2, kind = $3, balance = $4, is_savings = $5, color = $6, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.Name, string(a.Kind), toNumeric(a.Balance), a.IsSavings, a.Color)
}

// DeleteAccount relies on the ON DELETE RESTRICT foreign keys; a referenced
// account comes back as store.ErrConflict.
func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	err := execOne(ctx, r.pool, "DeleteAccount", `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("account %s: %w", id, err)
	}
	return nil
}

var _ store.AccountStore = (*Repository)(nil)
