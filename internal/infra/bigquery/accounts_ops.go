package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/store"
)

const accountColumns = `account_id, account_name, account_type, balance, is_savings, color, created_ts, updated_ts`

// ListAccounts retrieves all accounts, oldest first.
func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_ts, account_id`, accountColumns, r.table(accountsTable))

	rows, err := readAll[AccountRow](ctx, r.client, "ListAccounts", query, nil)
	if err != nil {
		return nil, err
	}
	accounts := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, row.toDomain())
	}
	return accounts, nil
}

func (r *Repository) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE account_id = @account_id LIMIT 1`, accountColumns, r.table(accountsTable))

	row, err := readOne[AccountRow](ctx, r.client, "GetAccount", query, []bigquery.QueryParameter{
		{Name: "account_id", Value: id},
	})
	if err != nil {
		return domain.Account{}, err
	}
	return row.toDomain(), nil
}

func (r *Repository) InsertAccount(ctx context.Context, a domain.Account) error {
	row := accountToRow(a)
	if row.CreatedTS.IsZero() {
		row.CreatedTS = time.Now().UTC()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (@account_id, @account_name, @account_type, @balance, @is_savings, @color, @created_ts, NULL)
	`, r.table(accountsTable), accountColumns)

	_, err := r.exec(ctx, "InsertAccount", query, []bigquery.QueryParameter{
		{Name: "account_id", Value: row.AccountID},
		{Name: "account_name", Value: row.AccountName},
		{Name: "account_type", Value: row.AccountType},
		{Name: "balance", Value: row.Balance},
		{Name: "is_savings", Value: row.IsSavings},
		{Name: "color", Value: row.Color},
		{Name: "created_ts", Value: row.CreatedTS},
	})
	return err
}

func (r *Repository) UpdateAccount(ctx context.Context, a domain.Account) error {
	row := accountToRow(a)
	query := fmt.Sprintf(`
		UPDATE %s
		SET account_name = @account_name,
		    account_type = @account_type,
		    balance = @balance,
		    is_savings = @is_savings,
		    color = @color,
		    updated_ts = CURRENT_TIMESTAMP()
		WHERE account_id = @account_id
	`, r.table(accountsTable))

	return r.execOne(ctx, "UpdateAccount", query, []bigquery.QueryParameter{
		{Name: "account_id", Value: row.AccountID},
		{Name: "account_name", Value: row.AccountName},
		{Name: "account_type", Value: row.AccountType},
		{Name: "balance", Value: row.Balance},
		{Name: "is_savings", Value: row.IsSavings},
		{Name: "color", Value: row.Color},
	})
}

// DeleteAccount removes an account that no transaction references.
func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	type countRow struct {
		N int64 `bigquery:"n"`
	}
	query := fmt.Sprintf(`
		SELECT COUNT(*) AS n FROM %s
		WHERE account_id = @account_id OR to_account_id = @account_id
	`, r.table(transactionsTable))

	c, err := readOne[countRow](ctx, r.client, "DeleteAccount", query, []bigquery.QueryParameter{
		{Name: "account_id", Value: id},
	})
	if err != nil {
		return err
	}
	if c.N > 0 {
		return fmt.Errorf("DeleteAccount: account %s has %d transactions: %w", id, c.N, store.ErrConflict)
	}

	return r.execOne(ctx, "DeleteAccount", fmt.Sprintf(`DELETE FROM %s WHERE account_id = @account_id`, r.table(accountsTable)),
		[]bigquery.QueryParameter{{Name: "account_id", Value: id}})
}
