package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/store"
)

const transactionColumns = `id, txn_date, description, amount, type, category, subcategory, account_id,
	to_account_id, receipt_url, struck, transfer_group_id, leg, client_ref, created_at`

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var (
		t      domain.Transaction
		date   pgtype.Date
		amount pgtype.Numeric
		typ    string

		subcategory, toAccount, receipt pgtype.Text
		group, leg, clientRef           pgtype.Text
	)
	err := row.Scan(&t.ID, &date, &t.Description, &amount, &typ, &t.Category, &subcategory, &t.AccountID,
		&toAccount, &receipt, &t.Struck, &group, &leg, &clientRef, &t.CreatedAt)
	if err != nil {
		return domain.Transaction{}, err
	}
	t.Date = fromDate(date)
	t.Amount = fromNumeric(amount)
	t.Type = domain.TransactionType(typ)
	t.Subcategory = subcategory.String
	t.ToAccountID = toAccount.String
	t.ReceiptURL = receipt.String
	t.TransferGroupID = group.String
	t.Leg = domain.Leg(leg.String)
	t.ClientRef = clientRef.String
	return t, nil
}

// transactionArgs returns the positional arguments for transactionColumns.
func transactionArgs(t domain.Transaction) []any {
	return []any{
		t.ID, toDate(t.Date), t.Description, toNumeric(t.Amount), string(t.Type), t.Category,
		toText(t.Subcategory), t.AccountID, toText(t.ToAccountID), toText(t.ReceiptURL), t.Struck,
		toText(t.TransferGroupID), toText(string(t.Leg)), toText(t.ClientRef), createdAt(t.CreatedAt),
	}
}

// listTransactionsSQL builds the filtered query for q.
func listTransactionsSQL(q store.TransactionQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond, val string) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if q.AccountID != "" {
		add("account_id = $%d", q.AccountID)
	}
	if q.TransferGroupID != "" {
		add("transfer_group_id = $%d", q.TransferGroupID)
	}
	if q.ClientRef != "" {
		add("client_ref = $%d", q.ClientRef)
	}

	sql := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	return sql + ` ORDER BY txn_date, created_at, id`, args
}

func (r *Repository) ListTransactions(ctx context.Context, q store.TransactionQuery) ([]domain.Transaction, error) {
	sql, args := listTransactionsSQL(q)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("ListTransactions", err)
	}
	return collect(rows, "ListTransactions", scanTransaction)
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		return domain.Transaction{}, mapError("GetTransaction", err)
	}
	return t, nil
}

func (r *Repository) InsertTransactions(ctx context.Context, txns []domain.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return insertTransactions(ctx, tx, txns)
	})
}

const insertTransactionSQL = `
	INSERT INTO transactions (` + transactionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

func insertTransactions(ctx context.Context, q querier, txns []domain.Transaction) error {
	for _, t := range txns {
		if _, err := q.Exec(ctx, insertTransactionSQL, transactionArgs(t)...); err != nil {
			return mapError("InsertTransactions", err)
		}
	}
	return nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t domain.Transaction) error {
	return updateTransaction(ctx, r.pool, t)
}

// updateTransaction rewrites every column except created_at.
func updateTransaction(ctx context.Context, q querier, t domain.Transaction) error {
	args := transactionArgs(t)
	return execOne(ctx, q, "UpdateTransaction", `
		UPDATE transactions
		SET txn_date = $2, description = $3, amount = $4, type = $5, category = $6, subcategory = $7,
		    account_id = $8, to_account_id = $9, receipt_url = $10, struck = $11,
		    transfer_group_id = $12, leg = $13, client_ref = $14
		WHERE id = $1`,
		args[:len(args)-1]...)
}

// DeleteTransactions removes the given transactions. Missing ids are ignored.
func (r *Repository) DeleteTransactions(ctx context.Context, ids ...string) error {
	return deleteTransactions(ctx, r.pool, ids)
}

func deleteTransactions(ctx context.Context, q querier, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `DELETE FROM transactions WHERE id = ANY($1)`, ids)
	return mapError("DeleteTransactions", err)
}

// Commit writes cs in a single database transaction.
func (r *Repository) Commit(ctx context.Context, cs store.ChangeSet) error {
	if cs.Empty() {
		return nil
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := deleteTransactions(ctx, tx, cs.Delete); err != nil {
			return err
		}
		if err := insertTransactions(ctx, tx, cs.Insert); err != nil {
			return err
		}
		for _, t := range cs.Update {
			if err := updateTransaction(ctx, tx, t); err != nil {
				return err
			}
		}
		for _, a := range cs.Accounts {
			if err := updateAccount(ctx, tx, a); err != nil {
				return err
			}
		}
		return nil
	})
}
