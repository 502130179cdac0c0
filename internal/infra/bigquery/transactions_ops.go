package bigquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/store"
)

var transactionFields = []string{
	"transaction_id", "account_id", "transaction_date", "description", "amount",
	"transaction_type", "category_name", "subcategory_name", "to_account_id",
	"receipt_url", "is_struck", "transfer_group_id", "transfer_leg", "client_ref",
	"created_ts",
}

var transactionColumns = strings.Join(transactionFields, ", ") + ", updated_ts"

// ListTransactions returns transactions matching q ordered by date.
func (r *Repository) ListTransactions(ctx context.Context, q store.TransactionQuery) ([]domain.Transaction, error) {
	var where []string
	var params []bigquery.QueryParameter
	if q.AccountID != "" {
		where = append(where, "account_id = @account_id")
		params = append(params, bigquery.QueryParameter{Name: "account_id", Value: q.AccountID})
	}
	if q.TransferGroupID != "" {
		where = append(where, "transfer_group_id = @transfer_group_id")
		params = append(params, bigquery.QueryParameter{Name: "transfer_group_id", Value: q.TransferGroupID})
	}
	if q.ClientRef != "" {
		where = append(where, "client_ref = @client_ref")
		params = append(params, bigquery.QueryParameter{Name: "client_ref", Value: q.ClientRef})
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, transactionColumns, r.table(transactionsTable))
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY transaction_date, created_ts, transaction_id"

	rows, err := readAll[TransactionRow](ctx, r.client, "ListTransactions", query, params)
	if err != nil {
		return nil, err
	}
	txns := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txns = append(txns, row.toDomain())
	}
	return txns, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE transaction_id = @transaction_id LIMIT 1`,
		transactionColumns, r.table(transactionsTable))

	row, err := readOne[TransactionRow](ctx, r.client, "GetTransaction", query, []bigquery.QueryParameter{
		{Name: "transaction_id", Value: id},
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	return row.toDomain(), nil
}

// InsertTransactions writes all rows in one DML statement. DML is used
// instead of the streaming inserter so the rows can be updated or deleted
// straight away.
func (r *Repository) InsertTransactions(ctx context.Context, txns []domain.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	now := time.Now().UTC()
	var values []string
	var params []bigquery.QueryParameter
	for i, t := range txns {
		row := transactionToRow(t)
		if row.CreatedTS.IsZero() {
			row.CreatedTS = now
		}
		names := make([]string, len(transactionFields))
		for j, f := range transactionFields {
			names[j] = fmt.Sprintf("@%s_%d", f, i)
		}
		values = append(values, "("+strings.Join(names, ", ")+", NULL)")
		params = append(params, transactionParams(row, fmt.Sprintf("_%d", i))...)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES %s`,
		r.table(transactionsTable), transactionColumns, strings.Join(values, ",\n"))

	_, err := r.exec(ctx, "InsertTransactions", query, params)
	return err
}

func (r *Repository) UpdateTransaction(ctx context.Context, t domain.Transaction) error {
	row := transactionToRow(t)
	var set []string
	for _, f := range transactionFields {
		if f == "transaction_id" || f == "created_ts" {
			continue
		}
		set = append(set, fmt.Sprintf("%s = @%s", f, f))
	}
	set = append(set, "updated_ts = CURRENT_TIMESTAMP()")

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE transaction_id = @transaction_id`,
		r.table(transactionsTable), strings.Join(set, ", "))

	var params []bigquery.QueryParameter
	for _, p := range transactionParams(row, "") {
		if p.Name != "created_ts" {
			params = append(params, p)
		}
	}
	return r.execOne(ctx, "UpdateTransaction", query, params)
}

func transactionParams(row TransactionRow, suffix string) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "transaction_id" + suffix, Value: row.TransactionID},
		{Name: "account_id" + suffix, Value: row.AccountID},
		{Name: "transaction_date" + suffix, Value: row.TransactionDate},
		{Name: "description" + suffix, Value: row.Description},
		{Name: "amount" + suffix, Value: row.Amount},
		{Name: "transaction_type" + suffix, Value: row.TransactionType},
		{Name: "category_name" + suffix, Value: row.CategoryName},
		{Name: "subcategory_name" + suffix, Value: row.SubcategoryName},
		{Name: "to_account_id" + suffix, Value: row.ToAccountID},
		{Name: "receipt_url" + suffix, Value: row.ReceiptURL},
		{Name: "is_struck" + suffix, Value: row.IsStruck},
		{Name: "transfer_group_id" + suffix, Value: row.TransferGroupID},
		{Name: "transfer_leg" + suffix, Value: row.TransferLeg},
		{Name: "client_ref" + suffix, Value: row.ClientRef},
		{Name: "created_ts" + suffix, Value: row.CreatedTS},
	}
}
