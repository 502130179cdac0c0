package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// DeleteTransactions removes the given transactions. Missing ids are ignored.
func (r *Repository) DeleteTransactions(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE transaction_id IN UNNEST(@ids)`, r.table(transactionsTable))
	_, err := r.exec(ctx, "DeleteTransactions", query, []bigquery.QueryParameter{
		{Name: "ids", Value: ids},
	})
	return err
}

// deleteByID removes a single row keyed by idColumn and reports
// store.ErrNotFound when nothing matched.
func (r *Repository) deleteByID(ctx context.Context, op, table, idColumn, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = @id`, r.table(table), idColumn)
	return r.execOne(ctx, op, query, []bigquery.QueryParameter{
		{Name: "id", Value: id},
	})
}
