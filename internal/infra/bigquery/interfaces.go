package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/brankas/brankas/internal/store"
)

const (
	accountsTable     = "accounts"
	transactionsTable = "transactions"
	debtsTable        = "debts"
	goalsTable        = "goals"
	receiptsTable     = "receipts"
)

// Repository implements store.Store on BigQuery. It holds a shared client
// to avoid creating a new connection for each operation.
//
// BigQuery writes here are single DML statements, so a ledger change that
// spans several rows is not atomic; the service layer compensates.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRepository creates a client for projectID and targets datasetID.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, projectID, datasetID), nil
}

// NewRepositoryWithClient wraps an existing client.
func NewRepositoryWithClient(client *bigquery.Client, projectID, datasetID string) *Repository {
	return &Repository{client: client, projectID: projectID, datasetID: datasetID}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *Repository) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", r.projectID, r.datasetID, name)
}

// exec runs a DML statement and returns the number of affected rows.
func (r *Repository) exec(ctx context.Context, op, sql string, params []bigquery.QueryParameter) (int64, error) {
	q := r.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: running query: %w", op, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("%s: job error: %w", op, err)
	}

	if status.Statistics != nil {
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			return qs.NumDMLAffectedRows, nil
		}
	}
	return 0, nil
}

// execOne runs a DML statement that must touch exactly one row.
func (r *Repository) execOne(ctx context.Context, op, sql string, params []bigquery.QueryParameter) error {
	n, err := r.exec(ctx, op, sql, params)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	return nil
}

// readAll runs a query and collects every row into T.
func readAll[T any](ctx context.Context, client *bigquery.Client, op, sql string, params []bigquery.QueryParameter) ([]T, error) {
	q := client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: reading query: %w", op, err)
	}

	var rows []T
	for {
		var row T
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iterating: %w", op, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readOne returns the single row matched by the query or store.ErrNotFound.
func readOne[T any](ctx context.Context, client *bigquery.Client, op, sql string, params []bigquery.QueryParameter) (T, error) {
	var zero T
	rows, err := readAll[T](ctx, client, op, sql, params)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	return rows[0], nil
}

var _ store.Store = (*Repository)(nil)
