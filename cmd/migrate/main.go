package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/joho/godotenv"
	"google.golang.org/api/iterator"

	"github.com/brankas/brankas/internal/infra/postgres"
)

// Migration represents a single migration file
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration represents a migration that has already been applied
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

// Pattern to match migration files: 0001_name.sql
var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

func main() {
	_ = godotenv.Load()

	var (
		backend       = flag.String("backend", "bigquery", "Store to migrate: bigquery or postgres")
		projectID     = flag.String("project", os.Getenv("GCP_PROJECT_ID"), "GCP project ID (or set GCP_PROJECT_ID env)")
		datasetID     = flag.String("dataset", envOr("BQ_DATASET", "finance"), "BigQuery dataset ID (or set BQ_DATASET env)")
		databaseURL   = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL URL (or set DATABASE_URL env)")
		appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
		migrationsDir = flag.String("migrations", "migrations/bigquery", "Path to BigQuery migrations directory")
	)
	flag.Parse()

	ctx := context.Background()

	switch *backend {
	case "postgres":
		if *databaseURL == "" {
			log.Fatal("Error: -database-url flag is required for the postgres backend.")
		}
		migratePostgres(ctx, *databaseURL)
	case "bigquery":
		// Validate required flags
		if *projectID == "" {
			log.Fatal("Error: -project flag is required. Please specify your GCP project ID.")
		}
		r := &runner{projectID: *projectID, datasetID: *datasetID, appliedBy: *appliedBy}
		r.migrateBigQuery(ctx, *migrationsDir)
	default:
		log.Fatalf("Error: unknown backend %q", *backend)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// migratePostgres applies the migrations embedded in the postgres store.
func migratePostgres(ctx context.Context, url string) {
	pool, err := postgres.Connect(ctx, url)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pool.Close()

	log.Println("Connected to PostgreSQL")
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	log.Println("PostgreSQL schema is up to date.")
}

// runner applies BigQuery migrations to one dataset.
type runner struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	appliedBy string
}

func (r *runner) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", r.projectID, r.datasetID, name)
}

func (r *runner) migrateBigQuery(ctx context.Context, dir string) {
	// Create BigQuery client
	client, err := bigquery.NewClient(ctx, r.projectID)
	if err != nil {
		log.Fatalf("Failed to create BigQuery client: %v", err)
	}
	defer client.Close()
	r.client = client

	log.Printf("Connected to BigQuery project: %s, dataset: %s", r.projectID, r.datasetID)

	// Ensure schema_migrations table exists
	if err := r.ensureSchemaMigrationsTable(ctx); err != nil {
		log.Fatalf("Failed to ensure schema_migrations table: %v", err)
	}

	// Read migration files
	migrations, err := readMigrations(findDir(dir), r.projectID, r.datasetID)
	if err != nil {
		log.Fatalf("Failed to read migrations: %v", err)
	}

	log.Printf("Found %d migration files", len(migrations))

	// Get applied migrations
	appliedMigrations, err := r.getAppliedMigrations(ctx)
	if err != nil {
		log.Fatalf("Failed to get applied migrations: %v", err)
	}

	log.Printf("Found %d already applied migrations", len(appliedMigrations))

	pending, changed := pendingMigrations(migrations, appliedMigrations)
	for _, m := range changed {
		log.Printf("  [WARN] %04d_%s was edited after it was applied", m.Version, m.Name)
	}
	for _, m := range migrations {
		if !contains(pending, m.Version) {
			log.Printf("  [SKIP] %04d_%s (already applied)", m.Version, m.Name)
		}
	}

	// Apply pending migrations
	for _, migration := range pending {
		log.Printf("  [RUN]  %04d_%s", migration.Version, migration.Name)

		// Execute migration
		if err := r.run(ctx, r.client.Query(migration.SQL)); err != nil {
			log.Fatalf("Failed to execute migration %04d_%s: %v", migration.Version, migration.Name, err)
		}

		// Record migration in schema_migrations
		if err := r.recordMigration(ctx, migration); err != nil {
			log.Fatalf("Failed to record migration %04d_%s: %v", migration.Version, migration.Name, err)
		}

		log.Printf("  [OK]   %04d_%s", migration.Version, migration.Name)
	}

	if len(pending) == 0 {
		log.Println("No new migrations to apply. Database is up to date.")
	} else {
		log.Printf("Successfully applied %d migration(s)", len(pending))
	}
}

// findDir resolves dir from the working directory or the repository root
// when run from cmd/migrate.
func findDir(dir string) string {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if alt := filepath.Join("..", "..", dir); alt != dir {
			if _, err := os.Stat(alt); err == nil {
				return alt
			}
		}
	}
	return dir
}

// readMigrations reads all migration files from dir, ordered by version,
// with the project and dataset placeholders filled in.
func readMigrations(dir, projectID, datasetID string) ([]Migration, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		matches := migrationPattern.FindStringSubmatch(file.Name())
		if matches == nil {
			log.Printf("Skipping file with invalid format: %s", file.Name())
			continue
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil {
			log.Printf("Skipping file with invalid version: %s", file.Name())
			continue
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %04d", prev, file.Name(), version)
		}
		seen[version] = file.Name()

		// Read SQL content
		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", file.Name(), err)
		}

		// Replace placeholders with actual project and dataset
		sql := string(content)
		sql = strings.ReplaceAll(sql, "{{PROJECT_ID}}", projectID)
		sql = strings.ReplaceAll(sql, "{{DATASET_ID}}", datasetID)

		// The checksum covers the file as written, so the same migration
		// matches across projects and datasets.
		checksum := fmt.Sprintf("%x", sha256.Sum256(content))

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     matches[2],
			Filename: file.Name(),
			SQL:      sql,
			Checksum: checksum,
		})
	}

	// Sort by version
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// pendingMigrations returns the migrations not yet applied, and the applied
// ones whose file no longer matches the recorded checksum.
func pendingMigrations(all []Migration, applied []AppliedMigration) (pending, changed []Migration) {
	byVersion := make(map[int]AppliedMigration, len(applied))
	for _, am := range applied {
		byVersion[am.Version] = am
	}
	for _, m := range all {
		am, ok := byVersion[m.Version]
		if !ok {
			pending = append(pending, m)
			continue
		}
		if am.Checksum != "" && am.Checksum != m.Checksum {
			changed = append(changed, m)
		}
	}
	return pending, changed
}

func contains(ms []Migration, version int) bool {
	for _, m := range ms {
		if m.Version == version {
			return true
		}
	}
	return false
}

// ensureSchemaMigrationsTable creates the schema_migrations table if it doesn't exist
func (r *runner) ensureSchemaMigrationsTable(ctx context.Context) error {
	return r.run(ctx, r.client.Query(`
		CREATE TABLE IF NOT EXISTS `+r.table("schema_migrations")+` (
			version       INT64 NOT NULL,
			name          STRING NOT NULL,
			applied_at    TIMESTAMP NOT NULL,
			checksum      STRING,
			applied_by    STRING
		)
	`))
}

// getAppliedMigrations retrieves the list of already applied migrations
func (r *runner) getAppliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	query := r.client.Query(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM ` + r.table("schema_migrations") + `
		ORDER BY version ASC
	`)
	it, err := query.Read(ctx)
	if err != nil {
		// If table doesn't exist yet, return empty list
		if strings.Contains(err.Error(), "Not found") {
			return []AppliedMigration{}, nil
		}
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64
			Name      string
			AppliedAt time.Time
			Checksum  bigquery.NullString
			AppliedBy bigquery.NullString
		}

		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}

		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}

	return applied, nil
}

// recordMigration records a successfully applied migration in schema_migrations
func (r *runner) recordMigration(ctx context.Context, migration Migration) error {
	query := r.client.Query(`
		INSERT INTO ` + r.table("schema_migrations") + `
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`)
	query.Parameters = []bigquery.QueryParameter{
		{Name: "version", Value: migration.Version},
		{Name: "name", Value: migration.Name},
		{Name: "checksum", Value: migration.Checksum},
		{Name: "applied_by", Value: r.appliedBy},
	}
	return r.run(ctx, query)
}

// run executes a query job and waits for it to finish.
func (r *runner) run(ctx context.Context, query *bigquery.Query) error {
	job, err := query.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}
