package migrate

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// Verifier inspects the migration tool's bookkeeping table after a run.
type Verifier struct {
	// Table is the migration bookkeeping table, sqlx's by default.
	Table string
}

// NewVerifier creates a Verifier for the sqlx bookkeeping table.
func NewVerifier() *Verifier {
	return &Verifier{Table: "_sqlx_migrations"}
}

// AppliedMigrations connects to the database and counts the recorded
// migrations. It is a sanity check on top of the tool's own exit code, not
// a substitute for it.
func (v *Verifier) AppliedMigrations(databaseURL string) (int64, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return 0, errors.Wrap(err, "failed to open database connection")
	}
	defer db.Close()

	query, args, err := sq.Select("COUNT(*)").
		From(v.Table).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "failed to build migrations query")
	}

	var count int64
	err = db.QueryRow(query, args...).Scan(&count)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to query %s", v.Table)
	}

	return count, nil
}
