package telemetry

import (
	"database/sql"

	"codeberg.org/mutker/obdctl/internal/errors"
)

// initSchema initializes the database schema for archived observations.
func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS observations (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            run_id TEXT NOT NULL,
            timestamp INTEGER NOT NULL,
            parameter TEXT NOT NULL,
            unit TEXT,
            value TEXT
        );
        CREATE INDEX IF NOT EXISTS idx_observations_run
            ON observations (run_id, timestamp)
    `)
	if err != nil {
		return errors.Wrap(ErrSchemaInitFailed, err)
	}

	return nil
}
