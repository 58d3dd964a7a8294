package store

const schemaVersion = 1

var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	created_at     TEXT NOT NULL,
	oracle         TEXT,
	examples       INTEGER NOT NULL,
	configs        INTEGER NOT NULL,
	skipped        INTEGER NOT NULL,
	best_label     TEXT,
	best_accuracy  REAL,
	duration_ms    INTEGER,
	payload        BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at);
`
