// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	instrument TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	period INTEGER NOT NULL,
	smooth_period INTEGER NOT NULL,
	threshold REAL NOT NULL,
	source TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	finished_at DATETIME,
	bars INTEGER NOT NULL DEFAULT 0,
	full_recomputes INTEGER NOT NULL DEFAULT 0,
	incremental_passes INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS readings (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	bar_time DATETIME NOT NULL,
	strength REAL NOT NULL,
	level REAL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_readings_bar_time ON readings(bar_time);
`
