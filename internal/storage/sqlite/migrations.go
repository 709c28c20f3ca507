package sqlite

// schema contains the database schema DDL.
// Timestamps are Unix milliseconds.
const schema = `
-- Sessions
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL,
    last_seen INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_last_seen ON sessions(last_seen);

-- Log entries, append-only per session
CREATE TABLE IF NOT EXISTS entries (
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    fasting INTEGER NOT NULL CHECK (fasting >= 0),
    postprandial INTEGER NOT NULL CHECK (postprandial >= 0),
    hba1c REAL NOT NULL,
    recorded_at INTEGER NOT NULL,
    PRIMARY KEY (session_id, seq)
);
`
