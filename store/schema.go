package store

// Schema contains the complete DDL. Applied idempotently on every open;
// there is no migration machinery. Timestamps are Unix seconds assigned
// by the store at insert time.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    email      TEXT NOT NULL,
    topic      TEXT NOT NULL,
    mcq_text   TEXT NOT NULL,
    pdf_path   TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_email ON history(email, created_at DESC);
`
