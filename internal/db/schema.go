package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- REMOVAL TABLE (one row per confirmed duplicate)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS removal SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS session ON removal TYPE string;
    DEFINE FIELD IF NOT EXISTS source ON removal TYPE string;
    DEFINE FIELD IF NOT EXISTS removed_index ON removal TYPE int;
    DEFINE FIELD IF NOT EXISTS kept_index ON removal TYPE int;
    DEFINE FIELD IF NOT EXISTS reason ON removal TYPE string;
    DEFINE FIELD IF NOT EXISTS removed ON removal TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS kept ON removal TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS removed_at ON removal TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS removal_session ON removal FIELDS session;
    DEFINE INDEX IF NOT EXISTS removal_removed_at ON removal FIELDS removed_at;
    -- A load index is removed at most once per session
    DEFINE INDEX IF NOT EXISTS removal_unique ON removal FIELDS session, removed_index UNIQUE;
`
