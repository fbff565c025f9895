package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    run_id               TEXT PRIMARY KEY,
    created_at           TEXT NOT NULL,
    policy               TEXT NOT NULL,
    days_per_month       REAL NOT NULL,
    currency             TEXT,
    tp_rate              REAL NOT NULL DEFAULT 0,
    lt_rate              REAL NOT NULL DEFAULT 0,
    cash_injection       REAL NOT NULL DEFAULT 0,
    adjusted_products    INTEGER NOT NULL DEFAULT 0,
    productivity         REAL,
    monthly_cash         REAL,
    net_monthly_change   REAL,
    survival_months      REAL,
    status               TEXT NOT NULL,
    message              TEXT
);

CREATE TABLE IF NOT EXISTS monthly_history (
    run_id               TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    month                TEXT NOT NULL,
    opening_balance      REAL,
    closing_balance      REAL,
    monthly_outflow      REAL,
    monthly_cash         REAL,
    monthly_net_change   REAL,
    projected_balance    REAL,
    PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS products (
    run_id               TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    throughput           REAL,
    lead_time            REAL,
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`
