package journal

// Schema creates the journal tables. Times are stored as DATETIME in UTC;
// the day queries compare them against UTC bounds.
const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id    TEXT PRIMARY KEY,
	instrument  TEXT NOT NULL,
	side        TEXT NOT NULL CHECK (side IN ('long', 'short')),
	quantity    INTEGER NOT NULL CHECK (quantity > 0),
	entry_price REAL NOT NULL,
	exit_price  REAL NOT NULL,
	open_time   DATETIME NOT NULL,
	close_time  DATETIME NOT NULL,
	realized_pl REAL NOT NULL,
	reason      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time     DATETIME NOT NULL,
	cash     REAL NOT NULL,
	equity   REAL NOT NULL,
	quantity INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);
CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
