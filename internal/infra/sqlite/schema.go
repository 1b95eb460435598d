package sqlite

// Schema mirrors the source data set: four entity tables with
// foreign-key relationships. Dates are stored as ISO-8601 day strings so
// lexicographic range scans match chronological order. A unique index on
// (period, category_id) backs the all-or-nothing plan insert.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                INTEGER PRIMARY KEY,
	login             TEXT NOT NULL UNIQUE,
	registration_date TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS credits (
	id                 INTEGER PRIMARY KEY,
	user_id            INTEGER NOT NULL REFERENCES users(id),
	issuance_date      TEXT NOT NULL,
	return_date        TEXT NOT NULL,
	actual_return_date TEXT,
	body               REAL NOT NULL CHECK (body >= 0),
	percent            REAL NOT NULL CHECK (percent >= 0)
);
CREATE INDEX IF NOT EXISTS idx_credits_issuance_date ON credits(issuance_date);
CREATE INDEX IF NOT EXISTS idx_credits_user_id ON credits(user_id);

CREATE TABLE IF NOT EXISTS payments (
	id           INTEGER PRIMARY KEY,
	credit_id    INTEGER NOT NULL REFERENCES credits(id),
	payment_date TEXT NOT NULL,
	type_id      INTEGER NOT NULL,
	sum          REAL NOT NULL CHECK (sum >= 0)
);
CREATE INDEX IF NOT EXISTS idx_payments_payment_date ON payments(payment_date);
CREATE INDEX IF NOT EXISTS idx_payments_credit_id ON payments(credit_id);

CREATE TABLE IF NOT EXISTS plans (
	id          INTEGER PRIMARY KEY,
	period      TEXT NOT NULL,
	sum         REAL NOT NULL CHECK (sum >= 0),
	category_id INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_plans_period_category ON plans(period, category_id);
`
