package database

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id             BIGSERIAL PRIMARY KEY,
		capability_key BYTEA NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id         UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS comparisons (
		id         UUID PRIMARY KEY,
		dirname    TEXT NOT NULL,
		image_a    TEXT NOT NULL,
		image_b    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_by BIGINT NOT NULL REFERENCES admins (id),
		CHECK (image_a <> image_b),
		UNIQUE (dirname, image_a, image_b)
	)`,
	`CREATE INDEX IF NOT EXISTS comparisons_dirname_idx ON comparisons (dirname)`,
	`CREATE TABLE IF NOT EXISTS votes (
		id            TEXT PRIMARY KEY,
		comparison_id UUID NOT NULL REFERENCES comparisons (id),
		user_id       UUID NOT NULL REFERENCES users (id),
		value         TEXT NOT NULL CHECK (value IN ('equal', 'different', 'preferred')),
		image         TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		client_ip     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS votes_user_comparison_idx ON votes (user_id, comparison_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		capability_key BLOB NOT NULL,
		created_at     TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS comparisons (
		id         TEXT PRIMARY KEY,
		dirname    TEXT NOT NULL,
		image_a    TEXT NOT NULL,
		image_b    TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		created_by INTEGER NOT NULL REFERENCES admins (id),
		CHECK (image_a <> image_b),
		UNIQUE (dirname, image_a, image_b)
	)`,
	`CREATE INDEX IF NOT EXISTS comparisons_dirname_idx ON comparisons (dirname)`,
	`CREATE TABLE IF NOT EXISTS votes (
		id            TEXT PRIMARY KEY,
		comparison_id TEXT NOT NULL REFERENCES comparisons (id),
		user_id       TEXT NOT NULL REFERENCES users (id),
		value         TEXT NOT NULL CHECK (value IN ('equal', 'different', 'preferred')),
		image         TEXT,
		created_at    TIMESTAMP NOT NULL,
		client_ip     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS votes_user_comparison_idx ON votes (user_id, comparison_id)`,
}
