package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store persists operator settings in a single-row sqlite table so mute state
// and relay configuration survive restarts.
type Store struct {
	db *sql.DB
}

// Settings is the operator-tunable state kept across restarts.
type Settings struct {
	RelayEndpoint string `json:"relay_endpoint"`
	RelaySecret   string `json:"relay_secret"`
	Muted         bool   `json:"muted"`
}

// Open opens (creating if needed) the settings database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS settings (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    relay_endpoint TEXT NOT NULL DEFAULT '',
    relay_secret   TEXT NOT NULL DEFAULT '',
    muted          INTEGER NOT NULL DEFAULT 0,
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);
INSERT OR IGNORE INTO settings (id) VALUES (1);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate settings db: %w", err)
	}
	return nil
}

// Load reads the persisted settings row.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	var out Settings
	var muted int
	err := s.db.QueryRowContext(ctx,
		`SELECT relay_endpoint, relay_secret, muted FROM settings WHERE id = 1`,
	).Scan(&out.RelayEndpoint, &out.RelaySecret, &muted)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	out.Muted = muted != 0
	return out, nil
}

// Save replaces the persisted settings row.
func (s *Store) Save(ctx context.Context, set Settings) error {
	muted := 0
	if set.Muted {
		muted = 1
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE settings SET relay_endpoint = ?, relay_secret = ?, muted = ?, updated_at = datetime('now') WHERE id = 1`,
		set.RelayEndpoint, set.RelaySecret, muted)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Health verifies the database answers queries.
func (s *Store) Health(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("settings db health: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
