package settings

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Keys used in the persisted key-value table.
const (
	keyClientID     = "linkedin_client_id"
	keyClientSecret = "linkedin_client_secret"
	keyAPIKey       = "linkedin_api_key"
	keyConnected    = "linkedin_connected"
)

// Settings holds the persisted LinkedIn credentials and connection flag.
// They survive restarts and change only through explicit save/disconnect.
type Settings struct {
	ClientID     string
	ClientSecret string
	APIKey       string
	IsConnected  bool
}

// Store is a SQLite-backed key-value settings store.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the settings database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value for a key, or "" when the key is absent.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, nil
}

// Set stores or replaces the value for a key.
func (s *Store) Set(key, value string) error {
	_, err := s.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// Remove deletes a key. Removing an absent key is not an error.
func (s *Store) Remove(key string) error {
	if _, err := s.conn.Exec("DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("removing setting %s: %w", key, err)
	}
	return nil
}

// Load reads the current settings.
func (s *Store) Load() (Settings, error) {
	var st Settings
	var err error
	if st.ClientID, err = s.Get(keyClientID); err != nil {
		return Settings{}, err
	}
	if st.ClientSecret, err = s.Get(keyClientSecret); err != nil {
		return Settings{}, err
	}
	if st.APIKey, err = s.Get(keyAPIKey); err != nil {
		return Settings{}, err
	}
	connected, err := s.Get(keyConnected)
	if err != nil {
		return Settings{}, err
	}
	st.IsConnected = connected == "true"
	return st, nil
}

// SaveCredentials persists the LinkedIn credentials. The connection flag is
// managed separately by SetConnected/Disconnect.
func (s *Store) SaveCredentials(clientID, clientSecret, apiKey string) error {
	if err := s.Set(keyClientID, clientID); err != nil {
		return err
	}
	if err := s.Set(keyClientSecret, clientSecret); err != nil {
		return err
	}
	return s.Set(keyAPIKey, apiKey)
}

// SetConnected persists the connection flag.
func (s *Store) SetConnected(connected bool) error {
	if !connected {
		return s.Remove(keyConnected)
	}
	return s.Set(keyConnected, "true")
}

// Disconnect clears the connection flag, leaving credentials intact.
func (s *Store) Disconnect() error {
	return s.SetConnected(false)
}
