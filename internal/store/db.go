package store

import (
	"database/sql"
	"errors"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

var ErrNotFound = errors.New("store: not found")

type Store struct {
	DB *sql.DB
}

// NewStore opens the SQLite database at dataSourceName. A busy timeout is
// added unless the DSN already sets pragmas, since handlers write sessions
// concurrently.
func NewStore(dataSourceName string) (*Store, error) {
	dsn := dataSourceName
	if !strings.Contains(dsn, "_pragma") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}
