package refcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// sqlStore keeps entries in a single table: key, payload, expires_at in unix
// milliseconds (zero = never expires). Expired rows are dropped lazily on
// read. Works against mysql, pgx and modernc sqlite.
type sqlStore struct {
	db         *sql.DB
	table      string
	driverName string
}

var sqlIdentRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func newSQLStore(cfg StoreConfig) (Store, error) {
	if cfg.SQLDriverName == "" || cfg.SQLDSN == "" {
		return nil, errors.New("sql driver requires driver name and dsn")
	}
	db, err := sql.Open(cfg.SQLDriverName, cfg.SQLDSN)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	table := cfg.SQLTable
	if table == "" {
		table = defaultSQLTable
	}
	if !sqlIdentRE.MatchString(table) {
		return nil, fmt.Errorf("invalid sql cache table name %q", table)
	}
	s := &sqlStore{
		db:         db,
		table:      table,
		driverName: cfg.SQLDriverName,
	}
	if err := s.ensureTable(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *sqlStore) Driver() Driver {
	return DriverSQL
}

func (s *sqlStore) ensureTable() error {
	blob := "BLOB"
	if s.driverName == "pgx" {
		blob = "BYTEA"
	}
	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (cache_key VARCHAR(512) PRIMARY KEY, payload %s NOT NULL, expires_at BIGINT NOT NULL)`,
		s.table, blob,
	)
	_, err := s.db.Exec(ddl)
	return err
}

func (s *sqlStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := fmt.Sprintf(`SELECT payload, expires_at FROM %s WHERE cache_key = %s`, s.table, s.placeholder(1))
	var (
		payload   []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, query, key).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if expiresAt > 0 && time.Now().UnixMilli() >= expiresAt {
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}
	return payload, true, nil
}

func (s *sqlStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixMilli()
	}
	_, err := s.db.ExecContext(ctx, s.upsertQuery(), key, value, expiresAt)
	return err
}

func (s *sqlStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE cache_key = %s`, s.table, s.placeholder(1))
	_, err := s.db.ExecContext(ctx, query, key)
	return err
}

func (s *sqlStore) DeleteMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, key := range keys {
		placeholders[i] = s.placeholder(i + 1)
		args[i] = key
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE cache_key IN (%s)`, s.table, strings.Join(placeholders, ", "))
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *sqlStore) Flush(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table))
	return err
}

func (s *sqlStore) upsertQuery() string {
	switch s.driverName {
	case "mysql":
		return fmt.Sprintf(
			`INSERT INTO %s (cache_key, payload, expires_at) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE payload = VALUES(payload), expires_at = VALUES(expires_at)`,
			s.table,
		)
	case "pgx":
		return fmt.Sprintf(
			`INSERT INTO %s (cache_key, payload, expires_at) VALUES ($1, $2, $3) ON CONFLICT (cache_key) DO UPDATE SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at`,
			s.table,
		)
	default:
		return fmt.Sprintf(
			`INSERT INTO %s (cache_key, payload, expires_at) VALUES (?, ?, ?) ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at`,
			s.table,
		)
	}
}

func (s *sqlStore) placeholder(n int) string {
	if s.driverName == "pgx" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
