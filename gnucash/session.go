package gnucash

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// errNoRows is returned by queryRow when nothing matches.
var errNoRows = errors.New("no rows")

// rows is what a query returns, in both drivers.
type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// session is a single transaction on a GnuCash database.
//
// Queries use "?" placeholders whatever the database.
type session interface {
	query(query string, args ...any) (rows, func(), error)
	queryRow(query string, dest []any, args ...any) error
	exec(query string, args ...any) (affected int64, err error)
	// timestamp returns the value stored in a GnuCash date column for t.
	timestamp(t time.Time) any
	// tableExists reports whether the database has a table called name.
	tableExists(name string) (bool, error)
	commit() error
	// close rolls back anything not committed and disconnects.
	close() error
}

// pgSession is a transaction on a PostgreSQL connection.
type pgSession struct {
	ctx  context.Context
	conn *pgx.Conn
	tx   pgx.Tx
}

func openPostgres(ctx context.Context, url string) (*pgSession, error) {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to gnucash book: %w", err)
	}
	tx, err := conn.Begin(ctx)
	if err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("cannot begin transaction: %w", err)
	}
	return &pgSession{ctx: ctx, conn: conn, tx: tx}, nil
}

// numbered rewrites "?" placeholders as "$1", "$2"...
func numbered(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		n++
		fmt.Fprintf(&b, "$%d", n)
	}
	return b.String()
}

func (s *pgSession) query(query string, args ...any) (rows, func(), error) {
	r, err := s.tx.Query(s.ctx, numbered(query), args...)
	if err != nil {
		return nil, nil, err
	}
	return r, r.Close, nil
}

func (s *pgSession) queryRow(query string, dest []any, args ...any) error {
	err := s.tx.QueryRow(s.ctx, numbered(query), args...).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return errNoRows
	}
	return err
}

func (s *pgSession) exec(query string, args ...any) (int64, error) {
	tag, err := s.tx.Exec(s.ctx, numbered(query), args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *pgSession) timestamp(t time.Time) any { return t }

func (s *pgSession) tableExists(name string) (bool, error) {
	var n int
	err := s.queryRow(`SELECT count(*) FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = ?`, []any{&n}, name)
	return n > 0, err
}

func (s *pgSession) commit() error { return s.tx.Commit(s.ctx) }

func (s *pgSession) close() error {
	var errs error
	if err := s.tx.Rollback(s.ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		errs = errors.Join(errs, err)
	}
	return errors.Join(errs, s.conn.Close(s.ctx))
}

// sqlSession is a transaction on a database/sql database, a SQLite file.
type sqlSession struct {
	ctx context.Context
	db  *sql.DB
	tx  *sql.Tx
}

func openSQL(ctx context.Context, driver, dsn string) (*sqlSession, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open gnucash book: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot begin transaction: %w", err)
	}
	return &sqlSession{ctx: ctx, db: db, tx: tx}, nil
}

// sqlRows adapts *sql.Rows, whose Close returns an error.
type sqlRows struct{ *sql.Rows }

func (s *sqlSession) query(query string, args ...any) (rows, func(), error) {
	r, err := s.tx.QueryContext(s.ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	return sqlRows{r}, func() { r.Close() }, nil
}

func (s *sqlSession) queryRow(query string, dest []any, args ...any) error {
	err := s.tx.QueryRowContext(s.ctx, query, args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return errNoRows
	}
	return err
}

func (s *sqlSession) exec(query string, args ...any) (int64, error) {
	res, err := s.tx.ExecContext(s.ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GnuCash stores SQLite dates as text.
func (s *sqlSession) timestamp(t time.Time) any { return t.UTC().Format(timestampLayout) }

func (s *sqlSession) tableExists(name string) (bool, error) {
	var n int
	err := s.queryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, []any{&n}, name)
	return n > 0, err
}

func (s *sqlSession) commit() error { return s.tx.Commit() }

func (s *sqlSession) close() error {
	var errs error
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		errs = errors.Join(errs, err)
	}
	return errors.Join(errs, s.db.Close())
}

// timestampLayout is how GnuCash writes dates in text columns.
const timestampLayout = "2006-01-02 15:04:05"

// parseTimestamp reads a GnuCash date column, a time from PostgreSQL or text from SQLite.
func parseTimestamp(v any) (time.Time, error) {
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case []byte:
		return parseTimestamp(string(v))
	case string:
		// Books written before GnuCash 2.6 have no separators.
		for _, layout := range []string{timestampLayout, "20060102150405"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid gnucash date %q", v)
	default:
		return time.Time{}, fmt.Errorf("invalid gnucash date %v (%T)", v, v)
	}
}
