package manifest

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const schema = `
CREATE TABLE IF NOT EXISTS rules (
	key  TEXT PRIMARY KEY,
	data BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS defs (
	id       TEXT PRIMARY KEY,
	priority INTEGER NOT NULL,
	data     BLOB NOT NULL
);
`

// SQLiteStore persists records in a SQLite database file so separate
// compiler runs share one manifest. A single connection is used and
// guarded by mutex, commits run in an IMMEDIATE transaction.
type SQLiteStore struct {
	mu   sync.Mutex
	conn *sqlite.Conn
	path string
	log  *zap.Logger
}

// OpenSQLite opens (creating when necessary) manifest database.
func OpenSQLite(path string, log *zap.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("opening manifest '%s': %w", path, err)
	}
	if err := sqlitex.ExecuteTransient(conn, "PRAGMA busy_timeout=5000", nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("configuring manifest '%s': %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating manifest schema in '%s': %w", path, err)
	}
	log = log.Named("manifest")
	log.Debug("Manifest opened", zap.String("path", path))
	return &SQLiteStore{conn: conn, path: path, log: log}, nil
}

func (s *SQLiteStore) Commit(rules []*Rule, defs []*Def) (err error) {
	encRules, encDefs, err := encodeBatch(rules, defs)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	endTransaction, err := sqlitex.ImmediateTransaction(s.conn)
	if err != nil {
		return fmt.Errorf("manifest: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	written := 0
	for key, data := range encRules {
		n, err := s.upsert(`SELECT data FROM rules WHERE key = ?`, `INSERT INTO rules (key, data) VALUES (?, ?)`, key, data)
		if err != nil {
			return err
		}
		written += n
	}
	priorities := make(map[string]int, len(defs))
	for _, d := range defs {
		priorities[d.ID()] = d.Priority
	}
	for id, data := range encDefs {
		n, err := s.upsert(`SELECT data FROM defs WHERE id = ?`, `INSERT INTO defs (id, priority, data) VALUES (?, ?, ?)`, id, data, priorities[id])
		if err != nil {
			return err
		}
		written += n
	}
	s.log.Debug("Manifest commit", zap.Int("records", len(encRules)+len(encDefs)), zap.Int("written", written))
	return nil
}

// upsert inserts a record unless it is already present. Returns number of
// records written.
func (s *SQLiteStore) upsert(query, insert, key string, data []byte, extra ...any) (int, error) {
	old, found, err := s.blob(query, key)
	if err != nil {
		return 0, err
	}
	if found {
		if !bytes.Equal(old, data) {
			return 0, &ConflictError{Key: key}
		}
		return 0, nil
	}
	args := []any{key}
	args = append(args, extra...)
	args = append(args, data)
	if err := sqlitex.Execute(s.conn, insert, &sqlitex.ExecOptions{Args: args}); err != nil {
		return 0, fmt.Errorf("manifest: writing '%s': %w", key, err)
	}
	return 1, nil
}

func (s *SQLiteStore) blob(query, key string) ([]byte, bool, error) {
	var (
		data  []byte
		found bool
	)
	err := sqlitex.Execute(s.conn, query, &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			var err error
			data, err = io.ReadAll(stmt.ColumnReader(0))
			found = true
			return err
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("manifest: reading '%s': %w", key, err)
	}
	return data, found, nil
}

func (s *SQLiteStore) Rule(key string) (*Rule, bool, error) {
	s.mu.Lock()
	data, found, err := s.blob(`SELECT data FROM rules WHERE key = ?`, key)
	s.mu.Unlock()
	if err != nil || !found {
		return nil, false, err
	}
	r, err := DecodeRule(data)
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

func (s *SQLiteStore) Def(kind Kind, key string) (*Def, bool, error) {
	s.mu.Lock()
	data, found, err := s.blob(`SELECT data FROM defs WHERE id = ?`, (&Def{Kind: kind, Key: key}).ID())
	s.mu.Unlock()
	if err != nil || !found {
		return nil, false, err
	}
	d, err := DecodeDef(data)
	if err != nil {
		return nil, false, err
	}
	return d, true, nil
}

func (s *SQLiteStore) all(query string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out [][]byte
	err := sqlitex.Execute(s.conn, query, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			data, err := io.ReadAll(stmt.ColumnReader(0))
			if err != nil {
				return err
			}
			out = append(out, data)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("manifest: listing: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Rules() ([]*Rule, error) {
	blobs, err := s.all(`SELECT data FROM rules ORDER BY key`)
	if err != nil {
		return nil, err
	}
	out := make([]*Rule, 0, len(blobs))
	for _, data := range blobs {
		r, err := DecodeRule(data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *SQLiteStore) Defs() ([]*Def, error) {
	blobs, err := s.all(`SELECT data FROM defs ORDER BY priority, id`)
	if err != nil {
		return nil, err
	}
	out := make([]*Def, 0, len(blobs))
	for _, data := range blobs {
		d, err := DecodeDef(data)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	// keep ordering identical to memory store regardless of collation
	sortDefs(out)
	return out, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("closing manifest '%s': %w", s.path, err)
	}
	s.log.Debug("Manifest closed", zap.String("path", s.path))
	return nil
}
