package store

import (
	"database/sql"
	"fmt"
)

// --- Insert operations ---

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// InsertBinding records a binding. Rebinding a path replaces its handler but
// keeps the ordinal of its first binding.
func (s *Store) InsertBinding(ordinal int, path, handler string) error {
	return insertBinding(s.db, ordinal, path, handler)
}

// InsertSpecPath records a documented path. Spec paths are listed in ordinal
// order.
func (s *Store) InsertSpecPath(ordinal int, path string, methods []string) error {
	return insertSpecPath(s.db, ordinal, path, methods)
}

func (s *Store) InsertMention(test, handler string) error {
	return insertMention(s.db, test, handler)
}

func insertBinding(ex execer, ordinal int, path, handler string) error {
	_, err := ex.Exec(
		`INSERT INTO bindings (path, handler, ordinal) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET handler = excluded.handler`,
		path, handler, ordinal,
	)
	if err != nil {
		return fmt.Errorf("insert binding: %w", err)
	}
	return nil
}

func insertSpecPath(ex execer, ordinal int, path string, methods []string) error {
	_, err := ex.Exec(
		"INSERT OR REPLACE INTO spec_paths (path, methods, ordinal) VALUES (?, ?, ?)",
		path, marshalMethods(methods), ordinal,
	)
	if err != nil {
		return fmt.Errorf("insert spec path: %w", err)
	}
	return nil
}

func insertMention(ex execer, test, handler string) error {
	_, err := ex.Exec(
		"INSERT OR IGNORE INTO mentions (test, handler) VALUES (?, ?)",
		test, handler,
	)
	if err != nil {
		return fmt.Errorf("insert mention: %w", err)
	}
	return nil
}

// --- Cross-reference queries ---

// PathMatches returns every spec path in spec order with its best binding:
// an exact match if one exists, otherwise the longest matching glob.
func (s *Store) PathMatches() ([]PathMatch, error) {
	rows, err := s.db.Query(`
		SELECT s.path, s.methods, b.path, b.handler
		FROM spec_paths s
		LEFT JOIN bindings b ON ` + matchesBinding + `
		ORDER BY s.ordinal, (s.path = b.path) DESC, length(b.path) DESC, b.ordinal`)
	if err != nil {
		return nil, fmt.Errorf("path matches: %w", err)
	}
	defer rows.Close()

	var matches []PathMatch
	last := ""
	for rows.Next() {
		var (
			path, methods  string
			route, handler sql.NullString
		)
		if err := rows.Scan(&path, &methods, &route, &handler); err != nil {
			return nil, fmt.Errorf("scan path match: %w", err)
		}
		if len(matches) > 0 && path == last {
			continue
		}
		last = path
		matches = append(matches, PathMatch{
			Path:    path,
			Methods: unmarshalMethods(methods),
			Route:   route.String,
			Handler: handler.String,
		})
	}
	return matches, rows.Err()
}

// Undocumented returns bindings that match no spec path, in binding order.
func (s *Store) Undocumented() ([]Binding, error) {
	rows, err := s.db.Query(`
		SELECT b.path, b.handler
		FROM bindings b
		WHERE NOT EXISTS (SELECT 1 FROM spec_paths s WHERE ` + matchesBinding + `)
		ORDER BY b.ordinal`)
	if err != nil {
		return nil, fmt.Errorf("undocumented: %w", err)
	}
	defer rows.Close()

	var out []Binding
	for rows.Next() {
		var b Binding
		if err := rows.Scan(&b.Path, &b.Handler); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// HandlerTests returns each bound handler, in order of first binding, with
// the test files mentioning it sorted by path.
func (s *Store) HandlerTests() ([]HandlerTests, error) {
	rows, err := s.db.Query(`
		SELECT h.handler, m.test
		FROM (SELECT handler, MIN(ordinal) AS ordinal FROM bindings GROUP BY handler) h
		LEFT JOIN mentions m ON m.handler = h.handler
		ORDER BY h.ordinal, m.test`)
	if err != nil {
		return nil, fmt.Errorf("handler tests: %w", err)
	}
	defer rows.Close()

	var out []HandlerTests
	for rows.Next() {
		var (
			handler string
			test    sql.NullString
		)
		if err := rows.Scan(&handler, &test); err != nil {
			return nil, fmt.Errorf("scan handler test: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Handler != handler {
			out = append(out, HandlerTests{Handler: handler, Tests: []string{}})
		}
		if test.Valid {
			cur := &out[len(out)-1]
			cur.Tests = append(cur.Tests, test.String)
		}
	}
	return out, rows.Err()
}
