package store

import "fmt"

// Batch buffers one run's extraction results for a single commit.
type Batch struct {
	Bindings  []Binding
	SpecPaths []SpecPath
	Mentions  []Mention
}

// SpecPath is a documented path and its operation keys.
type SpecPath struct {
	Path    string
	Methods []string
}

// Mention records that a test file's text names a handler.
type Mention struct {
	Test    string
	Handler string
}

// CommitBatch inserts everything in batch within a single transaction.
// Bindings and spec paths are numbered in slice order.
func (s *Store) CommitBatch(batch *Batch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	for i, b := range batch.Bindings {
		if err := insertBinding(tx, i, b.Path, b.Handler); err != nil {
			return fmt.Errorf("commit batch: binding %q: %w", b.Path, err)
		}
	}
	for i, sp := range batch.SpecPaths {
		if err := insertSpecPath(tx, i, sp.Path, sp.Methods); err != nil {
			return fmt.Errorf("commit batch: spec path %q: %w", sp.Path, err)
		}
	}
	for _, m := range batch.Mentions {
		if err := insertMention(tx, m.Test, m.Handler); err != nil {
			return fmt.Errorf("commit batch: mention %q: %w", m.Test, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}
