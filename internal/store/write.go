package store

import (
	"context"
	"fmt"

	"github.com/iocscope/iocscope/internal/graph"
)

// SaveGraph persists one built graph under its fingerprint, atomically.
// An existing snapshot with the same fingerprint is replaced: same inputs,
// same graph, so the newest build wins.
func (s *Store) SaveGraph(ctx context.Context, fingerprint string, g *graph.Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save graph: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE fingerprint = ?`, fingerprint); err != nil {
		return fmt.Errorf("save graph: clear old snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (fingerprint) VALUES (?)`, fingerprint); err != nil {
		return fmt.Errorf("save graph: insert snapshot: %w", err)
	}

	for _, key := range g.Keys() {
		rec, ok := g.Get(key)
		if !ok {
			continue
		}
		fieldsJSON, err := marshalFields(rec)
		if err != nil {
			return fmt.Errorf("save graph: %w", err)
		}
		macrosJSON, err := marshalMacros(rec.Loc.Macros)
		if err != nil {
			return fmt.Errorf("save graph: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO records
			(fingerprint, instance, name, type, loc_file, loc_line, loc_macros, fields)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			fingerprint, rec.Instance, rec.Name, rec.Type,
			rec.Loc.File, rec.Loc.Line, macrosJSON, fieldsJSON,
		); err != nil {
			return fmt.Errorf("save graph: insert record %s: %w", key, err)
		}

		for _, e := range g.Outbound(key) {
			dst := any(nil)
			if e.Resolved {
				dst = e.Target.Instance
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO links
				(fingerprint, src_instance, src_name, field, target_name, target_field, resolved, dst_instance)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`,
				fingerprint, e.Source.Instance, e.Source.Name, e.Field,
				e.TargetName, e.TargetField, e.Resolved, dst,
			); err != nil {
				return fmt.Errorf("save graph: insert link %s.%s: %w", key, e.Field, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save graph: commit: %w", err)
	}
	return nil
}
