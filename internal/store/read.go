package store

import (
	"context"
	"fmt"

	"github.com/iocscope/iocscope/internal/graph"
	"github.com/iocscope/iocscope/internal/model"
)

// LoadGraph rebuilds the graph stored under a fingerprint. The boolean is
// false when no snapshot exists. Links are re-resolved from the loaded
// records rather than trusted from the links table, so a loaded graph is
// bit-for-bit equivalent to a freshly built one.
func (s *Store) LoadGraph(ctx context.Context, fingerprint string) (*graph.Graph, bool, error) {
	ok, err := s.Has(ctx, fingerprint)
	if err != nil || !ok {
		return nil, false, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT instance, name, type, loc_file, loc_line, loc_macros, fields
		FROM records
		WHERE fingerprint = ?
		ORDER BY instance ASC, name COLLATE BINARY ASC
	`, fingerprint)
	if err != nil {
		return nil, false, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	byInstance := map[string][]*model.Record{}
	var order []string
	for rows.Next() {
		var rec model.Record
		var macrosJSON, fieldsJSON string
		if err := rows.Scan(&rec.Instance, &rec.Name, &rec.Type,
			&rec.Loc.File, &rec.Loc.Line, &macrosJSON, &fieldsJSON); err != nil {
			return nil, false, fmt.Errorf("scan record: %w", err)
		}
		if rec.Loc.Macros, err = unmarshalMacros(macrosJSON); err != nil {
			return nil, false, err
		}
		if err := unmarshalFields(&rec, fieldsJSON); err != nil {
			return nil, false, err
		}
		if _, seen := byInstance[rec.Instance]; !seen {
			order = append(order, rec.Instance)
		}
		byInstance[rec.Instance] = append(byInstance[rec.Instance], &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate records: %w", err)
	}

	g := graph.New()
	for _, id := range order {
		if err := g.AddInstance(id, byInstance[id]); err != nil {
			return nil, false, fmt.Errorf("rebuild graph: %w", err)
		}
	}
	g.ResolveLinks()
	return g, true, nil
}

// SnapshotInfo describes one cached snapshot.
type SnapshotInfo struct {
	Fingerprint string `json:"fingerprint"`
	CreatedAt   string `json:"created_at"`
	Records     int    `json:"records"`
}

// ListSnapshots returns the cached snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.fingerprint, s.created_at, COUNT(r.name)
		FROM snapshots s
		LEFT JOIN records r ON r.fingerprint = s.fingerprint
		GROUP BY s.fingerprint
		ORDER BY s.created_at DESC, s.fingerprint ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.Fingerprint, &info.CreatedAt, &info.Records); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// UnresolvedLinks returns the unresolved links of a snapshot straight from
// SQL, without rebuilding the graph.
func (s *Store) UnresolvedLinks(ctx context.Context, fingerprint string) ([]graph.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT src_instance, src_name, field, target_name, target_field
		FROM links
		WHERE fingerprint = ? AND resolved = 0
		ORDER BY src_instance ASC, src_name COLLATE BINARY ASC, field ASC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var out []graph.Edge
	for rows.Next() {
		var e graph.Edge
		if err := rows.Scan(&e.Source.Instance, &e.Source.Name, &e.Field,
			&e.TargetName, &e.TargetField); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
