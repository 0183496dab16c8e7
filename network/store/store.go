// Package store persists built networks to SQLite so they can be
// inspected and diffed with ordinary database tooling.
//
// Each call to Save writes one immutable snapshot: the entity tree in
// depth-first declaration order, every node property, every group
// boundary port, and the connection list in the order the connections
// were made. Load rebuilds a network from any snapshot.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ardnew/nexus/network"
)

// Store handles SQLite persistence for network snapshots.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema
// exists. Use ":memory:" for a transient database.
func Open(path string) (*Store, error) {
	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(ON)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		db.Close()

		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		snapshot_id TEXT NOT NULL,
		parent_id TEXT,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL,
		position INTEGER NOT NULL,
		FOREIGN KEY (snapshot_id) REFERENCES snapshots(id),
		FOREIGN KEY (parent_id) REFERENCES entities(id)
	);

	CREATE TABLE IF NOT EXISTS properties (
		entity_id TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		value TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (entity_id, name),
		FOREIGN KEY (entity_id) REFERENCES entities(id)
	);

	CREATE TABLE IF NOT EXISTS bounds (
		entity_id TEXT NOT NULL,
		name TEXT NOT NULL,
		target TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (entity_id, name),
		FOREIGN KEY (entity_id) REFERENCES entities(id)
	);

	CREATE TABLE IF NOT EXISTS connections (
		id TEXT PRIMARY KEY,
		snapshot_id TEXT NOT NULL,
		src_path TEXT NOT NULL,
		src_port TEXT NOT NULL,
		dst_path TEXT NOT NULL,
		dst_port TEXT NOT NULL,
		position INTEGER NOT NULL,
		FOREIGN KEY (snapshot_id) REFERENCES snapshots(id)
	);

	CREATE INDEX IF NOT EXISTS idx_entities_snapshot ON entities(snapshot_id);
	CREATE INDEX IF NOT EXISTS idx_entities_parent ON entities(parent_id);
	CREATE INDEX IF NOT EXISTS idx_connections_snapshot ON connections(snapshot_id);
	`

	_, err := s.db.Exec(schema)

	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Snapshot identifies one saved network.
type Snapshot struct {
	CreatedAt time.Time
	ID        string
}

// Save writes net as a new snapshot and returns its identifier. The
// write is transactional: either the whole network lands or none of
// it does.
func (s *Store) Save(ctx context.Context, net *network.Network) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	snap := uuid.NewString()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, created_at) VALUES (?, ?)`,
		snap, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}

	pos := 0
	if err := saveChildren(ctx, tx, snap, "", net.Root(), &pos); err != nil {
		return "", err
	}

	for i, c := range net.Connections() {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO connections
			 (id, snapshot_id, src_path, src_port, dst_path, dst_port, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID(), snap,
			c.Source().Node.Path().String(), c.Source().Port,
			c.Dest().Node.Path().String(), c.Dest().Port,
			i,
		)
		if err != nil {
			return "", fmt.Errorf("insert connection: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	return snap, nil
}

// saveChildren writes every entity below g depth-first, advancing pos
// so SELECT ORDER BY position replays the exact declaration order.
func saveChildren(
	ctx context.Context,
	tx *sql.Tx,
	snap, parentID string,
	g *network.Group,
	pos *int,
) error {
	for _, name := range g.ChildNames() {
		child, ok := g.Child(name)
		if !ok {
			continue
		}

		parent := sql.NullString{String: parentID, Valid: parentID != ""}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO entities
			 (id, snapshot_id, parent_id, name, kind, label, path, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			child.ID(), snap, parent, name,
			child.Kind(), child.Label(), child.Path().String(), *pos,
		)
		if err != nil {
			return fmt.Errorf("insert entity: %w", err)
		}

		*pos++

		switch e := child.(type) {
		case *network.Node:
			if err := saveProperties(ctx, tx, e); err != nil {
				return err
			}

		case *network.Group:
			if err := saveBounds(ctx, tx, e); err != nil {
				return err
			}

			if err := saveChildren(ctx, tx, snap, e.ID(), e, pos); err != nil {
				return err
			}
		}
	}

	return nil
}

func saveProperties(ctx context.Context, tx *sql.Tx, n *network.Node) error {
	for i, name := range n.PropertyNames() {
		v, ok := n.Property(name)
		if !ok {
			continue
		}

		kind, text := encodeProperty(v)

		_, err := tx.ExecContext(ctx,
			`INSERT INTO properties (entity_id, name, kind, value, position)
			 VALUES (?, ?, ?, ?, ?)`,
			n.ID(), name, kind, text, i,
		)
		if err != nil {
			return fmt.Errorf("insert property: %w", err)
		}
	}

	return nil
}

func saveBounds(ctx context.Context, tx *sql.Tx, g *network.Group) error {
	for i, name := range g.BoundNames() {
		ref, ok := g.Bound(name)
		if !ok {
			continue
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO bounds (entity_id, name, target, position)
			 VALUES (?, ?, ?, ?)`,
			g.ID(), name, ref.String(), i,
		)
		if err != nil {
			return fmt.Errorf("insert bound: %w", err)
		}
	}

	return nil
}

// encodeProperty renders a property value as (kind, text) for storage.
func encodeProperty(v any) (string, string) {
	switch x := v.(type) {
	case float64:
		return "number", strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return "bool", strconv.FormatBool(x)
	case string:
		return "string", x
	default:
		return "string", fmt.Sprint(x)
	}
}

// decodeProperty parses a stored (kind, text) pair back into the value
// types the builder accepts.
func decodeProperty(kind, text string) (any, error) {
	switch kind {
	case "number":
		return strconv.ParseFloat(text, 64)
	case "bool":
		return strconv.ParseBool(text)
	case "string":
		return text, nil
	default:
		return nil, fmt.Errorf("unknown property kind %q", kind)
	}
}

// Snapshots lists every saved snapshot, oldest first.
func (s *Store) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at FROM snapshots ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot

	for rows.Next() {
		var snap Snapshot

		if err := rows.Scan(&snap.ID, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}

		snaps = append(snaps, snap)
	}

	return snaps, rows.Err()
}

// Load rebuilds the network saved under snapshot id.
func (s *Store) Load(ctx context.Context, id string) (*network.Network, error) {
	net := network.New()
	groups := make(map[string]*network.Group)
	nodes := make(map[string]*network.Node)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent_id, name, kind, label FROM entities
		 WHERE snapshot_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	count := 0

	for rows.Next() {
		var (
			entID, name, kind, label string

			parentID sql.NullString
		)

		if err := rows.Scan(&entID, &parentID, &name, &kind, &label); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}

		// Rows come back in depth-first save order, so a parent always
		// precedes its children.
		var parent *network.Group
		if parentID.Valid {
			parent = groups[parentID.String]
		}

		switch kind {
		case network.KindGroup:
			g := net.NewGroup(label)
			if err := net.DeclareChild(parent, network.Path{name}, g); err != nil {
				return nil, fmt.Errorf("attach group: %w", err)
			}

			groups[entID] = g

		case network.KindNode:
			n := net.Instantiate(label)
			if err := net.DeclareChild(parent, network.Path{name}, n); err != nil {
				return nil, fmt.Errorf("attach node: %w", err)
			}

			nodes[entID] = n

		default:
			return nil, fmt.Errorf("unknown entity kind %q", kind)
		}

		count++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read entities: %w", err)
	}

	if count == 0 {
		if !s.snapshotExists(ctx, id) {
			return nil, fmt.Errorf("snapshot %s: %w", id, sql.ErrNoRows)
		}
	}

	if err := s.loadProperties(ctx, id, net, nodes); err != nil {
		return nil, err
	}

	if err := s.loadBounds(ctx, id, net, groups); err != nil {
		return nil, err
	}

	return net, s.loadConnections(ctx, id, net)
}

func (s *Store) snapshotExists(ctx context.Context, id string) bool {
	var one int

	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM snapshots WHERE id = ?`, id,
	).Scan(&one)

	return err == nil
}

func (s *Store) loadProperties(
	ctx context.Context,
	snap string,
	net *network.Network,
	nodes map[string]*network.Node,
) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.entity_id, p.name, p.kind, p.value
		 FROM properties p JOIN entities e ON e.id = p.entity_id
		 WHERE e.snapshot_id = ? ORDER BY e.position, p.position`, snap,
	)
	if err != nil {
		return fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entID, name, kind, text string

		if err := rows.Scan(&entID, &name, &kind, &text); err != nil {
			return fmt.Errorf("scan property: %w", err)
		}

		node, ok := nodes[entID]
		if !ok {
			return fmt.Errorf("property %s on unknown node %s", name, entID)
		}

		value, err := decodeProperty(kind, text)
		if err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}

		err = net.DeclareChild(node.Parent(), network.Path{node.Name(), name}, value)
		if err != nil {
			return fmt.Errorf("attach property: %w", err)
		}
	}

	return rows.Err()
}

func (s *Store) loadBounds(
	ctx context.Context,
	snap string,
	net *network.Network,
	groups map[string]*network.Group,
) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.entity_id, b.name, b.target
		 FROM bounds b JOIN entities e ON e.id = b.entity_id
		 WHERE e.snapshot_id = ? ORDER BY e.position, b.position`, snap,
	)
	if err != nil {
		return fmt.Errorf("query bounds: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entID, name, target string

		if err := rows.Scan(&entID, &name, &target); err != nil {
			return fmt.Errorf("scan bound: %w", err)
		}

		group, ok := groups[entID]
		if !ok {
			return fmt.Errorf("bound %s on unknown group %s", name, entID)
		}

		err = net.DeclareChild(group.Parent(), network.Path{group.Name(), name}, parseRef(target))
		if err != nil {
			return fmt.Errorf("attach bound: %w", err)
		}
	}

	return rows.Err()
}

func (s *Store) loadConnections(
	ctx context.Context,
	snap string,
	net *network.Network,
) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT src_path, src_port, dst_path, dst_port FROM connections
		 WHERE snapshot_id = ? ORDER BY position`, snap,
	)
	if err != nil {
		return fmt.Errorf("query connections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var srcPath, srcPort, dstPath, dstPort string

		err := rows.Scan(&srcPath, &srcPort, &dstPath, &dstPort)
		if err != nil {
			return fmt.Errorf("scan connection: %w", err)
		}

		src := network.PortRef{Path: network.ParsePath(srcPath), Port: srcPort}
		dst := network.PortRef{Path: network.ParsePath(dstPath), Port: dstPort}

		if _, err := net.Connect(src, dst); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
	}

	return rows.Err()
}

// parseRef splits a dotted boundary target into a port reference. The
// final segment names the port.
func parseRef(target string) network.PortRef {
	i := strings.LastIndexByte(target, '.')
	if i < 0 {
		return network.PortRef{Port: target}
	}

	return network.PortRef{
		Path: network.ParsePath(target[:i]),
		Port: target[i+1:],
	}
}
