package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"branchline/internal/domain"
	"branchline/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

var _ repository.Repository = (*Repository)(nil)

// New creates a new SQLite repository. dbPath may be ":memory:".
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer, and each connection to
	// ":memory:" would otherwise see its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	repo := &Repository{db: db, now: time.Now}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS graphs (
		name TEXT PRIMARY KEY,
		checksum TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS nodes (
		graph TEXT NOT NULL,
		seq INTEGER NOT NULL,
		id TEXT NOT NULL,
		kind TEXT NOT NULL,
		text TEXT NOT NULL DEFAULT '',
		condition_expr TEXT,
		debug_label TEXT,
		position_x REAL NOT NULL DEFAULT 0,
		position_y REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (graph, seq),
		FOREIGN KEY (graph) REFERENCES graphs(name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS links (
		graph TEXT NOT NULL,
		seq INTEGER NOT NULL,
		source_id TEXT NOT NULL,
		target_id TEXT,
		port_id TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		condition_expr TEXT,
		PRIMARY KEY (graph, seq),
		FOREIGN KEY (graph) REFERENCES graphs(name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS properties (
		graph TEXT NOT NULL,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (graph, seq),
		FOREIGN KEY (graph) REFERENCES graphs(name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS comments (
		graph TEXT NOT NULL,
		seq INTEGER NOT NULL,
		title TEXT NOT NULL,
		position_x REAL NOT NULL DEFAULT 0,
		position_y REAL NOT NULL DEFAULT 0,
		node_ids JSON,
		PRIMARY KEY (graph, seq),
		FOREIGN KEY (graph) REFERENCES graphs(name) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_links_source ON links(graph, source_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// ListGraphs returns a summary of every stored graph ordered by name
func (r *Repository) ListGraphs(ctx context.Context) ([]repository.GraphSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.name, g.checksum, g.updated_at,
			(SELECT COUNT(*) FROM nodes n WHERE n.graph = g.name),
			(SELECT COUNT(*) FROM links l WHERE l.graph = g.name),
			(SELECT COUNT(*) FROM properties p WHERE p.graph = g.name)
		FROM graphs g
		ORDER BY g.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query graphs: %w", err)
	}
	defer rows.Close()

	summaries := make([]repository.GraphSummary, 0)
	for rows.Next() {
		var (
			s         repository.GraphSummary
			updatedAt string
		)
		if err := rows.Scan(&s.Name, &s.Checksum, &updatedAt, &s.Nodes, &s.Links, &s.Properties); err != nil {
			return nil, fmt.Errorf("failed to scan graph: %w", err)
		}
		if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("graph %s: %w", s.Name, err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating graphs: %w", err)
	}

	return summaries, nil
}

// GetGraph loads a complete graph
func (r *Repository) GetGraph(ctx context.Context, name string) (*domain.Container, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM graphs WHERE name = ?`, name).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repository.ErrGraphNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query graph: %w", err)
	}

	c := domain.NewContainer(name)

	if err := r.loadNodes(ctx, c); err != nil {
		return nil, err
	}
	if err := r.loadLinks(ctx, c); err != nil {
		return nil, err
	}
	if err := r.loadProperties(ctx, c); err != nil {
		return nil, err
	}
	if err := r.loadComments(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (r *Repository) loadNodes(ctx context.Context, c *domain.Container) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE graph = ? ORDER BY seq`, c.Name)
	if err != nil {
		return fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return fmt.Errorf("failed to scan node: %w", err)
		}
		c.Nodes = append(c.Nodes, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating nodes: %w", err)
	}
	return nil
}

func (r *Repository) loadLinks(ctx context.Context, c *domain.Container) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+linkColumns+` FROM links WHERE graph = ? ORDER BY seq`, c.Name)
	if err != nil {
		return fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row linkRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return fmt.Errorf("failed to scan link: %w", err)
		}
		c.Links = append(c.Links, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating links: %w", err)
	}
	return nil
}

func (r *Repository) loadProperties(ctx context.Context, c *domain.Container) error {
	rows, err := r.db.QueryContext(ctx, `SELECT name, value FROM properties WHERE graph = ? ORDER BY seq`, c.Name)
	if err != nil {
		return fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Property
		if err := rows.Scan(&p.Name, &p.Value); err != nil {
			return fmt.Errorf("failed to scan property: %w", err)
		}
		c.Properties = append(c.Properties, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating properties: %w", err)
	}
	return nil
}

func (r *Repository) loadComments(ctx context.Context, c *domain.Container) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE graph = ? ORDER BY seq`, c.Name)
	if err != nil {
		return fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row commentRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return fmt.Errorf("failed to scan comment: %w", err)
		}
		block, err := row.toDomain()
		if err != nil {
			return fmt.Errorf("comment %d: %w", row.Seq, err)
		}
		c.Comments = append(c.Comments, block)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating comments: %w", err)
	}
	return nil
}

// SaveGraph replaces the stored graph in one transaction. A graph whose
// checksum matches the stored one is left untouched and reported unchanged.
func (r *Repository) SaveGraph(ctx context.Context, c *domain.Container) (bool, error) {
	if c.Name == "" {
		return false, fmt.Errorf("graph name is required")
	}

	sum, err := checksum(c)
	if err != nil {
		return false, fmt.Errorf("failed to checksum graph: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var stored string
	err = tx.QueryRowContext(ctx, `SELECT checksum FROM graphs WHERE name = ?`, c.Name).Scan(&stored)
	switch {
	case err == nil && stored == sum:
		return false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("failed to query graph: %w", err)
	}

	now := formatTime(r.now())
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO graphs (name, checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			checksum = excluded.checksum,
			updated_at = excluded.updated_at
	`, c.Name, sum, now, now); err != nil {
		return false, fmt.Errorf("failed to upsert graph: %w", err)
	}

	for _, table := range []string{"nodes", "links", "properties", "comments"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE graph = ?`, c.Name); err != nil {
			return false, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, n := range c.Nodes {
		args := append([]any{c.Name, i}, nodeInsertArgs(n)...)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO nodes (graph, seq, `+nodeColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, args...); err != nil {
			return false, fmt.Errorf("failed to insert node %s: %w", n.ID, err)
		}
	}

	for i, l := range c.Links {
		args := append([]any{c.Name, i}, linkInsertArgs(l)...)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO links (graph, seq, `+linkColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, args...); err != nil {
			return false, fmt.Errorf("failed to insert link %s/%s: %w", l.SourceID, l.PortID, err)
		}
	}

	for i, p := range c.Properties {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO properties (graph, seq, name, value) VALUES (?, ?, ?, ?)
		`, c.Name, i, p.Name, p.Value); err != nil {
			return false, fmt.Errorf("failed to insert property %s: %w", p.Name, err)
		}
	}

	for i, block := range c.Comments {
		args, err := commentInsertArgs(block)
		if err != nil {
			return false, fmt.Errorf("comment %d: %w", i, err)
		}
		args = append([]any{c.Name, i}, args...)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO comments (graph, seq, title, position_x, position_y, node_ids)
			VALUES (?, ?, ?, ?, ?, ?)
		`, args...); err != nil {
			return false, fmt.Errorf("failed to insert comment %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// DeleteGraph removes a graph and all of its rows
func (r *Repository) DeleteGraph(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM graphs WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", repository.ErrGraphNotFound, name)
	}
	return nil
}

// SetPropertyValue updates one property default. The graph is rewritten
// through SaveGraph so its checksum stays current.
func (r *Repository) SetPropertyValue(ctx context.Context, graph, property, value string) error {
	c, err := r.GetGraph(ctx, graph)
	if err != nil {
		return err
	}
	if err := c.SetPropertyValue(property, value); err != nil {
		return err
	}
	if _, err := r.SaveGraph(ctx, c); err != nil {
		return err
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
