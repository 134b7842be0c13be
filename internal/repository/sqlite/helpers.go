package sqlite

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"branchline/internal/domain"

	"golang.org/x/crypto/blake2b"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// formatTime stores timestamps as RFC 3339 text in UTC
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// ============================================================================
// Checksum
// ============================================================================

// checksum hashes the canonical JSON form of a graph. The name is part of
// the row key, not the content, so it is left out.
func checksum(c *domain.Container) (string, error) {
	content := *c
	content.Name = ""

	data, err := json.Marshal(&content)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a column to a child table:
// 1. Add field to the row struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update the columns constant - APPEND to end
// 4. Update toDomain() and the insert args helper
// 5. Extend the VALUES placeholder list in SaveGraph
// 6. Update relevant tests
//
// CRITICAL: Column order must match between the columns constant, scanArgs()
// and the insert args helper. graph and seq are written by SaveGraph and
// never scanned.

// ============================================================================
// Node Row Scanner
// ============================================================================

// nodeRow holds all columns from a node query for scanning
type nodeRow struct {
	ID         string
	Kind       string
	Text       string
	Condition  sql.NullString
	DebugLabel sql.NullString
	X          float64
	Y          float64
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match nodeColumns order exactly
func (r *nodeRow) scanArgs() []any {
	return []any{
		&r.ID,         // 1
		&r.Kind,       // 2
		&r.Text,       // 3
		&r.Condition,  // 4
		&r.DebugLabel, // 5
		&r.X,          // 6
		&r.Y,          // 7
	}
}

// toDomain converts the scanned row to a domain.Node
func (r *nodeRow) toDomain() domain.Node {
	return domain.Node{
		ID:         r.ID,
		Kind:       domain.NodeKind(r.Kind),
		Text:       r.Text,
		Condition:  nullToString(r.Condition),
		DebugLabel: nullToString(r.DebugLabel),
		Position:   domain.NewPosition(r.X, r.Y),
	}
}

// nodeColumns is the column list for node queries
const nodeColumns = `id, kind, text, condition_expr, debug_label, position_x, position_y`

// nodeInsertArgs prepares arguments in nodeColumns order
func nodeInsertArgs(n domain.Node) []any {
	return []any{
		n.ID,
		string(n.Kind),
		n.Text,
		stringToNull(n.Condition),
		stringToNull(n.DebugLabel),
		n.Position.X,
		n.Position.Y,
	}
}

// ============================================================================
// Link Row Scanner
// ============================================================================

// linkRow holds all columns from a link query for scanning
type linkRow struct {
	SourceID  string
	TargetID  sql.NullString
	PortID    string
	Label     string
	Condition sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match linkColumns order exactly
func (r *linkRow) scanArgs() []any {
	return []any{
		&r.SourceID,  // 1
		&r.TargetID,  // 2
		&r.PortID,    // 3
		&r.Label,     // 4
		&r.Condition, // 5
	}
}

// toDomain converts the scanned row to a domain.Link
func (r *linkRow) toDomain() domain.Link {
	return domain.Link{
		SourceID:  r.SourceID,
		TargetID:  nullToString(r.TargetID),
		PortID:    r.PortID,
		Label:     r.Label,
		Condition: nullToString(r.Condition),
	}
}

// linkColumns is the column list for link queries
const linkColumns = `source_id, target_id, port_id, label, condition_expr`

// linkInsertArgs prepares arguments in linkColumns order. An unconnected
// port is stored as NULL.
func linkInsertArgs(l domain.Link) []any {
	return []any{
		l.SourceID,
		stringToNull(l.TargetID),
		l.PortID,
		l.Label,
		stringToNull(l.Condition),
	}
}

// ============================================================================
// Comment Row Scanner
// ============================================================================

// commentRow holds all columns from a comment query for scanning
type commentRow struct {
	Seq         int
	Title       string
	X           float64
	Y           float64
	NodeIDsJSON sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match commentColumns order exactly
func (r *commentRow) scanArgs() []any {
	return []any{
		&r.Seq,         // 1
		&r.Title,       // 2
		&r.X,           // 3
		&r.Y,           // 4
		&r.NodeIDsJSON, // 5
	}
}

// toDomain converts the scanned row to a domain.CommentBlock
func (r *commentRow) toDomain() (domain.CommentBlock, error) {
	block := domain.CommentBlock{
		Title:    r.Title,
		Position: domain.NewPosition(r.X, r.Y),
		NodeIDs:  make([]string, 0),
	}
	if r.NodeIDsJSON.Valid && r.NodeIDsJSON.String != "" {
		if err := json.Unmarshal([]byte(r.NodeIDsJSON.String), &block.NodeIDs); err != nil {
			return block, fmt.Errorf("unmarshal node ids: %w", err)
		}
	}
	return block, nil
}

// commentColumns is the column list for comment queries; seq is read back
// for error messages
const commentColumns = `seq, title, position_x, position_y, node_ids`

// commentInsertArgs prepares arguments in commentColumns order minus seq,
// which SaveGraph supplies
func commentInsertArgs(block domain.CommentBlock) ([]any, error) {
	ids := block.NodeIDs
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("marshal node ids: %w", err)
	}
	return []any{
		block.Title,
		block.Position.X,
		block.Position.Y,
		string(data),
	}, nil
}
