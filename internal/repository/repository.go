package repository

import (
	"context"
	"errors"
	"time"

	"branchline/internal/domain"
)

// ErrGraphNotFound is returned when no graph is stored under a name
var ErrGraphNotFound = errors.New("graph not found")

// GraphSummary describes a stored graph without loading it
type GraphSummary struct {
	Name       string    `json:"name"`
	Checksum   string    `json:"checksum"`
	Nodes      int       `json:"nodes"`
	Links      int       `json:"links"`
	Properties int       `json:"properties"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Repository defines the interface for dialogue graph storage
type Repository interface {
	// Read operations
	ListGraphs(ctx context.Context) ([]GraphSummary, error)
	GetGraph(ctx context.Context, name string) (*domain.Container, error)

	// SaveGraph replaces the stored graph named c.Name. It reports false
	// when the stored content was already identical.
	SaveGraph(ctx context.Context, c *domain.Container) (bool, error)
	DeleteGraph(ctx context.Context, name string) error

	// SetPropertyValue changes the stored default of one property
	SetPropertyValue(ctx context.Context, graph, property, value string) error

	// Close releases resources
	Close() error
}
