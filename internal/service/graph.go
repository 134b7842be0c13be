package service

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"branchline/internal/codec"
	"branchline/internal/domain"
	"branchline/internal/engine"
	"branchline/internal/metrics"
	"branchline/internal/repository"

	"go.uber.org/zap"
)

// graphNamePattern keeps names usable as URL segments and file stems
var graphNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidGraphName reports whether name can be used to store a graph
func ValidGraphName(name string) bool {
	return graphNamePattern.MatchString(name)
}

// SaveResult reports the outcome of storing a graph
type SaveResult struct {
	Name     string           `json:"name"`
	Changed  bool             `json:"changed"`
	Warnings []domain.Warning `json:"warnings"`
}

// GraphService provides business logic for stored dialogue graphs
type GraphService struct {
	repo     repository.Repository
	eventBus *EventBus
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// NewGraphService creates a new graph service. logger and collector may be nil.
func NewGraphService(repo repository.Repository, eventBus *EventBus, logger *zap.Logger, collector *metrics.Collector) *GraphService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		metrics:  collector,
	}
}

// List returns summaries of every stored graph
func (s *GraphService) List(ctx context.Context) ([]repository.GraphSummary, error) {
	return s.repo.ListGraphs(ctx)
}

// Get loads a graph. Every call returns a fresh copy the caller owns.
func (s *GraphService) Get(ctx context.Context, name string) (*domain.Container, error) {
	return s.repo.GetGraph(ctx, name)
}

// Save stores c under c.Name and returns its lint warnings. Warnings never
// block a save; broken paths end sessions when reached.
func (s *GraphService) Save(ctx context.Context, c *domain.Container) (*SaveResult, error) {
	if !ValidGraphName(c.Name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGraphName, c.Name)
	}

	changed, err := s.repo.SaveGraph(ctx, c)
	if err != nil {
		return nil, err
	}

	result := &SaveResult{
		Name:     c.Name,
		Changed:  changed,
		Warnings: engine.Lint(c),
	}
	if result.Warnings == nil {
		result.Warnings = []domain.Warning{}
	}

	if changed {
		s.metrics.GraphSaved()
		s.logger.Info("graph saved",
			zap.String("graph", c.Name),
			zap.Int("nodes", len(c.Nodes)),
			zap.Int("links", len(c.Links)),
			zap.Int("warnings", len(result.Warnings)))
		s.eventBus.Publish(Event{
			Type:    EventGraphSaved,
			Payload: GraphPayload{Name: c.Name},
		})
	}

	return result, nil
}

// Import parses r in the given format and saves it as name
func (s *GraphService) Import(ctx context.Context, name, format string, r io.Reader) (*SaveResult, error) {
	cd, err := codec.ForFormat(format)
	if err != nil {
		return nil, err
	}

	c, err := cd.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGraph, err)
	}
	c.Name = name

	return s.Save(ctx, c)
}

// Export writes the stored graph to w in the given format
func (s *GraphService) Export(ctx context.Context, name, format string, w io.Writer) error {
	cd, err := codec.ForFormat(format)
	if err != nil {
		return err
	}

	c, err := s.repo.GetGraph(ctx, name)
	if err != nil {
		return err
	}

	return cd.Export(c, w)
}

// Delete removes a stored graph. Running sessions keep their own copy.
func (s *GraphService) Delete(ctx context.Context, name string) error {
	if err := s.repo.DeleteGraph(ctx, name); err != nil {
		return err
	}

	s.logger.Info("graph deleted", zap.String("graph", name))
	s.eventBus.Publish(Event{
		Type:    EventGraphDeleted,
		Payload: GraphPayload{Name: name},
	})

	return nil
}

// Validate lints a stored graph
func (s *GraphService) Validate(ctx context.Context, name string) ([]domain.Warning, error) {
	c, err := s.repo.GetGraph(ctx, name)
	if err != nil {
		return nil, err
	}

	warnings := engine.Lint(c)
	if warnings == nil {
		warnings = []domain.Warning{}
	}
	return warnings, nil
}

// SetProperty changes the stored default of a property. Sessions already
// running are not affected.
func (s *GraphService) SetProperty(ctx context.Context, graph, property, value string) error {
	if err := s.repo.SetPropertyValue(ctx, graph, property, value); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type: EventPropertyChanged,
		Payload: PropertyPayload{
			Graph:    graph,
			Property: property,
			Value:    value,
		},
	})

	return nil
}
