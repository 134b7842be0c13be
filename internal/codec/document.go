package codec

import (
	"fmt"

	"branchline/internal/domain"
)

// document is the persisted shape shared by the JSON and YAML codecs.
// Field names are part of the file format.
type document struct {
	Name       string        `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes      []docNode     `json:"nodes" yaml:"nodes"`
	Links      []docLink     `json:"links" yaml:"links"`
	Properties []docProperty `json:"properties" yaml:"properties"`
	Comments   []docComment  `json:"comments,omitempty" yaml:"comments,omitempty"`
}

type docNode struct {
	ID         string          `json:"id" yaml:"id"`
	Kind       string          `json:"kind" yaml:"kind"`
	Text       string          `json:"text" yaml:"text"`
	Condition  string          `json:"condition,omitempty" yaml:"condition,omitempty"`
	DebugLabel string          `json:"debug_label,omitempty" yaml:"debug_label,omitempty"`
	Position   domain.Position `json:"position" yaml:"position"`
}

type docLink struct {
	SourceID  string `json:"source_id" yaml:"source_id"`
	TargetID  string `json:"target_id" yaml:"target_id"`
	PortID    string `json:"port_id" yaml:"port_id"`
	Label     string `json:"label" yaml:"label"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

type docProperty struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

type docComment struct {
	Title    string          `json:"title" yaml:"title"`
	Position domain.Position `json:"position" yaml:"position"`
	NodeIDs  []string        `json:"node_ids" yaml:"node_ids"`
}

// toContainer converts a decoded document. Integrity problems such as
// dangling links or duplicate ids are kept as found so Validate can report
// them; only an unknown node kind is rejected.
func (d *document) toContainer() (*domain.Container, error) {
	c := domain.NewContainer(d.Name)

	for _, n := range d.Nodes {
		kind, err := domain.ParseNodeKind(n.Kind)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		c.Nodes = append(c.Nodes, domain.Node{
			ID:         n.ID,
			Kind:       kind,
			Text:       n.Text,
			Condition:  n.Condition,
			DebugLabel: n.DebugLabel,
			Position:   n.Position,
		})
	}

	for _, l := range d.Links {
		c.Links = append(c.Links, domain.Link{
			SourceID:  l.SourceID,
			TargetID:  l.TargetID,
			PortID:    l.PortID,
			Label:     l.Label,
			Condition: l.Condition,
		})
	}

	for _, p := range d.Properties {
		c.Properties = append(c.Properties, domain.Property{Name: p.Name, Value: p.Value})
	}

	for _, cm := range d.Comments {
		c.Comments = append(c.Comments, *domain.NewCommentBlock(cm.Title, cm.Position, cm.NodeIDs...))
	}

	return c, nil
}

func fromContainer(c *domain.Container) *document {
	d := &document{
		Name:       c.Name,
		Nodes:      make([]docNode, 0, len(c.Nodes)),
		Links:      make([]docLink, 0, len(c.Links)),
		Properties: make([]docProperty, 0, len(c.Properties)),
	}

	for _, n := range c.Nodes {
		d.Nodes = append(d.Nodes, docNode{
			ID:         n.ID,
			Kind:       string(n.Kind),
			Text:       n.Text,
			Condition:  n.Condition,
			DebugLabel: n.DebugLabel,
			Position:   n.Position,
		})
	}

	for _, l := range c.Links {
		d.Links = append(d.Links, docLink{
			SourceID:  l.SourceID,
			TargetID:  l.TargetID,
			PortID:    l.PortID,
			Label:     l.Label,
			Condition: l.Condition,
		})
	}

	for _, p := range c.Properties {
		d.Properties = append(d.Properties, docProperty{Name: p.Name, Value: p.Value})
	}

	for _, cm := range c.Comments {
		d.Comments = append(d.Comments, docComment{
			Title:    cm.Title,
			Position: cm.Position,
			NodeIDs:  cm.NodeIDs,
		})
	}

	return d
}
