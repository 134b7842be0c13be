package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EntryNodeID is the source id given to a start link created by SetEntry.
// The entry node is synthetic and never appears in Nodes.
const EntryNodeID = "entry"

// Container is a complete dialogue graph: the unit that is saved, loaded
// and traversed. Slices keep insertion order; link order is choice order.
type Container struct {
	Name       string         `json:"name,omitempty"`
	Nodes      []Node         `json:"nodes"`
	Links      []Link         `json:"links"`
	Properties Properties     `json:"properties"`
	Comments   []CommentBlock `json:"comments"`
}

// NewContainer creates an empty container with initialized collections
func NewContainer(name string) *Container {
	return &Container{
		Name:       name,
		Nodes:      make([]Node, 0),
		Links:      make([]Link, 0),
		Properties: make(Properties, 0),
		Comments:   make([]CommentBlock, 0),
	}
}

// FindNode looks a node up by id. A miss is expected when links point at
// deleted nodes.
func (c *Container) FindNode(id string) (*Node, bool) {
	for i := range c.Nodes {
		if c.Nodes[i].ID == id {
			return &c.Nodes[i], true
		}
	}
	return nil, false
}

// LinksFrom returns the outgoing links of a node in stored order
func (c *Container) LinksFrom(nodeID string) []Link {
	var links []Link
	for _, l := range c.Links {
		if l.SourceID == nodeID {
			links = append(links, l)
		}
	}
	return links
}

// BranchArm returns the outgoing link of a branch node for outcome
func (c *Container) BranchArm(nodeID string, outcome bool) (Link, bool) {
	for _, l := range c.Links {
		if l.SourceID == nodeID && l.IsBranchArm(outcome) {
			return l, true
		}
	}
	return Link{}, false
}

// PropertyValue returns the current value of a property
func (c *Container) PropertyValue(name string) (string, bool) {
	return c.Properties.Lookup(name)
}

// Lookup lets a container serve directly as a condition variable source
func (c *Container) Lookup(name string) (string, bool) {
	return c.Properties.Lookup(name)
}

// SetPropertyValue changes the value of an existing property
func (c *Container) SetPropertyValue(name, value string) error {
	i := c.Properties.index(name)
	if i < 0 {
		return errPropertyNotFound(name)
	}
	c.Properties[i].Value = value
	return nil
}

// AddProperty appends a property, suffixing the name until it is unique.
// It returns the name actually stored.
func (c *Container) AddProperty(name, value string) string {
	name = c.Properties.UniqueName(name)
	c.Properties = append(c.Properties, Property{Name: name, Value: value})
	return name
}

// RenameProperty renames a property in place, keeping its position
func (c *Container) RenameProperty(oldName, newName string) error {
	i := c.Properties.index(oldName)
	if i < 0 {
		return errPropertyNotFound(oldName)
	}
	if oldName == newName {
		return nil
	}
	if c.Properties.index(newName) >= 0 {
		return fmt.Errorf("%w: %s", ErrPropertyExists, newName)
	}
	c.Properties[i].Name = newName
	return nil
}

// RemoveProperty deletes a property
func (c *Container) RemoveProperty(name string) error {
	i := c.Properties.index(name)
	if i < 0 {
		return errPropertyNotFound(name)
	}
	c.Properties = append(c.Properties[:i], c.Properties[i+1:]...)
	return nil
}

// AddNode appends a node. A blank id is replaced by a fresh UUID and a
// blank kind defaults to dialogue. It returns the stored id.
func (c *Container) AddNode(node Node) (string, error) {
	if strings.TrimSpace(node.ID) == "" {
		node.ID = uuid.NewString()
	}
	if node.Kind == "" {
		node.Kind = NodeKindDialogue
	}
	if !node.Kind.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidNodeKind, node.Kind)
	}
	if _, exists := c.FindNode(node.ID); exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
	}
	c.Nodes = append(c.Nodes, node)
	return node.ID, nil
}

// RemoveNode deletes a node and its outgoing links. Links that pointed at it
// are kept but become unresolved, and comment blocks forget it.
func (c *Container) RemoveNode(id string) error {
	idx := -1
	for i := range c.Nodes {
		if c.Nodes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	c.Nodes = append(c.Nodes[:idx], c.Nodes[idx+1:]...)

	links := c.Links[:0]
	for _, l := range c.Links {
		if l.SourceID == id {
			continue
		}
		if l.TargetID == id {
			l.TargetID = ""
		}
		links = append(links, l)
	}
	c.Links = links

	for i := range c.Comments {
		ids := c.Comments[i].NodeIDs[:0]
		for _, nid := range c.Comments[i].NodeIDs {
			if nid != id {
				ids = append(ids, nid)
			}
		}
		c.Comments[i].NodeIDs = ids
	}
	return nil
}

// AddLink appends a link after checking port rules: one start link per
// graph, only true/false ports on branch nodes, and distinct ports per
// source. The target may be empty; a non-empty target must exist.
func (c *Container) AddLink(link Link) error {
	if link.IsStart() {
		if _, ok := c.startLink(); ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePort, PortStart)
		}
	} else {
		source, ok := c.FindNode(link.SourceID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, link.SourceID)
		}
		if source.IsBranch() && !isBranchPort(link.PortID) {
			return fmt.Errorf("%w: %q", ErrInvalidBranchPort, link.PortID)
		}
		if strings.TrimSpace(link.PortID) == "" {
			link.PortID = uuid.NewString()
		}
		if _, exists := c.findLink(link.SourceID, link.PortID); exists {
			return fmt.Errorf("%w: %s on %s", ErrDuplicatePort, link.PortID, link.SourceID)
		}
	}

	if link.Resolved() {
		if _, ok := c.FindNode(link.TargetID); !ok {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, link.TargetID)
		}
	}

	c.Links = append(c.Links, link)
	return nil
}

// RemoveLink deletes the link leaving sourceID through portID
func (c *Container) RemoveLink(sourceID, portID string) error {
	i, ok := c.findLink(sourceID, portID)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrLinkNotFound, sourceID, portID)
	}
	c.Links = append(c.Links[:i], c.Links[i+1:]...)
	return nil
}

// SetEntry points the start link at targetID, creating it if needed
func (c *Container) SetEntry(targetID string) error {
	if targetID != "" {
		if _, ok := c.FindNode(targetID); !ok {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, targetID)
		}
	}
	for i := range c.Links {
		if c.Links[i].IsStart() {
			c.Links[i].TargetID = targetID
			return nil
		}
	}
	c.Links = append(c.Links, Link{
		SourceID: EntryNodeID,
		TargetID: targetID,
		PortID:   PortStart,
		Label:    "Next",
	})
	return nil
}

// AddComment appends a comment block
func (c *Container) AddComment(block CommentBlock) {
	if block.Title == "" {
		block.Title = DefaultCommentTitle
	}
	c.Comments = append(c.Comments, block)
}

func (c *Container) findLink(sourceID, portID string) (int, bool) {
	for i, l := range c.Links {
		if l.SourceID == sourceID && samePort(l.PortID, portID) {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy that shares no slices with c
func (c *Container) Clone() *Container {
	out := &Container{
		Name:       c.Name,
		Nodes:      make([]Node, len(c.Nodes)),
		Links:      make([]Link, len(c.Links)),
		Properties: make(Properties, len(c.Properties)),
		Comments:   make([]CommentBlock, len(c.Comments)),
	}
	copy(out.Nodes, c.Nodes)
	copy(out.Links, c.Links)
	copy(out.Properties, c.Properties)
	for i, block := range c.Comments {
		block.NodeIDs = append([]string(nil), block.NodeIDs...)
		out.Comments[i] = block
	}
	return out
}
