package domain

// entryStrategy is one way of locating the link a session starts from
type entryStrategy struct {
	name string
	find func(c *Container) (Link, bool)
}

// entryStrategies are tried in order. Only the first is part of the current
// format; the other two exist for graphs saved before the start port was
// tagged and can be dropped once those are migrated.
var entryStrategies = []entryStrategy{
	{name: "tagged", find: (*Container).startLink},
	{name: "orphan-source", find: (*Container).orphanSourceLink},
	{name: "first-link", find: (*Container).firstLink},
}

// EntryLink returns the link that begins a traversal
func (c *Container) EntryLink() (Link, bool) {
	link, _, ok := c.EntryLinkStrategy()
	return link, ok
}

// EntryLinkStrategy is EntryLink, also naming the strategy that matched
func (c *Container) EntryLinkStrategy() (Link, string, bool) {
	for _, s := range entryStrategies {
		if link, ok := s.find(c); ok {
			return link, s.name, true
		}
	}
	return Link{}, "", false
}

func (c *Container) startLink() (Link, bool) {
	for _, l := range c.Links {
		if l.IsStart() {
			return l, true
		}
	}
	return Link{}, false
}

// orphanSourceLink finds the first link leaving an id that is not a node,
// which older graphs used for the implicit entry node
func (c *Container) orphanSourceLink() (Link, bool) {
	ids := make(map[string]struct{}, len(c.Nodes))
	for _, n := range c.Nodes {
		ids[n.ID] = struct{}{}
	}
	for _, l := range c.Links {
		if _, ok := ids[l.SourceID]; !ok {
			return l, true
		}
	}
	return Link{}, false
}

func (c *Container) firstLink() (Link, bool) {
	if len(c.Links) == 0 {
		return Link{}, false
	}
	return c.Links[0], true
}
