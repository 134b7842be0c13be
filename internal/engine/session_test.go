package engine

import (
	"testing"

	"branchline/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// shopGraph: greet -> (shop | leave); shop -> branch on gold -> rich | poor;
// rich -> bye (end); poor has no choices.
func shopGraph(t *testing.T) *domain.Container {
	t.Helper()
	c := domain.NewContainer("shop")

	for _, n := range []domain.Node{
		{ID: "greet", Kind: domain.NodeKindDialogue, Text: "Hello [name]!"},
		{ID: "check", Kind: domain.NodeKindBranch, Condition: "[gold] >= 10"},
		{ID: "rich", Kind: domain.NodeKindDialogue, Text: "Welcome, patron [name]."},
		{ID: "poor", Kind: domain.NodeKindDialogue, Text: "Come back with more than [gold] coins."},
		{ID: "bye", Kind: domain.NodeKindEnd, Text: "unused"},
	} {
		_, err := c.AddNode(n)
		require.NoError(t, err)
	}

	require.NoError(t, c.SetEntry("greet"))
	for _, l := range []domain.Link{
		{SourceID: "greet", TargetID: "check", PortID: "shop", Label: "Show me your wares"},
		{SourceID: "greet", TargetID: "bye", PortID: "leave", Label: "Goodbye, [name]"},
		{SourceID: "check", TargetID: "rich", PortID: domain.PortTrue},
		{SourceID: "check", TargetID: "poor", PortID: domain.PortFalse},
		{SourceID: "rich", TargetID: "bye", PortID: "thanks", Label: "Thanks"},
	} {
		require.NoError(t, c.AddLink(l))
	}

	c.AddProperty("name", "Ada")
	c.AddProperty("gold", "15")
	return c
}

type recorder struct {
	diags []Diagnostic
}

func (r *recorder) Diagnostic(d Diagnostic) { r.diags = append(r.diags, d) }

func (r *recorder) codes() []string {
	var codes []string
	for _, d := range r.diags {
		codes = append(codes, d.Code)
	}
	return codes
}

func newSession(t *testing.T, c *domain.Container, rec *recorder, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithObserver(rec)}, opts...)
	return New(c, opts...)
}

func targets(choices []Choice) []string {
	out := make([]string, 0, len(choices))
	for _, c := range choices {
		out = append(out, c.TargetID)
	}
	return out
}

func TestSessionStart(t *testing.T) {
	rec := &recorder{}
	s := newSession(t, shopGraph(t), rec)

	assert.Equal(t, StatusIdle, s.State().Status)

	state, err := s.Start()
	require.NoError(t, err)

	assert.Equal(t, StatusDialogue, state.Status)
	assert.Equal(t, "greet", state.NodeID)
	assert.Equal(t, "Hello Ada!", state.Text)
	assert.Equal(t, []string{"check", "bye"}, targets(state.Choices))
	assert.Equal(t, "Goodbye, Ada", state.Choices[1].Label)
	assert.Equal(t, 1, state.Step)
	assert.Empty(t, rec.diags)
}

func TestSessionFullPlaythrough(t *testing.T) {
	rec := &recorder{}
	s := newSession(t, shopGraph(t), rec)

	_, err := s.Start()
	require.NoError(t, err)

	state, err := s.Proceed("check")
	require.NoError(t, err)
	assert.Equal(t, "rich", state.NodeID, "branch must be resolved within the step")
	assert.Equal(t, "Welcome, patron Ada.", state.Text)

	state, err = s.Proceed("bye")
	require.NoError(t, err)
	assert.True(t, state.Ended())
	assert.Equal(t, EndNode, state.EndReason)
	assert.Equal(t, "bye", state.NodeID)
	assert.Empty(t, state.Choices)
	assert.Equal(t, 3, state.Step)
}

func TestSessionBranchDeterminism(t *testing.T) {
	tests := []struct {
		name       string
		gold       *string
		dropFalse  bool
		wantNode   string
		wantReason EndReason
	}{
		{name: "rich follows true", gold: strPtr("15"), wantNode: "rich"},
		{name: "poor follows false", gold: strPtr("5"), wantNode: "poor", wantReason: EndDeadEnd},
		{name: "absent property follows false", gold: nil, wantNode: "poor", wantReason: EndDeadEnd},
		{name: "absent property without false arm ends", gold: nil, dropFalse: true, wantReason: EndMissingBranchArm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := shopGraph(t)
			if tt.gold == nil {
				require.NoError(t, c.RemoveProperty("gold"))
			} else {
				require.NoError(t, c.SetPropertyValue("gold", *tt.gold))
			}
			if tt.dropFalse {
				require.NoError(t, c.RemoveLink("check", domain.PortFalse))
			}

			for i := 0; i < 3; i++ {
				s := newSession(t, c.Clone(), &recorder{})
				_, err := s.Start()
				require.NoError(t, err)

				state, err := s.Proceed("check")
				require.NoError(t, err)
				assert.Equal(t, tt.wantNode, state.NodeID)
				assert.Equal(t, tt.wantReason, state.EndReason)
			}
		})
	}
}

func TestSessionDeadEndShowsTextOnce(t *testing.T) {
	c := shopGraph(t)
	require.NoError(t, c.SetPropertyValue("gold", "3"))
	s := newSession(t, c, &recorder{})

	_, err := s.Start()
	require.NoError(t, err)

	state, err := s.Proceed("check")
	require.NoError(t, err)

	assert.Equal(t, StatusEnded, state.Status)
	assert.Equal(t, EndDeadEnd, state.EndReason)
	assert.Equal(t, "poor", state.NodeID)
	assert.Equal(t, "Come back with more than 3 coins.", state.Text)
	assert.Empty(t, state.Choices)

	_, err = s.Proceed("poor")
	assert.ErrorIs(t, err, ErrSessionEnded)
}

func TestSessionConditionsFilterChoicesInOrder(t *testing.T) {
	c := domain.NewContainer("order")
	for _, id := range []string{"hub", "a", "b", "c", "d", "e"} {
		_, err := c.AddNode(domain.Node{ID: id, Kind: domain.NodeKindDialogue, Text: id})
		require.NoError(t, err)
	}
	require.NoError(t, c.SetEntry("hub"))
	links := []domain.Link{
		{SourceID: "hub", TargetID: "a", PortID: "1", Condition: "[lvl] > 5"},
		{SourceID: "hub", TargetID: "b", PortID: "2"},
		{SourceID: "hub", TargetID: "c", PortID: "3", Condition: "[lvl] == 1"},
		{SourceID: "hub", TargetID: "", PortID: "4"},
		{SourceID: "hub", TargetID: "d", PortID: "5", Condition: "false"},
		{SourceID: "hub", TargetID: "e", PortID: "6", Condition: "[lvl] >= 1 && [lvl] < 2"},
	}
	for _, l := range links {
		require.NoError(t, c.AddLink(l))
	}
	c.AddProperty("lvl", "1")

	state, err := newSession(t, c, &recorder{}).Start()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "e"}, targets(state.Choices))
}

func TestSessionAllChoicesGatedEndsSession(t *testing.T) {
	c := domain.NewContainer("gated")
	for _, id := range []string{"door", "room"} {
		_, err := c.AddNode(domain.Node{ID: id, Text: "The " + id})
		require.NoError(t, err)
	}
	require.NoError(t, c.SetEntry("door"))
	require.NoError(t, c.AddLink(domain.Link{SourceID: "door", TargetID: "room", PortID: "open", Condition: "[key] == true"}))
	c.AddProperty("key", "false")

	state, err := newSession(t, c, &recorder{}).Start()
	require.NoError(t, err)
	assert.Equal(t, EndDeadEnd, state.EndReason)
	assert.Equal(t, "The door", state.Text)
}

func TestSessionInvalidChoice(t *testing.T) {
	rec := &recorder{}
	s := newSession(t, shopGraph(t), rec)

	_, err := s.Proceed("greet")
	assert.ErrorIs(t, err, ErrNotStarted)

	before, err := s.Start()
	require.NoError(t, err)

	after, err := s.Proceed("rich")
	assert.ErrorIs(t, err, ErrInvalidChoice)
	assert.Equal(t, before, after, "state must not change")
	assert.Equal(t, []string{DiagInvalidChoice}, rec.codes())
}

func TestSessionNoEntry(t *testing.T) {
	t.Run("no links", func(t *testing.T) {
		c := domain.NewContainer("empty")
		_, err := c.AddNode(domain.Node{ID: "a"})
		require.NoError(t, err)

		rec := &recorder{}
		state, err := newSession(t, c, rec).Start()
		assert.ErrorIs(t, err, ErrNoEntry)
		assert.Equal(t, EndNoEntry, state.EndReason)
		assert.Equal(t, []string{DiagNoEntry}, rec.codes())
	})

	t.Run("unconnected start link", func(t *testing.T) {
		c := domain.NewContainer("unconnected")
		require.NoError(t, c.SetEntry(""))

		state, err := newSession(t, c, &recorder{}).Start()
		assert.ErrorIs(t, err, ErrNoEntry)
		assert.True(t, state.Ended())
	})
}

func TestSessionMissingNode(t *testing.T) {
	c := domain.NewContainer("missing")
	c.Links = []domain.Link{{SourceID: domain.EntryNodeID, TargetID: "ghost", PortID: domain.PortStart}}

	rec := &recorder{}
	state, err := newSession(t, c, rec).Start()
	require.NoError(t, err)
	assert.Equal(t, EndMissingNode, state.EndReason)
	assert.Empty(t, state.NodeID)
	assert.Equal(t, []string{DiagMissingNode}, rec.codes())
}

func TestSessionBranchCycle(t *testing.T) {
	c := domain.NewContainer("cycle")
	c.Nodes = []domain.Node{
		{ID: "b1", Kind: domain.NodeKindBranch},
		{ID: "b2", Kind: domain.NodeKindBranch},
	}
	c.Links = []domain.Link{
		{SourceID: domain.EntryNodeID, TargetID: "b1", PortID: domain.PortStart},
		{SourceID: "b1", TargetID: "b2", PortID: domain.PortTrue},
		{SourceID: "b2", TargetID: "b1", PortID: domain.PortTrue},
	}

	rec := &recorder{}
	state, err := newSession(t, c, rec).Start()
	require.NoError(t, err)
	assert.Equal(t, EndBranchCycle, state.EndReason)
	assert.Contains(t, rec.codes(), DiagBranchCycle)
}

func TestSessionUnknownChoiceTargetIsNotOffered(t *testing.T) {
	c := shopGraph(t)
	c.Links = append(c.Links, domain.Link{SourceID: "greet", TargetID: "ghost", PortID: "haunt"})

	rec := &recorder{}
	state, err := newSession(t, c, rec).Start()
	require.NoError(t, err)
	assert.Equal(t, []string{"check", "bye"}, targets(state.Choices))
	assert.Equal(t, []string{DiagUnknownTarget}, rec.codes())
}

func TestSessionLegacyEntry(t *testing.T) {
	c := domain.NewContainer("legacy")
	c.Nodes = []domain.Node{{ID: "a", Kind: domain.NodeKindEnd}}
	c.Links = []domain.Link{{SourceID: "old-entry", TargetID: "a", PortID: "whatever"}}

	rec := &recorder{}
	state, err := newSession(t, c, rec).Start()
	require.NoError(t, err)
	assert.Equal(t, EndNode, state.EndReason)
	assert.Equal(t, []string{DiagLegacyEntry}, rec.codes())
}

func TestSessionPropertyChangeBetweenSteps(t *testing.T) {
	s := newSession(t, shopGraph(t), &recorder{})
	_, err := s.Start()
	require.NoError(t, err)

	require.NoError(t, s.SetProperty("gold", "1"))
	assert.Error(t, s.SetProperty("silver", "1"))

	state, err := s.Proceed("check")
	require.NoError(t, err)
	assert.Equal(t, "poor", state.NodeID)

	value, ok := s.Properties().Lookup("gold")
	assert.True(t, ok)
	assert.Equal(t, "1", value)
}

func TestSessionTextResolver(t *testing.T) {
	c := domain.NewContainer("localized")
	_, err := c.AddNode(domain.Node{ID: "hello", Text: "  greeting "})
	require.NoError(t, err)
	_, err = c.AddNode(domain.Node{ID: "end", Kind: domain.NodeKindEnd})
	require.NoError(t, err)
	require.NoError(t, c.SetEntry("hello"))
	require.NoError(t, c.AddLink(domain.Link{SourceID: "hello", TargetID: "end", PortID: "p", Label: "farewell"}))
	c.AddProperty("name", "Zoé")

	table := map[string]string{"greeting": "Bonjour [name] !"}
	resolver := TextResolverFunc(func(key string) (string, bool) {
		text, ok := table[key]
		if !ok {
			return "? " + key + " ?", false
		}
		return text, true
	})

	rec := &recorder{}
	state, err := newSession(t, c, rec, WithTextResolver(resolver)).Start()
	require.NoError(t, err)
	assert.Equal(t, "Bonjour Zoé !", state.Text)
	assert.Equal(t, "? farewell ?", state.Choices[0].Label)
	assert.Equal(t, []string{DiagMissingText}, rec.codes())
}

func TestSessionRestart(t *testing.T) {
	s := newSession(t, shopGraph(t), &recorder{})
	_, err := s.Start()
	require.NoError(t, err)
	_, err = s.Proceed("bye")
	require.NoError(t, err)

	state, err := s.Start()
	require.NoError(t, err)
	assert.Equal(t, "greet", state.NodeID)
	assert.Equal(t, 1, state.Step)
}

func TestSessionNeverReferencesMissingNodes(t *testing.T) {
	c := shopGraph(t)
	c.Links = append(c.Links,
		domain.Link{SourceID: "greet", TargetID: "ghost", PortID: "haunt"},
		domain.Link{SourceID: "rich", TargetID: "", PortID: "later"},
	)
	require.NoError(t, c.RemoveNode("poor"))

	for _, gold := range []string{"0", "50"} {
		s := newSession(t, c.Clone(), &recorder{})
		require.NoError(t, s.SetProperty("gold", gold))

		state, err := s.Start()
		require.NoError(t, err)
		for !state.Ended() {
			assertKnown(t, c, state)
			state, err = s.Proceed(state.Choices[0].TargetID)
			require.NoError(t, err)
		}
		assertKnown(t, c, state)
	}
}

func assertKnown(t *testing.T, c *domain.Container, state State) {
	t.Helper()
	if state.NodeID != "" {
		_, ok := c.FindNode(state.NodeID)
		assert.True(t, ok, "state references missing node %q", state.NodeID)
	}
	for _, choice := range state.Choices {
		_, ok := c.FindNode(choice.TargetID)
		assert.True(t, ok, "choice references missing node %q", choice.TargetID)
	}
}

func strPtr(s string) *string { return &s }
