package localize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"branchline/internal/domain"
	"branchline/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
en:
  tavern:
    greeting: "Hello [name]!"
    leave: Goodbye
fr:
  tavern:
    greeting: "Bonjour [name] !"
`

func TestCatalogText(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Load(strings.NewReader(catalogYAML)))

	tests := []struct {
		locale, table, key string
		want               string
		wantOK             bool
	}{
		{"en", "tavern", "greeting", "Hello [name]!", true},
		{"fr", "tavern", "greeting", "Bonjour [name] !", true},
		{"fr", "tavern", "leave", "? leave ?", false},
		{"en", "market", "greeting", "? greeting ?", false},
		{"de", "tavern", "greeting", "? greeting ?", false},
	}

	for _, tt := range tests {
		t.Run(tt.locale+"/"+tt.table+"/"+tt.key, func(t *testing.T) {
			got, ok := c.Text(tt.locale, tt.table, tt.key)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}

	locales, entries := c.Size()
	assert.Equal(t, 2, locales)
	assert.Equal(t, 3, entries)
}

func TestCatalogLoadErrors(t *testing.T) {
	c := NewCatalog()
	assert.NoError(t, c.Load(strings.NewReader("")))
	assert.Error(t, c.Load(strings.NewReader("en: [not, a, table]")))
	assert.Error(t, c.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestCatalogLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o644))

	c := NewCatalog()
	require.NoError(t, c.LoadFile(path))

	text, ok := c.Text("en", "tavern", "leave")
	assert.True(t, ok)
	assert.Equal(t, "Goodbye", text)
}

func TestCatalogResolverDrivesSession(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Load(strings.NewReader(catalogYAML)))

	g := domain.NewContainer("tavern")
	_, err := g.AddNode(domain.Node{ID: "hello", Text: "greeting"})
	require.NoError(t, err)
	_, err = g.AddNode(domain.Node{ID: "bye", Kind: domain.NodeKindEnd})
	require.NoError(t, err)
	require.NoError(t, g.SetEntry("hello"))
	require.NoError(t, g.AddLink(domain.Link{SourceID: "hello", TargetID: "bye", PortID: "p", Label: "leave"}))
	g.AddProperty("name", "Ada")

	en, err := engine.New(g.Clone(), engine.WithTextResolver(c.Resolver("en", "tavern"))).Start()
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada!", en.Text)
	assert.Equal(t, "Goodbye", en.Choices[0].Label)

	fr, err := engine.New(g.Clone(), engine.WithTextResolver(c.Resolver("fr", "tavern"))).Start()
	require.NoError(t, err)
	assert.Equal(t, "Bonjour Ada !", fr.Text)
	assert.Equal(t, "? leave ?", fr.Choices[0].Label)
}
