package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"branchline/internal/metrics"
	"branchline/internal/repository/sqlite"
	"branchline/internal/service"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const introYAML = `
nodes:
  - {id: hello, kind: dialogue, text: "Hi [name]"}
links:
  - {source_id: entry, target_id: hello, port_id: start}
properties:
  - {name: name, value: Ada}
`

const outroJSON = `{
  "nodes": [{"id": "bye", "kind": "end"}],
  "links": [{"source_id": "entry", "target_id": "bye", "port_id": "start"}]
}`

func newGraphService(t *testing.T, collector *metrics.Collector) *service.GraphService {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return service.NewGraphService(repo, service.NewEventBus(), zaptest.NewLogger(t), collector)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIsGraphFile(t *testing.T) {
	assert.True(t, IsGraphFile("a.json"))
	assert.True(t, IsGraphFile("dir/a.YAML"))
	assert.True(t, IsGraphFile("a.yml"))
	assert.False(t, IsGraphFile("a.txt"))
	assert.False(t, IsGraphFile("json"))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "intro.yaml", introYAML)
	writeFile(t, dir, "outro.json", outroJSON)
	writeFile(t, dir, "broken.json", "{")
	writeFile(t, dir, "README.txt", "not a graph")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0755))

	collector := metrics.NewCollector("test")
	graphs := newGraphService(t, collector)
	ctx := context.Background()

	result, err := LoadDir(ctx, dir, graphs, zaptest.NewLogger(t), collector)
	require.NoError(t, err)

	assert.Equal(t, []string{"intro", "outro"}, result.Loaded)
	require.Len(t, result.Failed, 1)
	assert.ErrorIs(t, result.Failed["broken.json"], service.ErrInvalidGraph)
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.GraphLoadErrors))

	c, err := graphs.Get(ctx, "intro")
	require.NoError(t, err)
	assert.Len(t, c.Nodes, 1)
}

func TestLoadDirMissing(t *testing.T) {
	graphs := newGraphService(t, nil)
	_, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "absent"), graphs, nil, nil)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	graphs := newGraphService(t, nil)
	ctx := context.Background()

	path := writeFile(t, dir, "intro.yml", introYAML)
	result, err := LoadFile(ctx, graphs, path)
	require.NoError(t, err)
	assert.Equal(t, "intro", result.Name)
	assert.True(t, result.Changed)

	result, err = LoadFile(ctx, graphs, path)
	require.NoError(t, err)
	assert.False(t, result.Changed)

	_, err = LoadFile(ctx, graphs, writeFile(t, dir, "notes.txt", ""))
	assert.Error(t, err)
}
