package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultPrefetch, cfg.Worker.Prefetch)
	assert.Equal(t, DefaultChunkSize, cfg.Worker.ChunkSize)
	assert.Equal(t, DefaultChunkOverlap, cfg.Worker.ChunkOverlap)
	assert.Equal(t, DefaultQueueName, cfg.Queue.Name)
	assert.Equal(t, DefaultCollection, cfg.Qdrant.Collection)
	assert.Equal(t, DefaultEmbeddingDims, cfg.Gemini.EmbeddingDims)
	assert.Equal(t, domain.GroundingStrict, cfg.GroundingMode())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docqa.toml")
	content := `
[server]
addr = ":9090"

[worker]
prefetch = 5
chunk_size = 1000
chunk_overlap = 100

[rag]
top_k = 3
grounding = "source-tagged"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.Worker.Prefetch)
	assert.Equal(t, 1000, cfg.Worker.ChunkSize)
	assert.Equal(t, 100, cfg.Worker.ChunkOverlap)
	assert.Equal(t, 3, cfg.RAG.TopK)
	assert.Equal(t, domain.GroundingSourceTagged, cfg.GroundingMode())
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docqa.toml")
	content := `
[gemini]
api_key = "from-file"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Gemini.APIKey)
}

func TestLoad_RejectsUnknownGrounding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docqa.toml")
	require.NoError(t, os.WriteFile(path, []byte("[rag]\ngrounding = \"vibes\"\n"), 0600))

	_, err := Load(path)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoad_RejectsOverlapNotSmallerThanSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docqa.toml")
	require.NoError(t, os.WriteFile(path, []byte("[worker]\nchunk_size = 100\nchunk_overlap = 100\n"), 0600))

	_, err := Load(path)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docqa.toml")
	require.NoError(t, os.WriteFile(path, []byte("not toml ==="), 0600))

	_, err := Load(path)
	require.Error(t, err)
}
