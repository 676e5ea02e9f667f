package config

import (
	"testing"
	"time"

	"multimodal-rag-be/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, VectorBackendQdrant, cfg.Vector.Backend)
	assert.Equal(t, 768, cfg.Vector.Dimension)
	assert.Equal(t, "multimodal_rag_", cfg.Vector.CollectionPrefix)
	assert.Equal(t, 0.7, cfg.Ai.RerankThreshold)
	assert.Equal(t, time.Hour, cfg.App.CacheTTL)
	require.NoError(t, cfg.Validate())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("VECTOR_STORE", "pgvector")
	t.Setenv("DB_CONNECTION_STRING", "postgres://localhost/rag")
	t.Setenv("VECTOR_RESCORE", "false")
	t.Setenv("VECTOR_QUERY_TIMEOUT", "750ms")
	t.Setenv("RETRIEVAL_TOP_K", "not-a-number")

	cfg := Load()
	assert.Equal(t, VectorBackendPgvector, cfg.Vector.Backend)
	assert.False(t, cfg.Vector.Rescore)
	assert.Equal(t, 750*time.Millisecond, cfg.Vector.QueryTimeout)
	assert.Equal(t, 10, cfg.Ai.TopK)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsMalformedSettings(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"qdrant url without scheme", map[string]string{"QDRANT_URL": "localhost:6334"}},
		{"ollama url with bad scheme", map[string]string{"OLLAMA_BASE_URL": "ftp://ollama"}},
		{"reranker url unparsable", map[string]string{"RERANKER_URL": "http://[::1"}},
		{"unknown vector store", map[string]string{"VECTOR_STORE": "faiss"}},
		{"pgvector without dsn", map[string]string{"VECTOR_STORE": "pgvector"}},
		{"unknown session store", map[string]string{"SESSION_STORE": "sqlite"}},
		{"unknown cache", map[string]string{"CACHE": "memcached"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("DB_CONNECTION_STRING", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			err := Load().Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrConfiguration)
		})
	}
}
