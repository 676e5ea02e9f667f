package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFillsTemplate(t *testing.T) {
	out := NewQABuilder(QAVersion1).Build("CTX", "what is rag?")

	assert.True(t, strings.HasPrefix(out, "Context information is below.\n---------------------\nCTX\n"))
	assert.Contains(t, out, "say 'I don't know!'")
	assert.Contains(t, out, "Query: what is rag?\n")
	assert.True(t, strings.HasSuffix(out, "Answer: "))
}

func TestBuildDoesNotReexpandPlaceholders(t *testing.T) {
	out := NewQABuilder("unknown").Build("contains {query}", "q")
	assert.Contains(t, out, "contains {query}")
}

func TestJoinContexts(t *testing.T) {
	assert.Equal(t, "No relevant documents found", JoinContexts(nil))
	assert.Equal(t, "a\n\n---\n\nb", JoinContexts([]string{"a", "b"}))
}
