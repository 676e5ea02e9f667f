package prompt

import "strings"

// Template versions. Changing the text changes answer behavior, so edits
// get a new version instead of rewriting an existing one.
const (
	QAVersion1 = "qa-v1"
	QAVersion  = QAVersion1

	ContextSeparator = "\n\n---\n\n"
	NoContext        = "No relevant documents found"
)

var qaTemplates = map[string]string{
	QAVersion1: "Context information is below.\n" +
		"---------------------\n" +
		"{context}\n" +
		"---------------------\n" +
		"Given the context information above I want you to think step by step to answer the query, incase you don't know the answer say 'I don't know!'\n" +
		"---------------------\n" +
		"Query: {query}\n" +
		"---------------------\n" +
		"Answer: ",
}

// QABuilder fills a versioned question-answering template.
type QABuilder struct {
	template string
}

// NewQABuilder falls back to the current version for unknown names.
func NewQABuilder(version string) *QABuilder {
	tmpl, ok := qaTemplates[version]
	if !ok {
		tmpl = qaTemplates[QAVersion]
	}
	return &QABuilder{template: tmpl}
}

// Build substitutes context and query in a single pass so placeholder text
// inside either value is left alone.
func (b *QABuilder) Build(context, query string) string {
	r := strings.NewReplacer("{context}", context, "{query}", query)
	return r.Replace(b.template)
}

// JoinContexts concatenates contexts in order, or returns NoContext.
func JoinContexts(contexts []string) string {
	if len(contexts) == 0 {
		return NoContext
	}
	return strings.Join(contexts, ContextSeparator)
}
