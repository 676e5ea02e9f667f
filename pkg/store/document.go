package store

import "multimodal-rag-be/pkg/vectorstore"

// OriginKind tells where a fragment's text came from.
type OriginKind string

const (
	OriginText  OriginKind = "text"
	OriginImage OriginKind = "image"
	OriginTable OriginKind = "table"
)

// Fragment is a unit of extracted document content prior to embedding.
type Fragment struct {
	Text       string     `json:"text"`
	OriginKind OriginKind `json:"origin_kind"`
	Source     string     `json:"source"`
}

// FragmentTexts returns the texts of frags in order.
func FragmentTexts(frags []Fragment) []string {
	out := make([]string, len(frags))
	for i, f := range frags {
		out[i] = f.Text
	}
	return out
}

// RetrievedDoc is a search hit. Score is set only by the reranker;
// Similarity keeps the raw vector-store score for diagnostics.
type RetrievedDoc struct {
	Payload    vectorstore.Payload `json:"payload"`
	Score      float32             `json:"score"`
	Similarity float32             `json:"similarity"`
}
