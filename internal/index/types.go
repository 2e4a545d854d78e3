package index

// Passage type tags carried in passage metadata. They identify which part of
// the community snapshot a passage was derived from.
const (
	TypeDescription = "description"
	TypeProducts    = "products"
	TypeServices    = "services"
	TypePosts       = "posts"
)

// Document is one passage to be indexed: a unit of derived text plus its
// metadata. Documents are regenerated wholesale on every ingestion.
type Document struct {
	ID          string // optional; a UUID is assigned when empty
	CommunityID int64
	Type        string // one of the Type* constants
	Content     string
}

// Result is a single nearest-neighbor match.
type Result struct {
	Document   Document
	Similarity float32 // cosine similarity, 1 = identical direction
}
