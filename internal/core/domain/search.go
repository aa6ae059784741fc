package domain

// NeutralProbe is embedded in place of an empty query so that
// "fetch context without a question" still ranks records deterministically.
const NeutralProbe = "dummy"

// Filter is a set of exact-match metadata predicates ($eq semantics).
// A key mapped to "" matches only records where the field is absent.
type Filter map[string]string

// DocumentFilter pins a query to a single document.
func DocumentFilter(documentID string) Filter {
	return Filter{MetaDocumentID: documentID}
}

// Matches reports whether metadata satisfies every predicate.
func (f Filter) Matches(metadata map[string]string) bool {
	for key, want := range f {
		got, ok := metadata[key]
		if want == "" {
			if ok {
				return false
			}
			continue
		}
		if !ok || got != want {
			return false
		}
	}
	return true
}

// QueryResult is a ranked match returned by a vector store query.
type QueryResult struct {
	// ID is the record identifier.
	ID string

	// Text is the stored chunk text.
	Text string

	// Metadata is the stored chunk metadata.
	Metadata map[string]string

	// Score is the cosine similarity to the query (higher is closer).
	Score float64
}

// CollectionHandle identifies a collection that is known to exist.
type CollectionHandle struct {
	// Name is the collection name.
	Name string

	// Backend names the storage kind serving the collection (e.g. "sqlite").
	Backend string
}
