package models

// SearchResults is the outcome of one semantic search against the content
// collection. Documents, Metadata and Distances are parallel slices ordered
// by ascending distance. When Error is set the slices are empty and must not
// be read positionally.
type SearchResults struct {
	Documents []string         `json:"documents"`
	Metadata  []map[string]any `json:"metadata"`
	Distances []float64        `json:"distances"`
	Error     string           `json:"error,omitempty"`
}

// NewSearchResults converts a raw vector query result into SearchResults.
func NewSearchResults(result *QueryResult) *SearchResults {
	if result == nil {
		return EmptySearchResults("")
	}
	return &SearchResults{
		Documents: result.Documents,
		Metadata:  result.Metadatas,
		Distances: result.Distances,
	}
}

// EmptySearchResults returns results with no documents, optionally carrying
// an error message.
func EmptySearchResults(errMsg string) *SearchResults {
	return &SearchResults{
		Documents: []string{},
		Metadata:  []map[string]any{},
		Distances: []float64{},
		Error:     errMsg,
	}
}

// IsEmpty reports whether there are no documents, regardless of Error.
func (r *SearchResults) IsEmpty() bool {
	return len(r.Documents) == 0
}

// HasError reports whether the search failed.
func (r *SearchResults) HasError() bool {
	return r.Error != ""
}

// Source is a display-ready attribution shown alongside an answer.
type Source struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}
