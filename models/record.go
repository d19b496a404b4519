package models

// DocumentRecord is one reference document after extraction. Category is the
// grouping the document belongs to (the enclosing directory, typically the
// licensing organization); it is empty for direct uploads. Name is the file
// name without its extension. Records are created at ingest time and never
// mutated.
type DocumentRecord struct {
	Category string `json:"category,omitempty"`
	Name     string `json:"name"`
	Text     string `json:"text"`
}

// IndexEntry is one vector-store row: a deterministic id, the embedding of
// the record's text, and the record itself as metadata. Upserting the same id
// overwrites the previous row.
type IndexEntry struct {
	ID       string
	Vector   []float32
	Category string
	Name     string
	Text     string
}

// QueryMatch is one ranked result of a similarity query.
type QueryMatch struct {
	Category string
	Name     string
	Text     string
}
