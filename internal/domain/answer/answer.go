package answer

// Record is the transient output of a query: extractive answer text plus one
// source label per contributing chunk, in rank order.
type Record struct {
	text    string
	sources []string
	found   bool
}

// New creates an answer grounded in retrieved chunks.
func New(text string, sources []string) Record {
	if sources == nil {
		sources = []string{}
	}
	return Record{text: text, sources: sources, found: true}
}

// NotFound creates an answer for a query with no grounding text.
func NotFound(message string) Record {
	return Record{text: message, sources: []string{}}
}

// Text returns the answer text.
func (r *Record) Text() string { return r.text }

// Sources returns the ordered source labels. Never nil.
func (r *Record) Sources() []string { return r.sources }

// Found reports whether any chunk grounded the answer.
func (r *Record) Found() bool { return r.found }
