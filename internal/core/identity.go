package core

// Sequence hands out synthetic ids: 1-based, monotonically increasing, scoped
// to one run. Passing the sequence explicitly keeps identity assignment
// testable without constructing the whole pipeline.
type Sequence struct {
	last int64
}

func NewSequence() *Sequence { return &Sequence{} }

// Next allocates the next id.
func (s *Sequence) Next() int64 {
	s.last++
	return s.last
}

// Last returns the most recently allocated id, 0 if none.
func (s *Sequence) Last() int64 { return s.last }

// DocumentResolver maps document natural keys to canonical documents. The
// first resolve for a key allocates an id and builds the document; every
// later resolve for the same key returns the same document untouched,
// regardless of which history source asks. Single-writer only.
type DocumentResolver struct {
	seq  *Sequence
	docs map[DocumentKey]*Document
}

func NewDocumentResolver(seq *Sequence) *DocumentResolver {
	return &DocumentResolver{seq: seq, docs: make(map[DocumentKey]*Document)}
}

// Resolve returns the document for key, creating it on first sight. The
// builder receives the freshly allocated id and is invoked only when the key
// is new; whichever source resolves first fixes the descriptive fields.
// created reports whether this call built the document, so the caller knows
// to hand it to the sink exactly once.
func (r *DocumentResolver) Resolve(key DocumentKey, build func(id int64) Document) (doc *Document, created bool, err error) {
	if existing, ok := r.docs[key]; ok {
		return existing, false, nil
	}
	d := build(r.seq.Next())
	if d.JournalID != key.JournalID || d.Number != key.Number {
		return nil, false, &KeyError{Key: key, Detail: "built document does not match its key"}
	}
	r.docs[key] = &d
	return &d, true, nil
}

// Size returns the number of distinct documents resolved so far.
func (r *DocumentResolver) Size() int { return len(r.docs) }
