package agenda

import (
	"fmt"
	"iter"

	"orgcal/internal/model"
)

// AnnotationError locates a resolver failure inside a document.
type AnnotationError struct {
	Filename string
	Label    string
	Line     int
	Slot     model.Slot
	Err      error
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("%s:%d: %s of %q: %v", e.Filename, e.Line, e.Slot, e.Label, e.Err)
}

func (e *AnnotationError) Unwrap() error { return e.Err }

// Scan yields every occurrence of doc. Headlines are visited in document
// order and their planning slots in the order scheduled, deadline, closed.
//
// A slot that cannot be resolved is yielded as a zero occurrence paired with
// an *AnnotationError. Scan does not recover from it; a consumer that keeps
// ranging receives the remaining annotations of the document.
func Scan(doc model.Document) iter.Seq2[model.Occurrence, error] {
	return func(yield func(model.Occurrence, error) bool) {
		for _, h := range doc.Headlines {
			if h.Planning.Empty() {
				continue
			}
			for _, slot := range model.Slots {
				a := h.Planning.Get(slot)
				if a == nil {
					continue
				}

				occs, err := Resolve(a, h.Label)
				if err != nil {
					aerr := &AnnotationError{
						Filename: doc.Filename,
						Label:    h.Label,
						Line:     h.Line,
						Slot:     slot,
						Err:      err,
					}
					if !yield(model.Occurrence{}, aerr) {
						return
					}
					continue
				}

				for _, occ := range occs {
					if !yield(occ, nil) {
						return
					}
				}
			}
		}
	}
}
