package agenda

import (
	"errors"
	"slices"
	"time"

	"orgcal/internal/model"
)

// Skip records one annotation that could not be placed on the agenda.
type Skip struct {
	Filename string
	Label    string
	Line     int
	Slot     model.Slot
	Err      error
}

// Agenda is the ordered, duplicate-free set of occurrences across a set of
// documents, plus the annotations that had to be skipped.
type Agenda struct {
	Entries []model.Occurrence
	Skipped []Skip
}

// SkippedCount returns the number of annotations that could not be scheduled.
func (a Agenda) SkippedCount() int {
	return len(a.Skipped)
}

// Lines renders every entry as an agenda line.
func (a Agenda) Lines() []string {
	lines := make([]string, len(a.Entries))
	for i, e := range a.Entries {
		lines[i] = e.String()
	}
	return lines
}

// Window returns the entries with from <= time < to. A zero bound is open.
func (a Agenda) Window(from, to time.Time) []model.Occurrence {
	lo := 0
	if !from.IsZero() {
		lo, _ = slices.BinarySearchFunc(a.Entries, from, func(o model.Occurrence, t time.Time) int {
			return o.Time.Compare(t)
		})
	}
	hi := len(a.Entries)
	if !to.IsZero() {
		hi, _ = slices.BinarySearchFunc(a.Entries, to, func(o model.Occurrence, t time.Time) int {
			return o.Time.Compare(t)
		})
	}
	if hi < lo {
		return nil
	}
	return a.Entries[lo:hi]
}

// Build merges the occurrences of all documents into one agenda, ordered by
// model.CompareOccurrences with duplicates removed. An annotation the
// resolver rejects is recorded in Skipped and aggregation continues with the
// rest of that document and the remaining documents. Build never fails and
// does not modify docs.
func Build(docs []model.Document) Agenda {
	var (
		entries []model.Occurrence
		skipped []Skip
	)

	for _, doc := range docs {
		for occ, err := range Scan(doc) {
			if err != nil {
				skipped = append(skipped, newSkip(doc.Filename, err))
				continue
			}
			entries = append(entries, occ)
		}
	}

	slices.SortStableFunc(entries, model.CompareOccurrences)
	entries = slices.CompactFunc(entries, model.Occurrence.Equal)

	return Agenda{
		Entries: slices.Clip(entries),
		Skipped: skipped,
	}
}

func newSkip(filename string, err error) Skip {
	var aerr *AnnotationError
	if errors.As(err, &aerr) {
		return Skip{
			Filename: aerr.Filename,
			Label:    aerr.Label,
			Line:     aerr.Line,
			Slot:     aerr.Slot,
			Err:      aerr.Err,
		}
	}
	return Skip{Filename: filename, Err: err}
}
