package agenda

import (
	"errors"
	"fmt"

	"orgcal/internal/model"
)

// ErrUnsupportedAnnotation is matched by errors.Is for every annotation the
// resolver cannot turn into concrete occurrences.
var ErrUnsupportedAnnotation = errors.New("unsupported annotation")

// UnsupportedAnnotationError reports a diary-style annotation.
type UnsupportedAnnotationError struct {
	Expression string
}

func (e *UnsupportedAnnotationError) Error() string {
	return fmt.Sprintf("unsupported annotation: diary expression %q", e.Expression)
}

func (e *UnsupportedAnnotationError) Is(target error) bool {
	return target == ErrUnsupportedAnnotation
}

// Resolve converts one annotation into the occurrences it contributes to an
// agenda:
//
//   - Single: one occurrence at its instant
//   - Range: two occurrences, one per endpoint, both labelled the same
//   - SinglePassive, RangePassive: none
//   - FreeForm: an *UnsupportedAnnotationError and no occurrences
//
// Repeaters are not expanded; only the literal first instant is used.
func Resolve(a model.Annotation, label string) ([]model.Occurrence, error) {
	switch v := a.(type) {
	case model.Single:
		return []model.Occurrence{{Time: v.At.Time, Label: label}}, nil
	case model.Range:
		return []model.Occurrence{
			{Time: v.Start.Time, Label: label},
			{Time: v.End.Time, Label: label},
		}, nil
	case model.SinglePassive, model.RangePassive:
		return nil, nil
	case model.FreeForm:
		return nil, &UnsupportedAnnotationError{Expression: v.Expression}
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedAnnotation, a)
	}
}
