package model

import (
	"fmt"
	"time"
)

// Unit is the time unit of a repeater or warning interval.
type Unit byte

const (
	UnitHour  Unit = 'h'
	UnitDay   Unit = 'd'
	UnitWeek  Unit = 'w'
	UnitMonth Unit = 'm'
	UnitYear  Unit = 'y'
)

// Valid reports whether u is one of the Org interval units.
func (u Unit) Valid() bool {
	switch u {
	case UnitHour, UnitDay, UnitWeek, UnitMonth, UnitYear:
		return true
	}
	return false
}

// RepeatMark distinguishes the three Org repeater kinds.
type RepeatMark string

const (
	RepeatCumulative RepeatMark = "+"
	RepeatCatchUp    RepeatMark = "++"
	RepeatRestart    RepeatMark = ".+"
)

// WarnMark distinguishes warning periods that apply to every repetition
// ("-") from those that only apply to the first one ("--").
type WarnMark string

const (
	WarnAll   WarnMark = "-"
	WarnFirst WarnMark = "--"
)

// Repeater is the "+1w" style cookie of a timestamp.
type Repeater struct {
	Mark  RepeatMark
	Value int
	Unit  Unit
}

func (r Repeater) String() string {
	return fmt.Sprintf("%s%d%c", r.Mark, r.Value, r.Unit)
}

// Warning is the "-3d" style lead time of a timestamp.
type Warning struct {
	Mark  WarnMark
	Value int
	Unit  Unit
}

func (w Warning) String() string {
	return fmt.Sprintf("%s%d%c", w.Mark, w.Value, w.Unit)
}

// Point is a single instant of an Org timestamp.
//
// Time carries the wall-clock value in the location the document was parsed
// in. Date-only timestamps resolve to midnight and have HasTime == false.
// Repeater and Warning are preserved for consumers such as the calendar
// export; the agenda only ever uses Time.
type Point struct {
	Time     time.Time
	HasTime  bool
	Repeater *Repeater
	Warning  *Warning
}

// Annotation is one of the five timestamp shapes a planning keyword can
// carry: Single, SinglePassive, Range, RangePassive or FreeForm.
type Annotation interface {
	annotation()
}

// Single is an active timestamp, e.g. <2024-03-01 Fri 09:00>.
type Single struct {
	At Point
}

// SinglePassive is an inactive timestamp, e.g. [2024-03-01 Fri 09:00].
type SinglePassive struct {
	At Point
}

// Range is an active interval, either <a>--<b> or a same-day time span.
type Range struct {
	Start Point
	End   Point
}

// RangePassive is an inactive interval.
type RangePassive struct {
	Start Point
	End   Point
}

// FreeForm is a diary sexp such as <%%(diary-float t 4 2)>. Expression is the
// text inside the angle brackets, "%%(diary-float t 4 2)".
type FreeForm struct {
	Expression string
}

func (Single) annotation()        {}
func (SinglePassive) annotation() {}
func (Range) annotation()         {}
func (RangePassive) annotation()  {}
func (FreeForm) annotation()      {}

// Active reports whether a is meant to surface on an agenda.
func Active(a Annotation) bool {
	switch a.(type) {
	case Single, Range:
		return true
	default:
		return false
	}
}
