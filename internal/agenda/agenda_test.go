package agenda

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgcal/internal/model"
)

func at(s string) model.Point {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return model.Point{Time: t, HasTime: true}
}

func occ(s, label string) model.Occurrence {
	return model.Occurrence{Time: at(s).Time, Label: label}
}

func headline(label string, line int, p *model.Planning) model.Headline {
	return model.Headline{Level: 1, Label: label, Line: line, Planning: p}
}

func doc(name string, hs ...model.Headline) model.Document {
	return model.Document{Filename: name, Headlines: hs}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		in   model.Annotation
		want []model.Occurrence
	}{
		{
			name: "single",
			in:   model.Single{At: at("2024-03-01 09:00")},
			want: []model.Occurrence{occ("2024-03-01 09:00", "x")},
		},
		{
			name: "single passive",
			in:   model.SinglePassive{At: at("2024-03-01 09:00")},
		},
		{
			name: "range",
			in:   model.Range{Start: at("2024-03-05 00:00"), End: at("2024-03-07 00:00")},
			want: []model.Occurrence{occ("2024-03-05 00:00", "x"), occ("2024-03-07 00:00", "x")},
		},
		{
			name: "range passive",
			in:   model.RangePassive{Start: at("2024-03-05 00:00"), End: at("2024-03-07 00:00")},
		},
		{
			name: "repeater is not expanded",
			in: model.Single{At: model.Point{
				Time:     at("2024-03-01 09:00").Time,
				Repeater: &model.Repeater{Mark: model.RepeatCumulative, Value: 1, Unit: model.UnitWeek},
			}},
			want: []model.Occurrence{occ("2024-03-01 09:00", "x")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.in, "x")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_FreeForm(t *testing.T) {
	got, err := Resolve(model.FreeForm{Expression: "%%(diary-float t 4 2)"}, "x")

	assert.Nil(t, got)
	require.ErrorIs(t, err, ErrUnsupportedAnnotation)

	var uerr *UnsupportedAnnotationError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "%%(diary-float t 4 2)", uerr.Expression)
}

func TestResolve_FreshSlicePerCall(t *testing.T) {
	a := model.Single{At: at("2024-03-01 09:00")}

	first, err := Resolve(a, "x")
	require.NoError(t, err)
	first[0].Label = "mutated"

	second, err := Resolve(a, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", second[0].Label)
}

func TestScan_SlotOrderAndSubsets(t *testing.T) {
	d := doc("a.org",
		headline("none", 1, nil),
		headline("all", 3, &model.Planning{
			Closed:    model.Single{At: at("2024-01-03 00:00")},
			Deadline:  model.Single{At: at("2024-01-02 00:00")},
			Scheduled: model.Single{At: at("2024-01-01 00:00")},
		}),
		headline("deadline only", 6, &model.Planning{
			Deadline: model.Single{At: at("2024-01-09 00:00")},
		}),
	)

	var got []model.Occurrence
	for o, err := range Scan(d) {
		require.NoError(t, err)
		got = append(got, o)
	}

	assert.Equal(t, []model.Occurrence{
		occ("2024-01-01 00:00", "all"),
		occ("2024-01-02 00:00", "all"),
		occ("2024-01-03 00:00", "all"),
		occ("2024-01-09 00:00", "deadline only"),
	}, got)
}

func TestScan_PropagatesUnsupported(t *testing.T) {
	d := doc("b.org",
		headline("diary", 4, &model.Planning{
			Scheduled: model.FreeForm{Expression: "%%(diary-anniversary 1 1 2000)"},
			Deadline:  model.Single{At: at("2024-01-02 00:00")},
		}),
	)

	var (
		got  []model.Occurrence
		errs []error
	)
	for o, err := range Scan(d) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		got = append(got, o)
	}

	require.Len(t, errs, 1)
	var aerr *AnnotationError
	require.ErrorAs(t, errs[0], &aerr)
	assert.Equal(t, "b.org", aerr.Filename)
	assert.Equal(t, "diary", aerr.Label)
	assert.Equal(t, 4, aerr.Line)
	assert.Equal(t, model.SlotScheduled, aerr.Slot)
	assert.ErrorIs(t, errs[0], ErrUnsupportedAnnotation)

	assert.Equal(t, []model.Occurrence{occ("2024-01-02 00:00", "diary")}, got)
}

func TestScan_StopsWhenConsumerBreaks(t *testing.T) {
	d := doc("c.org",
		headline("one", 1, &model.Planning{Scheduled: model.Single{At: at("2024-01-01 00:00")}}),
		headline("two", 2, &model.Planning{Scheduled: model.Single{At: at("2024-01-02 00:00")}}),
	)

	n := 0
	for range Scan(d) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestBuild_EndToEnd(t *testing.T) {
	a := doc("a.org", headline("Dentist", 1, &model.Planning{
		Scheduled: model.Single{At: at("2024-03-01 09:00")},
	}))
	b := doc("b.org", headline("Conference", 1, &model.Planning{
		Scheduled: model.Range{Start: at("2024-03-05 00:00"), End: at("2024-03-07 00:00")},
	}))

	got := Build([]model.Document{a, b})

	assert.Equal(t, []model.Occurrence{
		occ("2024-03-01 09:00", "Dentist"),
		occ("2024-03-05 00:00", "Conference"),
		occ("2024-03-07 00:00", "Conference"),
	}, got.Entries)
	assert.Equal(t, 0, got.SkippedCount())
	assert.Equal(t, []string{
		"[2024-03-01 09:00] Dentist",
		"[2024-03-05 00:00] Conference",
		"[2024-03-07 00:00] Conference",
	}, got.Lines())
}

func TestBuild_Ordering(t *testing.T) {
	d := doc("a.org",
		headline("b", 1, &model.Planning{Scheduled: model.Single{At: at("2024-01-02 10:00")}}),
		headline("c", 2, &model.Planning{Scheduled: model.Single{At: at("2024-01-01 10:00")}}),
		headline("a", 3, &model.Planning{Scheduled: model.Single{At: at("2024-01-02 10:00")}}),
		headline("a", 4, &model.Planning{Deadline: model.Single{At: at("2024-01-02 09:59")}}),
	)

	got := Build([]model.Document{d}).Entries

	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.Negative(t, model.CompareOccurrences(got[i-1], got[i]), "entries %d and %d out of order", i-1, i)
	}
	assert.Equal(t, "a", got[2].Label)
	assert.Equal(t, "b", got[3].Label)
}

func TestBuild_Dedup(t *testing.T) {
	same := at("2024-05-01 12:00")
	d1 := doc("a.org", headline("Pay rent", 1, &model.Planning{
		Deadline: model.Single{At: same},
		Closed:   model.Single{At: same},
	}))
	d2 := doc("b.org", headline("Pay rent", 7, &model.Planning{
		Scheduled: model.Single{At: same},
	}))

	got := Build([]model.Document{d1, d2})

	assert.Equal(t, []model.Occurrence{{Time: same.Time, Label: "Pay rent"}}, got.Entries)
}

func TestBuild_DedupAcrossLocations(t *testing.T) {
	utc := at("2024-05-01 12:00")
	other := model.Point{Time: utc.Time.In(time.FixedZone("UTC+2", 2*60*60))}

	got := Build([]model.Document{
		doc("a.org", headline("call", 1, &model.Planning{Scheduled: model.Single{At: utc}})),
		doc("b.org", headline("call", 1, &model.Planning{Scheduled: model.Single{At: other}})),
	})

	assert.Len(t, got.Entries, 1)
}

func TestBuild_PassiveExcluded(t *testing.T) {
	d := doc("a.org",
		headline("logged", 1, &model.Planning{Closed: model.SinglePassive{At: at("2024-01-01 00:00")}}),
		headline("logged range", 2, &model.Planning{
			Scheduled: model.RangePassive{Start: at("2024-01-01 00:00"), End: at("2024-01-02 00:00")},
		}),
	)

	got := Build([]model.Document{d})

	assert.Empty(t, got.Entries)
	assert.Zero(t, got.SkippedCount())
}

func TestBuild_PartialFailureIsolation(t *testing.T) {
	d1 := doc("one.org",
		headline("alpha", 1, &model.Planning{Scheduled: model.Single{At: at("2024-02-01 08:00")}}),
	)
	d2 := doc("two.org",
		headline("beta", 1, &model.Planning{Scheduled: model.Single{At: at("2024-02-02 08:00")}}),
		headline("diary", 3, &model.Planning{
			Scheduled: model.FreeForm{Expression: "%%(diary-float t 4 2)"},
			Deadline:  model.Single{At: at("2024-02-03 08:00")},
		}),
		headline("gamma", 6, &model.Planning{
			Scheduled: model.Range{Start: at("2024-02-04 08:00"), End: at("2024-02-05 08:00")},
		}),
	)
	d3 := doc("three.org",
		headline("delta", 1, &model.Planning{Deadline: model.Single{At: at("2024-02-06 08:00")}}),
	)

	got := Build([]model.Document{d1, d2, d3})

	assert.Equal(t, []model.Occurrence{
		occ("2024-02-01 08:00", "alpha"),
		occ("2024-02-02 08:00", "beta"),
		occ("2024-02-03 08:00", "diary"),
		occ("2024-02-04 08:00", "gamma"),
		occ("2024-02-05 08:00", "gamma"),
		occ("2024-02-06 08:00", "delta"),
	}, got.Entries)

	require.Equal(t, 1, got.SkippedCount())
	skip := got.Skipped[0]
	assert.Equal(t, "two.org", skip.Filename)
	assert.Equal(t, "diary", skip.Label)
	assert.Equal(t, 3, skip.Line)
	assert.Equal(t, model.SlotScheduled, skip.Slot)
	assert.True(t, errors.Is(skip.Err, ErrUnsupportedAnnotation))
}

func TestBuild_Deterministic(t *testing.T) {
	var docs []model.Document
	for _, name := range []string{"z.org", "a.org", "m.org"} {
		docs = append(docs, doc(name,
			headline("same", 1, &model.Planning{Scheduled: model.Single{At: at("2024-01-01 00:00")}}),
			headline(name, 2, &model.Planning{Deadline: model.Single{At: at("2024-01-01 00:00")}}),
			headline("tail", 3, &model.Planning{Closed: model.Single{At: at("2023-12-31 23:00")}}),
		))
	}

	first := Build(docs)
	second := Build(docs)

	assert.Equal(t, first.Lines(), second.Lines())
	assert.Equal(t, []string{
		"[2023-12-31 23:00] tail",
		"[2024-01-01 00:00] a.org",
		"[2024-01-01 00:00] m.org",
		"[2024-01-01 00:00] same",
		"[2024-01-01 00:00] z.org",
	}, first.Lines())
}

func TestBuild_Empty(t *testing.T) {
	got := Build(nil)

	assert.Empty(t, got.Entries)
	assert.Zero(t, got.SkippedCount())
}

func TestAgenda_Window(t *testing.T) {
	a := Build([]model.Document{doc("a.org",
		headline("before", 1, &model.Planning{Scheduled: model.Single{At: at("2024-03-03 23:59")}}),
		headline("start", 2, &model.Planning{Scheduled: model.Single{At: at("2024-03-04 00:00")}}),
		headline("inside", 3, &model.Planning{Scheduled: model.Single{At: at("2024-03-06 12:00")}}),
		headline("end", 4, &model.Planning{Scheduled: model.Single{At: at("2024-03-11 00:00")}}),
	)})

	got := a.Window(at("2024-03-04 00:00").Time, at("2024-03-11 00:00").Time)
	assert.Equal(t, []model.Occurrence{
		occ("2024-03-04 00:00", "start"),
		occ("2024-03-06 12:00", "inside"),
	}, got)

	assert.Len(t, a.Window(time.Time{}, time.Time{}), 4)
	assert.Len(t, a.Window(at("2024-03-06 00:00").Time, time.Time{}), 2)
	assert.Empty(t, a.Window(at("2024-03-11 00:00").Time, at("2024-03-04 00:00").Time))
}

func TestWeekOf(t *testing.T) {
	wed := at("2024-03-06 15:30").Time

	mon := WeekOf(wed, time.Monday)
	assert.Equal(t, at("2024-03-04 00:00").Time, mon.Start)
	assert.Equal(t, at("2024-03-11 00:00").Time, mon.End)
	assert.Equal(t, "2024-W10 (Mar 04 - Mar 10)", mon.String())

	sun := WeekOf(wed, time.Sunday)
	assert.Equal(t, at("2024-03-03 00:00").Time, sun.Start)

	assert.Equal(t, at("2024-03-11 00:00").Time, mon.Next().Start)
	assert.Equal(t, at("2024-02-26 00:00").Time, mon.Prev().Start)

	startOfWeek := WeekOf(at("2024-03-04 00:00").Time, time.Monday)
	assert.Equal(t, mon, startOfWeek)
}
