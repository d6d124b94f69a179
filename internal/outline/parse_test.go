package outline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgcal/internal/model"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func newTestParser() *Parser {
	return NewParser(Options{Location: time.UTC})
}

const sample = `#+TITLE: Sample
Some preamble.

* TODO [#A] Dentist                                              :health:
  SCHEDULED: <2024-03-01 Fri 09:00>
  Bring the forms.
* Conference
SCHEDULED: <2024-03-05 Tue>--<2024-03-07 Thu>
** DONE Book hotel
   CLOSED: [2024-02-10 Sat 18:22] SCHEDULED: <2024-02-09 Fri>
** Notes without planning
* Weekly review
  DEADLINE: <2024-03-08 Fri 17:00 +1w -2d>
* Standup
  SCHEDULED: <2024-03-04 Mon 09:30-09:45>
* Birthday
  SCHEDULED: <%%(diary-anniversary 4 12 1990)>
* Timesheet
  DEADLINE: [2024-03-01 Fri]--[2024-03-02 Sat]
`

func TestParse_Sample(t *testing.T) {
	doc, err := newTestParser().Parse("sample.org", sample)
	require.NoError(t, err)

	assert.Equal(t, "sample.org", doc.Filename)
	assert.Equal(t, sample, doc.RawText)
	require.Len(t, doc.Headlines, 8)

	dentist := doc.Headlines[0]
	assert.Equal(t, 1, dentist.Level)
	assert.Equal(t, "TODO", dentist.Keyword)
	assert.Equal(t, "A", dentist.Priority)
	assert.Equal(t, "Dentist", dentist.Label)
	assert.Equal(t, []string{"health"}, dentist.Tags)
	assert.Equal(t, 4, dentist.Line)
	assert.Equal(t, model.Single{At: model.Point{Time: date(2024, 3, 1, 9, 0), HasTime: true}}, dentist.Planning.Scheduled)
	assert.Nil(t, dentist.Planning.Deadline)

	conf := doc.Headlines[1]
	assert.Equal(t, "Conference", conf.Label)
	assert.Equal(t, model.Range{
		Start: model.Point{Time: date(2024, 3, 5, 0, 0)},
		End:   model.Point{Time: date(2024, 3, 7, 0, 0)},
	}, conf.Planning.Scheduled)

	hotel := doc.Headlines[2]
	assert.Equal(t, 2, hotel.Level)
	assert.Equal(t, "DONE", hotel.Keyword)
	assert.Equal(t, "Book hotel", hotel.Label)
	assert.Equal(t, model.SinglePassive{At: model.Point{Time: date(2024, 2, 10, 18, 22), HasTime: true}}, hotel.Planning.Closed)
	assert.Equal(t, model.Single{At: model.Point{Time: date(2024, 2, 9, 0, 0)}}, hotel.Planning.Scheduled)

	notes := doc.Headlines[3]
	assert.Equal(t, "Notes without planning", notes.Label)
	assert.Nil(t, notes.Planning)

	review := doc.Headlines[4]
	assert.Equal(t, model.Single{At: model.Point{
		Time:     date(2024, 3, 8, 17, 0),
		HasTime:  true,
		Repeater: &model.Repeater{Mark: model.RepeatCumulative, Value: 1, Unit: model.UnitWeek},
		Warning:  &model.Warning{Mark: model.WarnAll, Value: 2, Unit: model.UnitDay},
	}}, review.Planning.Deadline)

	standup := doc.Headlines[5]
	assert.Equal(t, model.Range{
		Start: model.Point{Time: date(2024, 3, 4, 9, 30), HasTime: true},
		End:   model.Point{Time: date(2024, 3, 4, 9, 45), HasTime: true},
	}, standup.Planning.Scheduled)

	birthday := doc.Headlines[6]
	assert.Equal(t, model.FreeForm{Expression: "%%(diary-anniversary 4 12 1990)"}, birthday.Planning.Scheduled)

	timesheet := doc.Headlines[7]
	assert.Equal(t, model.RangePassive{
		Start: model.Point{Time: date(2024, 3, 1, 0, 0)},
		End:   model.Point{Time: date(2024, 3, 2, 0, 0)},
	}, timesheet.Planning.Deadline)
}

func TestParseTimestamp_Modifiers(t *testing.T) {
	tests := []struct {
		in       string
		repeater *model.Repeater
		warning  *model.Warning
	}{
		{"<2024-01-01 Mon ++1m>", &model.Repeater{Mark: model.RepeatCatchUp, Value: 1, Unit: model.UnitMonth}, nil},
		{"<2024-01-01 Mon .+2d>", &model.Repeater{Mark: model.RepeatRestart, Value: 2, Unit: model.UnitDay}, nil},
		{"<2024-01-01 Mon --3d>", nil, &model.Warning{Mark: model.WarnFirst, Value: 3, Unit: model.UnitDay}},
		{"<2024-01-01 Mon 10:00 .+1d/3d>", &model.Repeater{Mark: model.RepeatRestart, Value: 1, Unit: model.UnitDay}, nil},
		{"<2024-01-01 Mon 10:00 +1y -1h>", &model.Repeater{Mark: model.RepeatCumulative, Value: 1, Unit: model.UnitYear}, &model.Warning{Mark: model.WarnAll, Value: 1, Unit: model.UnitHour}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, n, ok := parseTimestamp(tt.in, time.UTC)
			require.True(t, ok)
			assert.Equal(t, len(tt.in), n)

			single, isSingle := a.(model.Single)
			require.True(t, isSingle)
			assert.Equal(t, tt.repeater, single.At.Repeater)
			assert.Equal(t, tt.warning, single.At.Warning)
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, in := range []string{
		"<2024-02-30 Fri>",
		"<2024-13-01>",
		"<2024-01-01 Mon 25:00>",
		"<2024-03-03 Sun 10:00-09:00>",
		"[2024-03-03 Sun 10:00-09:00]",
		"<2024-01-01 Mon]",
		"2024-01-01",
		"<tomorrow>",
	} {
		_, _, ok := parseTimestamp(in, time.UTC)
		assert.False(t, ok, in)
	}
}

func TestParseTimestamp_MixedRangeIsNotARange(t *testing.T) {
	a, n, ok := parseTimestamp("<2024-03-05 Tue>--[2024-03-07 Thu]", time.UTC)
	require.True(t, ok)
	assert.Equal(t, len("<2024-03-05 Tue>"), n)
	assert.IsType(t, model.Single{}, a)
}

func TestParseTimestamp_Location(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)

	a, _, ok := parseTimestamp("<2024-03-01 Fri 09:00>", seoul)
	require.True(t, ok)

	got := a.(model.Single).At.Time
	assert.Equal(t, seoul, got.Location())
	assert.True(t, got.Equal(date(2024, 3, 1, 0, 0)))
}

func TestParse_PlanningMustFollowHeadline(t *testing.T) {
	raw := "* Task\n\n  SCHEDULED: <2024-03-01 Fri>\n"

	doc, err := newTestParser().Parse("a.org", raw)
	require.NoError(t, err)
	require.Len(t, doc.Headlines, 1)
	assert.Nil(t, doc.Headlines[0].Planning)
}

func TestParse_BadTimestampIgnored(t *testing.T) {
	raw := "* Task\n  SCHEDULED: <soon> DEADLINE: <2024-03-01 Fri>\n"

	doc, err := newTestParser().Parse("a.org", raw)
	require.NoError(t, err)
	require.Len(t, doc.Headlines, 1)

	p := doc.Headlines[0].Planning
	require.NotNil(t, p)
	assert.Nil(t, p.Scheduled)
	assert.Equal(t, model.Single{At: model.Point{Time: date(2024, 3, 1, 0, 0)}}, p.Deadline)
}

func TestParse_DocumentTodoKeywords(t *testing.T) {
	raw := "#+TODO: NEXT(n) WAIT(w) | CANCELLED(c)\n* NEXT Call bank\n* CANCELLED Trip\n* TODO Plain\n"

	doc, err := newTestParser().Parse("a.org", raw)
	require.NoError(t, err)
	require.Len(t, doc.Headlines, 3)

	assert.Equal(t, "NEXT", doc.Headlines[0].Keyword)
	assert.Equal(t, "Call bank", doc.Headlines[0].Label)
	assert.Equal(t, "CANCELLED", doc.Headlines[1].Keyword)
	assert.Equal(t, "TODO", doc.Headlines[2].Keyword)

	// Keywords declared in one document do not leak into the next.
	other, err := newTestParser().Parse("b.org", "* NEXT thing\n")
	require.NoError(t, err)
	assert.Equal(t, "NEXT thing", other.Headlines[0].Label)
}

func TestParse_TitleEdgeCases(t *testing.T) {
	raw := "* TODOs to think about\n* :tagsonly:\n*not a headline*\n* \n** CRLF title\r\n"

	doc, err := newTestParser().Parse("a.org", raw)
	require.NoError(t, err)
	require.Len(t, doc.Headlines, 4)

	assert.Equal(t, "", doc.Headlines[0].Keyword)
	assert.Equal(t, "TODOs to think about", doc.Headlines[0].Label)
	assert.Equal(t, []string{"tagsonly"}, doc.Headlines[1].Tags)
	assert.Equal(t, "", doc.Headlines[1].Label)
	assert.Equal(t, "", doc.Headlines[2].Label)
	assert.Equal(t, "CRLF title", doc.Headlines[3].Label)
}

func TestParse_BinaryIsParseError(t *testing.T) {
	doc, err := newTestParser().Parse("image.png", "\x89PNG\r\n\x1a\n\x00\x00")

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "image.png", perr.Filename)
	assert.Empty(t, doc.Headlines)
	assert.Equal(t, "image.png", doc.Filename)
}

func TestRenderHTML(t *testing.T) {
	doc, err := newTestParser().Parse("a.org", "* Heading\nSome *bold* text.\n")
	require.NoError(t, err)

	html, err := RenderHTML(doc)
	require.NoError(t, err)
	assert.Contains(t, html, "Heading")
	assert.Contains(t, html, "<strong>bold</strong>")
}
