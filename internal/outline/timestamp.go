package outline

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"orgcal/internal/model"
)

const tsBody = `(\d{4})-(\d{2})-(\d{2})` + // date
	`(?:\s+\p{L}[\p{L}.]*)?` + // optional day name
	`(?:\s+(\d{1,2}):(\d{2})(?:-(\d{1,2}):(\d{2}))?)?` + // optional time or time span
	`((?:\s+(?:\+\+|\.\+|\+|--|-)\d+[hdwmy](?:/\d+[hdwmy])?)*)` + // repeaters and warnings
	`\s*`

var (
	activeRe   = regexp.MustCompile(`^<` + tsBody + `>`)
	inactiveRe = regexp.MustCompile(`^\[` + tsBody + `\]`)
	diaryRe    = regexp.MustCompile(`^<(%%\(.*?\))>`)
	modRe      = regexp.MustCompile(`(\+\+|\.\+|\+|--|-)(\d+)([hdwmy])`)
)

// stamp is one bracketed timestamp before it is combined into an annotation.
type stamp struct {
	active bool
	start  model.Point
	// end is set for same-day spans such as <2024-03-01 Fri 09:00-10:30>.
	end *model.Point
}

// parseTimestamp parses the Org timestamp at the start of s. It returns the
// annotation and the number of bytes consumed, or ok == false if s does not
// start with a valid timestamp.
func parseTimestamp(s string, loc *time.Location) (a model.Annotation, n int, ok bool) {
	if m := diaryRe.FindStringSubmatch(s); m != nil {
		return model.FreeForm{Expression: m[1]}, len(m[0]), true
	}

	first, n, ok := parseStamp(s, loc)
	if !ok {
		return nil, 0, false
	}

	// <a>--<b>
	if rest := s[n:]; strings.HasPrefix(rest, "--") {
		if second, m, ok := parseStamp(rest[2:], loc); ok && second.active == first.active {
			return annotation(first.active, first.start, &second.start), n + 2 + m, true
		}
	}

	return annotation(first.active, first.start, first.end), n, true
}

func annotation(active bool, start model.Point, end *model.Point) model.Annotation {
	switch {
	case end == nil && active:
		return model.Single{At: start}
	case end == nil:
		return model.SinglePassive{At: start}
	case active:
		return model.Range{Start: start, End: *end}
	default:
		return model.RangePassive{Start: start, End: *end}
	}
}

func parseStamp(s string, loc *time.Location) (stamp, int, bool) {
	var (
		st stamp
		m  []string
	)
	switch {
	case strings.HasPrefix(s, "<"):
		m = activeRe.FindStringSubmatch(s)
		st.active = true
	case strings.HasPrefix(s, "["):
		m = inactiveRe.FindStringSubmatch(s)
	}
	if m == nil {
		return stamp{}, 0, false
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	start, ok := point(year, month, day, m[4], m[5], loc)
	if !ok {
		return stamp{}, 0, false
	}

	if m[6] != "" {
		end, ok := point(year, month, day, m[6], m[7], loc)
		if !ok || end.Time.Before(start.Time) {
			return stamp{}, 0, false
		}
		st.end = &end
	}

	repeater, warning := parseModifiers(m[8])
	start.Repeater, start.Warning = repeater, warning
	if st.end != nil {
		st.end.Repeater, st.end.Warning = repeater, warning
	}
	st.start = start

	return st, len(m[0]), true
}

func point(year, month, day int, hh, mm string, loc *time.Location) (model.Point, bool) {
	var (
		hour, minute int
		hasTime      = hh != ""
	)
	if hasTime {
		hour, _ = strconv.Atoi(hh)
		minute, _ = strconv.Atoi(mm)
		if hour > 23 || minute > 59 {
			return model.Point{}, false
		}
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	// time.Date normalizes out-of-range dates; reject them instead.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return model.Point{}, false
	}

	return model.Point{Time: t, HasTime: hasTime}, true
}

func parseModifiers(s string) (*model.Repeater, *model.Warning) {
	var (
		repeater *model.Repeater
		warning  *model.Warning
	)
	for _, m := range modRe.FindAllStringSubmatch(s, -1) {
		value, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		unit := model.Unit(m[3][0])
		switch m[1] {
		case "+", "++", ".+":
			if repeater == nil {
				repeater = &model.Repeater{Mark: model.RepeatMark(m[1]), Value: value, Unit: unit}
			}
		case "-", "--":
			if warning == nil {
				warning = &model.Warning{Mark: model.WarnMark(m[1]), Value: value, Unit: unit}
			}
		}
	}
	return repeater, warning
}
