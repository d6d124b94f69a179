package ics

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"orgcal/internal/model"
)

const productID = "orgcal"

// ExportOptions controls calendar metadata.
type ExportOptions struct {
	// Name is written as NAME and X-WR-CALNAME.
	Name string
	// Stamp is the DTSTAMP of every event. Callers pass the load time of the
	// documents so the same input always serializes to the same bytes.
	Stamp time.Time
}

// Export builds a calendar with one VEVENT per active planning timestamp in
// docs.
//
// Documents are visited in order, headlines in order and slots in the fixed
// Scheduled, Deadline, Closed order. Inactive timestamps are never exported.
// Diary expressions cannot be represented and are skipped; their number is
// returned alongside the calendar.
func Export(docs []model.Document, opts ExportOptions) (*ical.Calendar, int) {
	cal := ical.NewCalendarFor(productID)
	cal.SetMethod(ical.MethodPublish)
	if opts.Name != "" {
		cal.SetName(opts.Name)
		cal.SetXWRCalName(opts.Name)
	}

	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Unix(0, 0)
	}

	skipped := 0
	for _, doc := range docs {
		for _, h := range doc.Headlines {
			for _, slot := range model.Slots {
				a := h.Planning.Get(slot)
				if a == nil {
					continue
				}

				var start, end model.Point
				switch a := a.(type) {
				case model.Single:
					start = a.At
				case model.Range:
					start, end = a.Start, a.End
				case model.FreeForm:
					skipped++
					continue
				default:
					continue
				}

				ev := cal.AddEvent(UID(doc.Filename, h.Line, slot))
				ev.SetDtStampTime(stamp)
				ev.SetSummary(h.Label)
				ev.SetDescription(fmt.Sprintf("%s:%d", doc.Filename, h.Line))
				ev.AddCategory(slot.Keyword())
				for _, tag := range h.Tags {
					ev.AddCategory(tag)
				}
				setTimes(ev, start, end)

				if rule, ok := RRule(start); ok {
					ev.AddRrule(rule)
				}
				if start.Warning != nil {
					alarm := ev.AddAlarm()
					alarm.SetAction(ical.ActionDisplay)
					alarm.SetTrigger(Trigger(*start.Warning))
					alarm.SetDescription(h.Label)
				}
			}
		}
	}

	return cal, skipped
}

// Write serializes cal to w.
func Write(w io.Writer, cal *ical.Calendar) error {
	return cal.SerializeTo(w)
}

// UID returns the stable event identifier of one planning slot.
func UID(filename string, line int, slot model.Slot) string {
	sum := sha256.Sum256([]byte(filename + "\x00" + strconv.Itoa(line) + "\x00" + slot.String()))
	return hex.EncodeToString(sum[:12]) + "@" + productID
}

func setTimes(ev *ical.VEvent, start, end model.Point) {
	timed := start.HasTime || end.HasTime

	switch {
	case end.Time.IsZero() && timed:
		ev.SetStartAt(start.Time)
	case end.Time.IsZero():
		ev.SetAllDayStartAt(start.Time)
	case timed:
		ev.SetStartAt(start.Time)
		ev.SetEndAt(end.Time)
	default:
		// DTEND of an all-day event is exclusive.
		ev.SetAllDayStartAt(start.Time)
		ev.SetAllDayEndAt(end.Time.AddDate(0, 0, 1))
	}
}

// RRule converts the repeater of p into an RRULE value, e.g. "FREQ=WEEKLY;INTERVAL=2".
// All three Org repeater kinds map to the same rule; the distinction only
// matters when a task is marked done.
func RRule(p model.Point) (string, bool) {
	if p.Repeater == nil || p.Repeater.Value <= 0 {
		return "", false
	}

	var freq rrule.Frequency
	switch p.Repeater.Unit {
	case model.UnitHour:
		freq = rrule.HOURLY
	case model.UnitDay:
		freq = rrule.DAILY
	case model.UnitWeek:
		freq = rrule.WEEKLY
	case model.UnitMonth:
		freq = rrule.MONTHLY
	case model.UnitYear:
		freq = rrule.YEARLY
	default:
		return "", false
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:     freq,
		Interval: p.Repeater.Value,
		Dtstart:  p.Time,
	})
	if err != nil {
		return "", false
	}
	return r.OrigOptions.RRuleString(), true
}

// Trigger converts an Org warning period into a negative VALARM duration.
// Months and years have no exact duration and are approximated as 30 and
// 365 days.
func Trigger(w model.Warning) string {
	switch w.Unit {
	case model.UnitHour:
		return fmt.Sprintf("-PT%dH", w.Value)
	case model.UnitWeek:
		return fmt.Sprintf("-P%dW", w.Value)
	case model.UnitMonth:
		return fmt.Sprintf("-P%dD", w.Value*30)
	case model.UnitYear:
		return fmt.Sprintf("-P%dD", w.Value*365)
	default:
		return fmt.Sprintf("-P%dD", w.Value)
	}
}
