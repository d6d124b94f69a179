package web

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"orgcal/internal/agenda"
	"orgcal/internal/ics"
	appLog "orgcal/internal/log"
	"orgcal/internal/model"
)

const dateLayout = "2006-01-02"

// agendaResponse is the JSON response shape for /api/agenda.
type agendaResponse struct {
	Entries      []entryDTO `json:"entries"`
	SkippedCount int        `json:"skipped_count"`
	Skipped      []skipDTO  `json:"skipped"`
	LoadedAt     time.Time  `json:"loaded_at"`
	RangeStart   *time.Time `json:"range_start"`
	RangeEnd     *time.Time `json:"range_end"`
}

type entryDTO struct {
	Time  time.Time `json:"time"`
	Label string    `json:"label"`
	Line  string    `json:"line"`
}

type skipDTO struct {
	Filename string `json:"filename"`
	Label    string `json:"label"`
	Slot     string `json:"slot"`
	Line     int    `json:"line"`
	Error    string `json:"error"`
}

// handleAgenda returns the agenda entries inside a requested window.
//
// GET /api/agenda?week=2024-03-04      the week containing that day
// GET /api/agenda?from=...&to=...      explicit bounds, date or RFC 3339
// GET /api/agenda?days=7               today plus the next days-1 days
// GET /api/agenda                      everything
//
// The skipped list always covers the whole snapshot.
func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	from, to, err := s.parseRange(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := s.lib.Snapshot()
	window := snap.Agenda.Window(from, to)

	resp := agendaResponse{
		Entries:      make([]entryDTO, 0, len(window)),
		SkippedCount: snap.Agenda.SkippedCount(),
		Skipped:      make([]skipDTO, 0, len(snap.Agenda.Skipped)),
		LoadedAt:     snap.LoadedAt,
	}
	if !from.IsZero() {
		resp.RangeStart = &from
	}
	if !to.IsZero() {
		resp.RangeEnd = &to
	}
	for _, occ := range window {
		resp.Entries = append(resp.Entries, entryDTO{Time: occ.Time, Label: occ.Label, Line: occ.String()})
	}
	for _, sk := range snap.Agenda.Skipped {
		resp.Skipped = append(resp.Skipped, skipDTO{
			Filename: sk.Filename,
			Label:    sk.Label,
			Slot:     sk.Slot.String(),
			Line:     sk.Line,
			Error:    sk.Err.Error(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) parseRange(q url.Values) (from, to time.Time, err error) {
	if week := q.Get("week"); week != "" {
		day, err := time.ParseInLocation(dateLayout, week, s.loc)
		if err != nil {
			return from, to, fmt.Errorf("invalid week %q: want YYYY-MM-DD", week)
		}
		wk := agenda.WeekOf(day, s.cfg.FirstWeekday())
		return wk.Start, wk.End, nil
	}

	if v := q.Get("from"); v != "" {
		if from, err = s.parseBound(v); err != nil {
			return from, to, fmt.Errorf("invalid from %q", v)
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = s.parseBound(v); err != nil {
			return from, to, fmt.Errorf("invalid to %q", v)
		}
	}
	if !from.IsZero() || !to.IsZero() {
		if !from.IsZero() && !to.IsZero() && to.Before(from) {
			return from, to, fmt.Errorf("to is before from")
		}
		return from, to, nil
	}

	if days := parseIntDefault(q.Get("days"), 0); days > 0 {
		now := s.now().In(s.loc)
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
		return from, from.AddDate(0, 0, days), nil
	}

	return time.Time{}, time.Time{}, nil
}

func (s *Server) parseBound(v string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, v, s.loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

type pageEntry struct {
	Time  string
	Label string
}

type pageDay struct {
	Title   string
	Today   bool
	Entries []pageEntry
}

type pageData struct {
	Title     string
	Week      string
	Prev      string
	Next      string
	Days      []pageDay
	Documents int
	Entries   int
	Skipped   int
	LoadedAt  time.Time
}

// handleAgendaPage renders one week as a static HTML page. The root element
// carries data-ready="true" for the screenshot capture.
func (s *Server) handleAgendaPage(w http.ResponseWriter, r *http.Request) {
	now := s.now().In(s.loc)
	day := now
	if v := r.URL.Query().Get("week"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, s.loc)
		if err != nil {
			http.Error(w, "invalid week", http.StatusBadRequest)
			return
		}
		day = t
	}

	snap := s.lib.Snapshot()
	wk := agenda.WeekOf(day, s.cfg.FirstWeekday())
	data := pageData{
		Title:     s.cfg.CalendarName,
		Week:      wk.String(),
		Prev:      wk.Prev().Start.Format(dateLayout),
		Next:      wk.Next().Start.Format(dateLayout),
		Days:      groupByDay(wk, wk.Entries(snap.Agenda), now),
		Documents: len(snap.Documents),
		Entries:   len(snap.Agenda.Entries),
		Skipped:   snap.Agenda.SkippedCount(),
		LoadedAt:  snap.LoadedAt,
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "agenda.html", data); err != nil {
		appLog.Error("agenda page render failed", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func groupByDay(wk agenda.Week, entries []model.Occurrence, now time.Time) []pageDay {
	days := make([]pageDay, 7)
	for i := range days {
		d := wk.Start.AddDate(0, 0, i)
		days[i] = pageDay{
			Title: d.Format("Monday, Jan 02"),
			Today: d.Year() == now.Year() && d.YearDay() == now.YearDay(),
		}
	}
	for _, e := range entries {
		t := e.Time.In(wk.Start.Location())
		i := int(t.Sub(wk.Start).Hours() / 24)
		// DST transitions make a day 23 or 25 hours long.
		for i > 0 && t.Before(wk.Start.AddDate(0, 0, i)) {
			i--
		}
		for i < 6 && !t.Before(wk.Start.AddDate(0, 0, i+1)) {
			i++
		}
		days[i].Entries = append(days[i].Entries, pageEntry{Time: t.Format("15:04"), Label: e.Label})
	}
	return days
}

// handleICS serves the whole snapshot as an iCalendar feed.
func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	snap := s.lib.Snapshot()
	cal, skipped := ics.Export(snap.Documents, ics.ExportOptions{
		Name:  s.cfg.CalendarName,
		Stamp: snap.LoadedAt,
	})

	var buf bytes.Buffer
	if err := ics.Write(&buf, cal); err != nil {
		appLog.Error("ics export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": s.cfg.CalendarName + ".ics"}))
	w.Header().Set("X-Orgcal-Skipped", strconv.Itoa(skipped))
	_, _ = w.Write(buf.Bytes())
}
