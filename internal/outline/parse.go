package outline

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"orgcal/internal/model"
)

// ParseError reports text that cannot be treated as an outline document at
// all, typically a binary file in the document directory.
type ParseError struct {
	Filename string
	Line     int
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s:%d: %s", e.Filename, e.Line, e.Reason)
}

// Options configures a Parser.
type Options struct {
	// Location is the zone timestamps are interpreted in. Defaults to time.Local.
	Location *time.Location
	// TodoKeywords are stripped from the front of headline titles. Documents
	// may add their own with #+TODO: lines.
	TodoKeywords []string
}

// Parser turns raw Org text into a model.Document. A Parser holds no state
// between calls and is safe for concurrent use.
type Parser struct {
	loc      *time.Location
	keywords []string
}

var (
	headlineRe = regexp.MustCompile(`^(\*+)[ \t]+(.*?)[ \t]*$`)
	priorityRe = regexp.MustCompile(`^\[#([A-Z0-9])\]\s*`)
	tagsRe     = regexp.MustCompile(`^(.*?)\s+(:[\p{L}\p{N}_@#%:]+:)$`)
	planningRe = regexp.MustCompile(`(SCHEDULED|DEADLINE|CLOSED):\s*`)
	todoSetRe  = regexp.MustCompile(`(?i)^#\+(?:SEQ_|TYP_)?TODO:\s*(.*)$`)
	fastKeyRe  = regexp.MustCompile(`\(.*\)$`)
)

// NewParser returns a Parser for the given options.
func NewParser(opts Options) *Parser {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	keywords := opts.TodoKeywords
	if len(keywords) == 0 {
		keywords = []string{"TODO", "DONE"}
	}
	return &Parser{loc: loc, keywords: keywords}
}

// Parse parses raw into a Document named filename.
//
// Planning lines are recognised only directly below their headline. A
// planning keyword whose timestamp cannot be parsed is ignored. The only
// error is a *ParseError for text that is not valid UTF-8 or contains NUL
// bytes; the returned Document then has no headlines.
func (p *Parser) Parse(filename, raw string) (model.Document, error) {
	doc := model.Document{Filename: filename, RawText: raw}

	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		if !utf8.ValidString(line) {
			return doc, &ParseError{Filename: filename, Line: i + 1, Reason: "invalid UTF-8"}
		}
		if strings.IndexByte(line, 0) >= 0 {
			return doc, &ParseError{Filename: filename, Line: i + 1, Reason: "NUL byte in text"}
		}
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	keywords := p.documentKeywords(lines)

	for i := 0; i < len(lines); i++ {
		m := headlineRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}

		h := parseTitle(m[2], keywords)
		h.Level = len(m[1])
		h.Line = i + 1

		if i+1 < len(lines) {
			if planning := p.parsePlanning(lines[i+1]); planning != nil {
				h.Planning = planning
				i++
			}
		}

		doc.Headlines = append(doc.Headlines, h)
	}

	return doc, nil
}

// documentKeywords returns the parser keywords plus any declared by #+TODO:
// lines in the document.
func (p *Parser) documentKeywords(lines []string) []string {
	keywords := p.keywords
	copied := false
	for _, line := range lines {
		m := todoSetRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if !copied {
			keywords, copied = append([]string(nil), p.keywords...), true
		}
		for _, field := range strings.Fields(m[1]) {
			if field == "|" {
				continue
			}
			keywords = append(keywords, fastKeyRe.ReplaceAllString(field, ""))
		}
	}
	return keywords
}

func parseTitle(text string, keywords []string) model.Headline {
	var h model.Headline

	for _, k := range keywords {
		if text == k {
			h.Keyword, text = k, ""
			break
		}
		if strings.HasPrefix(text, k+" ") {
			h.Keyword, text = k, strings.TrimLeft(text[len(k):], " \t")
			break
		}
	}

	if m := priorityRe.FindStringSubmatch(text); m != nil {
		h.Priority = m[1]
		text = text[len(m[0]):]
	}

	// The leading space lets a title made only of tags match as well.
	if m := tagsRe.FindStringSubmatch(" " + text); m != nil {
		text = m[1]
		for _, tag := range strings.Split(m[2], ":") {
			if tag != "" {
				h.Tags = append(h.Tags, tag)
			}
		}
	}

	h.Label = strings.TrimSpace(text)
	return h
}

// parsePlanning returns the planning block on line, or nil if line is not a
// planning line.
func (p *Parser) parsePlanning(line string) *model.Planning {
	trimmed := strings.TrimLeft(line, " \t")
	locs := planningRe.FindAllStringSubmatchIndex(trimmed, -1)
	if len(locs) == 0 || locs[0][0] != 0 {
		return nil
	}

	planning := &model.Planning{}
	for _, loc := range locs {
		slot := slotFor(trimmed[loc[2]:loc[3]])
		if planning.Get(slot) != nil {
			continue
		}
		a, _, ok := parseTimestamp(trimmed[loc[1]:], p.loc)
		if !ok {
			continue
		}
		planning.Set(slot, a)
	}

	if planning.Empty() {
		return nil
	}
	return planning
}

func slotFor(keyword string) model.Slot {
	switch keyword {
	case "DEADLINE":
		return model.SlotDeadline
	case "CLOSED":
		return model.SlotClosed
	default:
		return model.SlotScheduled
	}
}
