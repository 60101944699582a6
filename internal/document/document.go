// Package document parses a decision log into typed blocks and splices
// entries in and out of it.
//
// A log is split into four regions: the head (everything up to and
// including the summary-table separator row), the summary rows, the body
// between the table and the first details section, and the details
// sections themselves. Parsing is lossless: String reproduces the input
// byte for byte, so operations only touch the blocks they change.
package document

import (
	"regexp"
	"strings"

	"github.com/starford/decidoc/internal/models"
	"github.com/starford/decidoc/internal/render"
)

var (
	separatorRe = regexp.MustCompile(`^\|(\s*:?-+:?\s*\|)+$`)
	headingRe   = regexp.MustCompile(`^` + regexp.QuoteMeta(render.HeadingPrefix) + `(K-\d+)(?:\s|$)`)
	rowIDRe     = regexp.MustCompile(`^\|\s*\[(K-\d+)\]`)
)

// Row is one line of the summary table. ID is empty for rows that do not
// start with an identifier link.
type Row struct {
	ID   string
	Line string
}

// Section is one details section, from its leading separator lines up to
// the start of the next section.
type Section struct {
	ID    string
	Lines []string
}

// Document is a parsed decision log.
type Document struct {
	head     []string
	rows     []Row
	body     []string
	sections []Section

	hasTable        bool
	trailingNewline bool
}

// Parse splits text into blocks. It never fails; a log without a summary
// table parses with HasTable reporting false.
func Parse(text string) *Document {
	lines, trailing := splitLines(text)
	d := &Document{trailingNewline: trailing}

	rowsEnd := 0
	for i, line := range lines {
		if separatorRe.MatchString(strings.TrimSpace(line)) {
			d.hasTable = true
			d.head = lines[:i+1]
			rowsEnd = i + 1
			break
		}
	}
	if d.hasTable {
		for rowsEnd < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[rowsEnd]), "|") {
			d.rows = append(d.rows, newRow(lines[rowsEnd]))
			rowsEnd++
		}
	}

	var starts []int
	var ids []string
	floor := rowsEnd
	for i := rowsEnd; i < len(lines); i++ {
		m := headingRe.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil {
			continue
		}
		starts = append(starts, sectionStart(lines, i, floor))
		ids = append(ids, m[1])
		floor = i + 1
	}

	bodyEnd := len(lines)
	if len(starts) > 0 {
		bodyEnd = starts[0]
	}
	d.body = lines[rowsEnd:bodyEnd]

	for k, start := range starts {
		end := len(lines)
		if k+1 < len(starts) {
			end = starts[k+1]
		}
		d.sections = append(d.sections, Section{ID: ids[k], Lines: lines[start:end]})
	}
	return d
}

// sectionStart extends a heading at index h backward over blank lines to a
// preceding horizontal rule, plus at most one blank line before that rule.
// Lines before floor belong to an earlier block and are never claimed.
func sectionStart(lines []string, h, floor int) int {
	j := h - 1
	for j >= floor && isBlank(lines[j]) {
		j--
	}
	if j < floor || strings.TrimSpace(lines[j]) != render.Rule {
		return h
	}
	if j-1 >= floor && isBlank(lines[j-1]) {
		return j - 1
	}
	return j
}

// String serialises the document.
func (d *Document) String() string {
	n := len(d.head) + len(d.rows) + len(d.body)
	for _, s := range d.sections {
		n += len(s.Lines)
	}
	out := make([]string, 0, n)
	out = append(out, d.head...)
	for _, r := range d.rows {
		out = append(out, r.Line)
	}
	out = append(out, d.body...)
	for _, s := range d.sections {
		out = append(out, s.Lines...)
	}

	text := strings.Join(out, "\n")
	if d.trailingNewline {
		text += "\n"
	}
	return text
}

// HasTable reports whether the summary-table separator row was found.
func (d *Document) HasTable() bool {
	return d.hasTable
}

// Rows returns the summary-table rows in document order.
func (d *Document) Rows() []Row {
	return append([]Row(nil), d.rows...)
}

// Sections returns the details sections in document order.
func (d *Document) Sections() []Section {
	return append([]Section(nil), d.sections...)
}

// Summaries parses the summary rows that carry an identifier.
func (d *Document) Summaries() []models.Summary {
	var out []models.Summary
	for _, r := range d.rows {
		if r.ID == "" {
			continue
		}
		cells := splitCells(r.Line)
		s := models.Summary{ID: r.ID}
		fields := []*string{nil, &s.Date, &s.Category, &s.Title, &s.Status}
		for i := 1; i < len(fields) && i < len(cells); i++ {
			*fields[i] = cells[i]
		}
		out = append(out, s)
	}
	return out
}

// Section returns the markdown of the section for id, starting at its
// heading. ok is false when the log has no such section.
func (d *Document) Section(id string) (markdown string, ok bool) {
	for _, s := range d.sections {
		if s.ID != id {
			continue
		}
		for i, line := range s.Lines {
			if headingRe.MatchString(strings.TrimSpace(line)) {
				return strings.TrimRight(strings.Join(s.Lines[i:], "\n"), "\n "), true
			}
		}
	}
	return "", false
}

func newRow(line string) Row {
	r := Row{Line: line}
	if m := rowIDRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
		r.ID = m[1]
	}
	return r
}

// splitCells splits a table row on unescaped pipes and unescapes them.
func splitCells(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	if strings.HasSuffix(line, "|") && !strings.HasSuffix(line, `\|`) {
		line = line[:len(line)-1]
	}

	var cells []string
	var cur strings.Builder
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line) && line[i+1] == '|':
			cur.WriteByte('|')
			i++
		case line[i] == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(line[i])
		}
	}
	return append(cells, strings.TrimSpace(cur.String()))
}

func splitLines(text string) ([]string, bool) {
	if text == "" {
		return nil, false
	}
	trailing := strings.HasSuffix(text, "\n")
	if trailing {
		text = text[:len(text)-1]
	}
	return strings.Split(text, "\n"), trailing
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
