package document

import (
	"fmt"
	"slices"

	"github.com/starford/decidoc/internal/apperr"
	"github.com/starford/decidoc/internal/models"
	"github.com/starford/decidoc/internal/render"
)

// Removal describes what Remove took out of the document.
type Removal struct {
	ID             string
	RowRemoved     bool
	SectionRemoved bool
}

// Partial reports a removal that found only one half of the entry.
func (r Removal) Partial() bool {
	return r.RowRemoved != r.SectionRemoved
}

// Append inserts e's row directly below the table separator and its
// details section at the very end of the document.
func (d *Document) Append(e models.Entry) error {
	if !d.hasTable {
		return fmt.Errorf("document: summary table separator row not found: %w", apperr.ErrMalformed)
	}
	d.rows = slices.Insert(d.rows, 0, Row{ID: e.ID, Line: render.Row(e)})
	d.sections = append(d.sections, Section{ID: e.ID, Lines: render.Section(e)})
	return nil
}

// Remove deletes every summary row for id and the first details section
// with that id.
func (d *Document) Remove(id string) Removal {
	r := Removal{ID: id}

	before := len(d.rows)
	d.rows = slices.DeleteFunc(slices.Clone(d.rows), func(row Row) bool { return row.ID == id })
	r.RowRemoved = len(d.rows) != before

	if i := slices.IndexFunc(d.sections, func(s Section) bool { return s.ID == id }); i >= 0 {
		d.sections = slices.Delete(slices.Clone(d.sections), i, i+1)
		r.SectionRemoved = true
	}
	return r
}
