// Package models defines the domain types for decidoc.
package models

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultStatus is the status given to entries added without one.
const DefaultStatus = "Final"

var idPattern = regexp.MustCompile(`^K-\d{3,}$`)

// Entry is one decision record. It is rendered as a summary-table row
// plus a details section.
type Entry struct {
	ID             string   `json:"id" yaml:"id"`
	Date           string   `json:"date" yaml:"date"`
	Category       string   `json:"category" yaml:"category"`
	Title          string   `json:"title" yaml:"title"`
	Status         string   `json:"status" yaml:"status"`
	Context        string   `json:"context,omitempty" yaml:"context,omitempty"`
	Considerations string   `json:"considerations,omitempty" yaml:"considerations,omitempty"`
	Decision       string   `json:"decision,omitempty" yaml:"decision,omitempty"`
	Motivation     string   `json:"motivation,omitempty" yaml:"motivation,omitempty"`
	Reflection     string   `json:"reflection,omitempty" yaml:"reflection,omitempty"`
	Stakeholders   string   `json:"stakeholders,omitempty" yaml:"stakeholders,omitempty"`
	Citations      []string `json:"citations,omitempty" yaml:"citations,omitempty"`
}

// Validate checks the fields the summary table depends on. Free-text
// fields are opaque and never validated.
func (e *Entry) Validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.ID, validation.Required, validation.Match(idPattern)),
		validation.Field(&e.Date, validation.Required),
		validation.Field(&e.Category, validation.Required),
		validation.Field(&e.Title, validation.Required),
		validation.Field(&e.Status, validation.Required),
	)
}

// Summary is the parsed view of a single summary-table row.
type Summary struct {
	ID       string `json:"id" yaml:"id"`
	Date     string `json:"date" yaml:"date"`
	Category string `json:"category" yaml:"category"`
	Title    string `json:"title" yaml:"title"`
	Status   string `json:"status" yaml:"status"`
}
