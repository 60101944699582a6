// Package render produces the markdown for decision entries: the summary
// table row, the details section, and the template of a new log.
package render

import (
	"fmt"
	"strings"

	"github.com/starford/decidoc/internal/models"
)

// Placeholder is written for every empty free-text field.
const Placeholder = "To be filled in."

// HeadingPrefix starts the heading line of every details section.
const HeadingPrefix = "## Decision "

// SeparatorRow is the header separator of the summary table.
const SeparatorRow = "|----|------|----------|-------|--------|"

// Rule is the horizontal rule that precedes every details section.
const Rule = "---"

// Template is the content of a freshly initialised decision log.
const Template = `# Decision Log

This document records the significant decisions made during the project.
The summary table offers quick navigation; every decision has a detailed
section further down.

## Summary of decisions

| ID | Date | Category | Title | Status |
` + SeparatorRow + `

---

## Details per decision
`

// Anchor returns the HTML anchor id for an identifier.
func Anchor(id string) string {
	return "decision-" + strings.ToLower(id)
}

// Row renders the summary-table row for e.
func Row(e models.Entry) string {
	return fmt.Sprintf("| [%s](#%s) | %s | %s | %s | %s |",
		e.ID, Anchor(e.ID), cell(e.Date), cell(e.Category), cell(e.Title), cell(e.Status))
}

// Heading renders the heading line of e's details section.
func Heading(e models.Entry) string {
	return HeadingPrefix + e.ID + " – " + e.Title
}

// Section renders the details section for e as lines. The section opens
// with a blank line and a horizontal rule so it can be appended to any
// document, and carries no trailing newline.
func Section(e models.Entry) []string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n\n", Rule)
	fmt.Fprintf(&b, "%s\n", Heading(e))
	fmt.Fprintf(&b, "<a id=\"%s\"></a>\n\n", Anchor(e.ID))
	fmt.Fprintf(&b, "**Date:** %s  \n", e.Date)
	fmt.Fprintf(&b, "**Category:** %s  \n", e.Category)
	fmt.Fprintf(&b, "**Stakeholders:** %s\n", orPlaceholder(e.Stakeholders))

	field(&b, "Context", e.Context)
	field(&b, "Considerations", e.Considerations)
	field(&b, "Decision", e.Decision)
	field(&b, "Motivation", e.Motivation)
	field(&b, "Reflection", e.Reflection)
	field(&b, "Sources", Citations(e.Citations))

	return strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
}

// Citations renders citations as a bullet list, or "" when there are none.
func Citations(citations []string) string {
	lines := make([]string, 0, len(citations))
	for _, c := range citations {
		lines = append(lines, "- "+c)
	}
	return strings.Join(lines, "\n")
}

func field(b *strings.Builder, heading, text string) {
	fmt.Fprintf(b, "\n### %s\n%s\n", heading, orPlaceholder(text))
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// cell keeps a value inside a single table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
