package mcpserver

// LogFormatContract describes the decision-log layout that LLM consumers
// should expect when reading decisions and supplying new ones.
const LogFormatContract = `# Decision Log Format Contract

A decision log is one Markdown file with a summary table followed by one
details section per decision.

## Identifiers

- Every decision has an identifier ` + "`K-NNN`" + `, zero-padded to three digits
  (` + "`K-001`" + `, ` + "`K-002`" + `, ...).
- Identifiers are allocated by decidoc as the highest identifier in the file
  plus one. Never invent or renumber identifiers.

## Summary table

` + "```" + `markdown
| ID | Date | Category | Title | Status |
|----|------|----------|-------|--------|
| [K-002](#decision-k-002) | 2026-10-18 | Tooling | Adopt golangci-lint | Final |
| [K-001](#decision-k-001) | 2026-10-17 | Architecture | Use SQLite | Final |
` + "```" + `

The newest decision is listed first.

## Details section

` + "```" + `markdown
---

## Decision K-001 – Use SQLite
<a id="decision-k-001"></a>

**Date:** 2026-10-17  
**Category:** Architecture  
**Stakeholders:** Platform team

### Context
### Considerations
### Decision
### Motivation
### Reflection
### Sources
` + "```" + `

Sections appear in creation order at the end of the file. Empty fields read
"To be filled in.".

## Adding decisions

- Use the ` + "`add_decision`" + ` tool; do not edit the file directly.
- ` + "`title`" + ` and ` + "`category`" + ` are required. ` + "`status`" + ` defaults to "Final".
- ` + "`sources`" + ` is a comma-separated list. URLs are turned into citations;
  other text is kept as written.
- Removing decisions is only possible interactively with ` + "`decidoc rollback`" + `.
`
