package citation

import (
	"context"
	"log/slog"
	"strings"
)

// Formatter renders citation lines, fetching metadata for URLs.
type Formatter struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewFormatter creates a Formatter. A nil logger discards log output.
func NewFormatter(fetcher Fetcher, logger *slog.Logger) *Formatter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Formatter{fetcher: fetcher, logger: logger}
}

// Format returns the citation line for source. It never fails: a source
// that is not a URL is returned unchanged, and a URL whose metadata cannot
// be fetched is rendered as a plain markdown link.
func (f *Formatter) Format(ctx context.Context, source string) string {
	if !IsURL(source) {
		return source
	}
	meta, err := f.fetcher.Fetch(ctx, source)
	if err != nil {
		f.logger.Debug("citation: fetch failed",
			slog.String("url", source),
			slog.String("error", err.Error()))
		return Link(source)
	}
	return Render(meta, source)
}

// Render formats metadata as "<site>. (n.d.). *<title>*. Retrieved from <url>".
func Render(meta *Metadata, rawURL string) string {
	var b strings.Builder
	if meta.SiteName != "" {
		b.WriteString(meta.SiteName + ". ")
	}
	title := meta.Title
	if title == "" {
		title = rawURL
	}
	b.WriteString("(n.d.). ")
	b.WriteString("*" + title + "*. ")
	b.WriteString("Retrieved from " + rawURL)
	return b.String()
}

// Link renders rawURL as a markdown link to itself.
func Link(rawURL string) string {
	return "[" + rawURL + "](" + rawURL + ")"
}

// IsURL reports whether source should be fetched.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http")
}

// SplitSources flattens comma-separated values into individual sources,
// dropping empty items.
func SplitSources(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
