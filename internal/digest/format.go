package digest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ErrUnknownFormat is returned by FormatterFor for unsupported export formats.
var ErrUnknownFormat = errors.New("unknown export format")

// Formatter writes a digest in one export format.
type Formatter interface {
	Format(w io.Writer, d *Digest) error
	// Ext is the file extension without the dot.
	Ext() string
	ContentType() string
}

// Formats lists the supported export formats.
func Formats() []string {
	return []string{"md", "json", "html"}
}

// FormatterFor returns the formatter for name ("md", "markdown", "json" or "html").
func FormatterFor(name string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "md", "markdown":
		return Markdown{}, nil
	case "json":
		return JSON{}, nil
	case "html":
		return HTML{}, nil
	}
	return nil, fmt.Errorf("%w %q (valid: %s)", ErrUnknownFormat, name, strings.Join(Formats(), ", "))
}

// Filename suggests an export file name for d.
func Filename(d *Digest, f Formatter) string {
	name := d.Name
	if name == "" {
		name = "news-digest-" + stamp(d).Format("2006-01-02")
	}
	return Slugify(name) + "." + f.Ext()
}

func stamp(d *Digest) time.Time {
	if d.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return d.CreatedAt.UTC()
}

// Markdown renders the digest as a Markdown document. Titles and summaries
// are written verbatim.
type Markdown struct{}

func (Markdown) Ext() string         { return "md" }
func (Markdown) ContentType() string { return "text/markdown; charset=utf-8" }

func (Markdown) Format(w io.Writer, d *Digest) error {
	lines := []string{"# Personalized News Digest — " + stamp(d).Format("2006-01-02 15:04") + " UTC", ""}
	if d.Name != "" {
		lines = append(lines, "_"+d.Name+"_", "")
	}
	if d.Meta != nil && d.Meta.Brief != "" {
		lines = append(lines, "> "+d.Meta.Brief, "")
	}
	for _, it := range d.Items {
		lines = append(lines, "## "+it.Title)
		lines = append(lines, fmt.Sprintf("Source: %s, Published: %s", it.Source, FormatTime(it.PublishedAt)))
		if it.Category != "" || it.Rating > 0 {
			var meta []string
			if it.Category != "" {
				meta = append(meta, "Category: "+it.Category)
			}
			if it.Rating > 0 {
				meta = append(meta, "Rating: "+Stars(it.Rating))
			}
			lines = append(lines, "", strings.Join(meta, " · "))
		}
		if it.Summary != "" {
			lines = append(lines, "", it.Summary)
		}
		lines = append(lines, "")
		if it.URL != "" {
			lines = append(lines, "[Read more]("+it.URL+")")
		}
		lines = append(lines, "\n---\n")
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

// JSON renders the digest as an indented JSON document.
type JSON struct{}

func (JSON) Ext() string         { return "json" }
func (JSON) ContentType() string { return "application/json; charset=utf-8" }

func (JSON) Format(w io.Writer, d *Digest) error {
	out := *d
	if out.Items == nil {
		out.Items = []Item{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding digest: %w", err)
	}
	return nil
}

// ParseJSON reads a digest written by the JSON formatter.
func ParseJSON(r io.Reader) (*Digest, error) {
	var d Digest
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decoding digest: %w", err)
	}
	return &d, nil
}

// HTML renders the Markdown form through goldmark into a standalone page.
type HTML struct{}

func (HTML) Ext() string         { return "html" }
func (HTML) ContentType() string { return "text/html; charset=utf-8" }

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM, extension.Typographer))

func (HTML) Format(w io.Writer, d *Digest) error {
	var md bytes.Buffer
	if err := (Markdown{}).Format(&md, d); err != nil {
		return err
	}
	var body bytes.Buffer
	if err := markdownRenderer.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	title := d.Name
	if title == "" {
		title = "Personalized News Digest"
	}
	_, err := fmt.Fprintf(w, htmlPage, html.EscapeString(title), body.String())
	return err
}

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 46rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; color: #222; }
h2 { margin-bottom: 0.2rem; }
hr { border: none; border-top: 1px solid #ddd; margin: 1.5rem 0; }
a { color: #0b63ce; }
</style>
</head>
<body>
%s</body>
</html>
`
