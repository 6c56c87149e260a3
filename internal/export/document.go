// Package export turns a wishlist into a shareable HTML document or a stored snapshot.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/m3rciful/wishbot/core/logger"
	"github.com/m3rciful/wishbot/internal/wishlist"
)

// ErrNothingToExport is returned instead of an empty document.
var ErrNothingToExport = errors.New("export: nothing to export")

// Placeholders shown for unset gift fields.
const (
	NoDescription = "No description"
	NoLink        = "No link"
)

// Item is one exported gift. Empty Description or Link means unset.
type Item struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// ItemsFromGifts keeps the order of gifts.
func ItemsFromGifts(gifts []wishlist.Gift) []Item {
	out := make([]Item, 0, len(gifts))
	for _, g := range gifts {
		out = append(out, Item{
			Name:        g.Title,
			Description: g.DescriptionOr(""),
			Link:        g.LinkOr(""),
		})
	}
	return out
}

// Renderer builds HTML documents through Markdown.
type Renderer struct {
	md  goldmark.Markdown
	now func() time.Time
}

// NewRenderer returns a Renderer with goldmark's CommonMark defaults. Raw HTML in the
// source is never rendered.
func NewRenderer() *Renderer {
	return &Renderer{md: goldmark.New(), now: time.Now}
}

// Markdown renders items as a CommonMark document with all user text escaped.
func (r *Renderer) Markdown(title string, items []Item) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(escapeMarkdown(title))
	b.WriteString("\n\n")
	for i, it := range items {
		b.WriteString("## ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(escapeMarkdown(it.Name))
		b.WriteString("\n\n")

		if it.Description != "" {
			b.WriteString(escapeMarkdown(it.Description))
		} else {
			b.WriteString("*" + NoDescription + "*")
		}
		b.WriteString("\n\n")

		if it.Link != "" {
			b.WriteString("[")
			b.WriteString(escapeMarkdown(it.Link))
			b.WriteString("](<")
			b.WriteString(linkDestination(it.Link))
			b.WriteString(">)")
		} else {
			b.WriteString("*" + NoLink + "*")
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

// Document renders a standalone HTML page. Zero items yield ErrNothingToExport.
func (r *Renderer) Document(ctx context.Context, title string, items []Item) ([]byte, error) {
	start := time.Now()
	if len(items) == 0 {
		return nil, ErrNothingToExport
	}

	var body bytes.Buffer
	if err := r.md.Convert([]byte(r.Markdown(title, items)), &body); err != nil {
		logger.LogEvent(ctx, logger.SVCExport, slog.LevelError, "export.document",
			slog.String("status", "fail"),
			slog.Any("err", err),
		)
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	out.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	out.WriteString("<title>" + html.EscapeString(title) + "</title>\n")
	out.WriteString("<style>body{font-family:sans-serif;max-width:40em;margin:2em auto;padding:0 1em;line-height:1.5}h2{margin-top:1.5em}em{color:#777}</style>\n")
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("<footer><small>Exported " + r.now().UTC().Format("2006-01-02 15:04 MST") + "</small></footer>\n")
	out.WriteString("</body>\n</html>\n")

	logger.LogEvent(ctx, logger.SVCExport, slog.LevelInfo, "export.document",
		slog.String("status", "ok"),
		slog.Int("count", len(items)),
		slog.Duration("duration", logger.Took(start)),
	)
	return out.Bytes(), nil
}

// escapeMarkdown backslash-escapes every ASCII punctuation character, which CommonMark
// always accepts, and folds line breaks into spaces.
func escapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteByte(' ')
		case r < 128 && isASCIIPunct(byte(r)):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isASCIIPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') || (c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}

var destReplacer = strings.NewReplacer("<", "%3C", ">", "%3E", " ", "%20", "\\", "%5C", "\n", "", "\r", "")

func linkDestination(u string) string {
	return destReplacer.Replace(u)
}
