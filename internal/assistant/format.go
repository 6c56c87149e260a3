package assistant

import (
	"fmt"
	"strings"

	"github.com/m3rciful/wishbot/internal/export"
	"github.com/m3rciful/wishbot/internal/wishlist"
)

const (
	noDescription = export.NoDescription
	noLink        = export.NoLink
)

// formatGifts lists at most DisplayLimit gifts and notes when more exist.
func formatGifts(header string, gifts []wishlist.Gift) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	shown := gifts
	if len(shown) > wishlist.DisplayLimit {
		shown = shown[:wishlist.DisplayLimit]
	}
	for _, g := range shown {
		fmt.Fprintf(&b, "🔹 #%d %s", g.ID, g.Title)
		if g.CatalogID != wishlist.DefaultCatalogID && g.CatalogName != "" {
			fmt.Fprintf(&b, " (%s)", g.CatalogName)
		}
		fmt.Fprintf(&b, "\n%s\n%s\n\n", g.DescriptionOr(noDescription), g.LinkOr(noLink))
	}
	if len(gifts) > len(shown) {
		fmt.Fprintf(&b, "Showing the first %d gifts. Use %s to get all of them.", wishlist.DisplayLimit, LabelShare)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatItems(header string, items []export.Item) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for i, it := range items {
		desc, link := it.Description, it.Link
		if desc == "" {
			desc = noDescription
		}
		if link == "" {
			link = noLink
		}
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, it.Name, desc, link)
	}
	return strings.TrimRight(b.String(), "\n")
}

func catalogLabel(c wishlist.Catalog) string {
	if c.EventDate != nil {
		return fmt.Sprintf("%s · %s", c.Name, c.EventDate.Format("2006-01-02"))
	}
	return c.Name
}

func formatCatalogs(cats []wishlist.Catalog) string {
	var b strings.Builder
	b.WriteString("📁 Your catalogs:\n\n")
	for _, c := range cats {
		fmt.Fprintf(&b, "#%d %s", c.ID, catalogLabel(c))
		if c.Shared() {
			b.WriteString(" (default)")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
