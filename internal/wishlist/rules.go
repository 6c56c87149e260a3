package wishlist

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Column limits, matching the schema.
const (
	TitleMinLen       = 3
	TitleMaxLen       = 70
	DescriptionMaxLen = 100
	LinkMaxLen        = 255
	CatalogNameMaxLen = 50

	// DisplayLimit caps how many gifts a chat listing shows. Exports are not capped.
	DisplayLimit = 20
)

var eventDateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"02.01.2006",
	"2.1.2006",
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateTitle trims s and checks its length.
func ValidateTitle(s string) (string, error) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n < TitleMinLen {
		return "", invalid("title", fmt.Sprintf("The title must be at least %d characters long.", TitleMinLen))
	}
	if n > TitleMaxLen {
		return "", invalid("title", fmt.Sprintf("The title must be at most %d characters long.", TitleMaxLen))
	}
	return s, nil
}

// ValidateDescription returns nil for an empty description.
func ValidateDescription(s string) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(s) > DescriptionMaxLen {
		return nil, invalid("description", fmt.Sprintf("The description must be at most %d characters long.", DescriptionMaxLen))
	}
	return &s, nil
}

// ValidateLink accepts absolute http(s) URLs. A missing scheme is read as https.
// An empty link returns nil.
func ValidateLink(s string) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	if utf8.RuneCountInString(s) > LinkMaxLen {
		return nil, invalid("link", fmt.Sprintf("The link must be at most %d characters long.", LinkMaxLen))
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || strings.ContainsAny(s, " \t\n") {
		return nil, invalid("link", "That does not look like a web link. Send something like https://example.com/item.")
	}
	if !strings.Contains(u.Hostname(), ".") && u.Hostname() != "localhost" {
		return nil, invalid("link", "That does not look like a web link. Send something like https://example.com/item.")
	}
	return &s, nil
}

// ValidateCatalogName trims s and checks its length.
func ValidateCatalogName(s string) (string, error) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return "", invalid("name", "The catalog name cannot be empty.")
	}
	if n > CatalogNameMaxLen {
		return "", invalid("name", fmt.Sprintf("The catalog name must be at most %d characters long.", CatalogNameMaxLen))
	}
	return s, nil
}

// ParseEventDate reads YYYY-MM-DD or DD.MM.YYYY. An empty input returns nil.
func ParseEventDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, invalid("event_date", "Send the date as YYYY-MM-DD, for example 2025-12-31.")
}

// ParseGiftID reads a non-negative gift number, with or without a leading '#'.
func ParseGiftID(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, invalid("gift_id", "Send the gift number as shown in the list, for example 12.")
	}
	return id, nil
}

// ValidateFieldValue checks value against the rule of field.
// Title always yields a value; description and link may yield nil to clear the column.
func ValidateFieldValue(field Field, value string) (*string, error) {
	switch field {
	case FieldTitle:
		t, err := ValidateTitle(value)
		if err != nil {
			return nil, err
		}
		return &t, nil
	case FieldDescription:
		return ValidateDescription(value)
	case FieldLink:
		return ValidateLink(value)
	}
	return nil, ErrInvalidField
}
