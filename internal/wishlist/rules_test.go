package wishlist

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Book", "Book", true},
		{"  Lego  ", "Lego", true},
		{"ab", "", false},
		{"  ab ", "", false},
		{"Ёжи", "Ёжи", true},
		{strings.Repeat("x", TitleMaxLen), strings.Repeat("x", TitleMaxLen), true},
		{strings.Repeat("x", TitleMaxLen+1), "", false},
	}
	for _, tc := range cases {
		got, err := ValidateTitle(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ValidateTitle(%q) = %q, %v", tc.in, got, err)
		}
		if !tc.ok {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("ValidateTitle(%q) err = %v, want ValidationError", tc.in, err)
			}
		}
	}
}

func TestValidateLink(t *testing.T) {
	good := map[string]string{
		"http://example.com":      "http://example.com",
		" https://shop.io/item?1": "https://shop.io/item?1",
		"example.com/book":        "https://example.com/book",
	}
	for in, want := range good {
		got, err := ValidateLink(in)
		if err != nil || got == nil || *got != want {
			t.Errorf("ValidateLink(%q) = %v, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"not a link", "ftp://example.com", "https://", "word", "https://" + strings.Repeat("a", LinkMaxLen) + ".com"} {
		if _, err := ValidateLink(in); err == nil {
			t.Errorf("ValidateLink(%q) expected error", in)
		}
	}
	if got, err := ValidateLink("   "); err != nil || got != nil {
		t.Errorf("empty link = %v, %v; want nil, nil", got, err)
	}
}

func TestValidateDescription(t *testing.T) {
	if got, err := ValidateDescription(""); got != nil || err != nil {
		t.Fatalf("empty description = %v, %v", got, err)
	}
	if _, err := ValidateDescription(strings.Repeat("d", DescriptionMaxLen+1)); err == nil {
		t.Fatal("expected error for long description")
	}
	got, err := ValidateDescription(" paperback ")
	if err != nil || *got != "paperback" {
		t.Fatalf("ValidateDescription = %v, %v", got, err)
	}
}

func TestValidateCatalogName(t *testing.T) {
	if _, err := ValidateCatalogName("   "); err == nil {
		t.Fatal("expected error for blank name")
	}
	if _, err := ValidateCatalogName(strings.Repeat("n", CatalogNameMaxLen+1)); err == nil {
		t.Fatal("expected error for long name")
	}
	if got, err := ValidateCatalogName(" Birthday "); err != nil || got != "Birthday" {
		t.Fatalf("ValidateCatalogName = %q, %v", got, err)
	}
}

func TestParseEventDate(t *testing.T) {
	for _, in := range []string{"2025-12-31", "31.12.2025", "2025-12-31 "} {
		d, err := ParseEventDate(in)
		if err != nil || d == nil || d.Format("2006-01-02") != "2025-12-31" {
			t.Errorf("ParseEventDate(%q) = %v, %v", in, d, err)
		}
	}
	if _, err := ParseEventDate("tomorrow"); err == nil {
		t.Error("expected error for free text date")
	}
	if d, err := ParseEventDate(""); d != nil || err != nil {
		t.Errorf("empty date = %v, %v", d, err)
	}
}

func TestParseGiftID(t *testing.T) {
	for in, want := range map[string]int64{"12": 12, " #7 ": 7, "0": 0} {
		if got, err := ParseGiftID(in); err != nil || got != want {
			t.Errorf("ParseGiftID(%q) = %d, %v", in, got, err)
		}
	}
	for _, in := range []string{"-1", "abc", "", "1.5"} {
		if _, err := ParseGiftID(in); err == nil {
			t.Errorf("ParseGiftID(%q) expected error", in)
		}
	}
}

func TestParseFieldAndValue(t *testing.T) {
	f, err := ParseField(" Description ")
	if err != nil || f != FieldDescription {
		t.Fatalf("ParseField = %q, %v", f, err)
	}
	if _, err := ParseField("price"); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("ParseField(price) err = %v", err)
	}
	if v, err := ValidateFieldValue(FieldDescription, ""); v != nil || err != nil {
		t.Fatalf("clearing description = %v, %v", v, err)
	}
	if _, err := ValidateFieldValue(FieldTitle, "x"); err == nil {
		t.Fatal("short title must fail")
	}
}

func TestGiftPlaceholders(t *testing.T) {
	link := "http://example.com"
	g := Gift{Title: "Book", Link: &link}
	if got := g.DescriptionOr("none"); got != "none" {
		t.Fatalf("DescriptionOr = %q", got)
	}
	if got := g.LinkOr("none"); got != link {
		t.Fatalf("LinkOr = %q", got)
	}
}
