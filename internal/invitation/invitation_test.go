package invitation

import (
	"bytes"
	"strings"
	"testing"

	"wedding-invitation/internal/models"
)

func TestGenerateCode_MatchesCharacterClass(t *testing.T) {
	for i := 0; i < 2000; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !ValidCode(code) {
			t.Fatalf("code %q does not match the invitation code pattern", code)
		}
		if strings.ContainsAny(code, "01ilo") {
			t.Fatalf("code %q contains a confusable character", code)
		}
		if strings.ToLower(code) != code {
			t.Fatalf("code %q contains uppercase letters", code)
		}
	}
}

func TestCodeGenerator_DeterministicSource(t *testing.T) {
	src := bytes.Repeat([]byte{0}, 64)
	g := NewCodeGenerator(bytes.NewReader(src))
	code, err := g.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if code != "22222" {
		t.Fatalf("expected 22222 from an all-zero source, got %q", code)
	}
}

func TestCodeGenerator_ShortSourceFails(t *testing.T) {
	g := NewCodeGenerator(bytes.NewReader(nil))
	if _, err := g.Generate(); err == nil {
		t.Fatal("expected an error from an exhausted source")
	}
}

func TestValidCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"abc23", true},
		{"zzzzz", true},
		{"abc2", false},
		{"abc234", false},
		{"ABC23", false},
		{"abc10", false},
		{"abcil", false},
		{"abco2", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidCode(tt.code); got != tt.want {
			t.Errorf("ValidCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestLink(t *testing.T) {
	if got := Link("https://example.com", "abc23"); got != "https://example.com/?code=abc23" {
		t.Fatalf("unexpected link %q", got)
	}
	if got := Link("https://example.com/", "abc23"); got != "https://example.com/?code=abc23" {
		t.Fatalf("trailing slash not trimmed: %q", got)
	}
}

func TestWhatsAppMessage_Pure(t *testing.T) {
	a := WhatsAppMessage("Siti", "Budi", "abc23", "https://example.com")
	b := WhatsAppMessage("Siti", "Budi", "abc23", "https://example.com")
	if a != b {
		t.Fatal("same inputs produced different output")
	}
	if !strings.Contains(a, "Siti & Budi") {
		t.Fatalf("partner clause missing:\n%s", a)
	}
	if !strings.Contains(a, "https://example.com/?code=abc23") {
		t.Fatalf("link missing:\n%s", a)
	}
}

func TestWhatsAppMessage_PartnerOnlyChangesClause(t *testing.T) {
	with := WhatsAppMessage("Siti", "Budi", "abc23", "https://example.com")
	without := WhatsAppMessage("Siti", "", "abc23", "https://example.com")
	if strings.Replace(with, " & Budi", "", 1) != without {
		t.Fatalf("removing the partner changed more than the partner clause\nwith:\n%s\nwithout:\n%s", with, without)
	}
}

func TestRecipientName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"budi santoso", "Budi Santoso"},
		{"  SITI   aminah ", "Siti Aminah"},
		{"<<andi>> wijaya", "Andi Wijaya"},
		{"<>", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RecipientName(tt.raw); got != tt.want {
			t.Errorf("RecipientName(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestLegacyRecipient_Precedence(t *testing.T) {
	params := map[string]string{"nama": "dewi", "guest": "eko"}
	got := LegacyRecipient(func(k string) string { return params[k] })
	if got != "Dewi" {
		t.Fatalf("expected nama to win over guest, got %q", got)
	}
	if got := LegacyRecipient(func(string) string { return "" }); got != "" {
		t.Fatalf("expected empty recipient, got %q", got)
	}
}

func TestMaps(t *testing.T) {
	tests := []struct {
		option models.MapsDisplayOption
		want   MapsVisibility
	}{
		{models.MapsAkad, MapsVisibility{ShowAkad: true}},
		{models.MapsResepsi, MapsVisibility{ShowResepsi: true}},
		{models.MapsBoth, MapsVisibility{ShowAkad: true, ShowResepsi: true}},
		{models.MapsNone, MapsVisibility{}},
		{"", MapsVisibility{ShowAkad: true, ShowResepsi: true}},
	}
	for _, tt := range tests {
		if got := Maps(tt.option); got != tt.want {
			t.Errorf("Maps(%q) = %+v, want %+v", tt.option, got, tt.want)
		}
	}
}
