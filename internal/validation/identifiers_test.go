package validation

import "testing"

func TestIsValidIdentifier(t *testing.T) {
	ok := []string{"a", "A", "_a", "a1", "a_b2", "snake_case_123", "sample_logs"}
	bad := []string{"", "1a", "a-b", "a b", "a;b", "a\"b", "a.b", "a/b", "a--", "select", "from", "order", "table", "group", "user", "returning"}

	for _, s := range ok {
		if !IsValidIdentifier(s) {
			t.Fatalf("expected valid: %q", s)
		}
	}
	for _, s := range bad {
		if IsValidIdentifier(s) {
			t.Fatalf("expected invalid: %q", s)
		}
	}
}

func TestIsValidTableName(t *testing.T) {
	ok := []string{"logs", "audit.logs", "_x.y1"}
	bad := []string{"", " logs", "a.b.c", "a.", ".a", "a.select", "logs; DROP TABLE x", "../etc"}

	for _, s := range ok {
		if !IsValidTableName(s) {
			t.Fatalf("expected valid: %q", s)
		}
	}
	for _, s := range bad {
		if IsValidTableName(s) {
			t.Fatalf("expected invalid: %q", s)
		}
	}
}

func TestQuoteIdentifier(t *testing.T) {
	cases := map[string]string{
		"logs":      `"logs"`,
		"audit.log": `"audit"."log"`,
		`we"ird`:    `"we""ird"`,
	}
	for in, want := range cases {
		if got := QuoteIdentifier(in); got != want {
			t.Fatalf("QuoteIdentifier(%q) = %s, want %s", in, got, want)
		}
	}
	if s, tb := SplitTableName("audit.log"); s != "audit" || tb != "log" {
		t.Fatalf("unexpected split %q %q", s, tb)
	}
}
