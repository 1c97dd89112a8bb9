package script

import (
	"strings"
	"testing"
)

func canonicalLines(t *testing.T, input string) []string {
	t.Helper()
	var out []string
	for _, line := range strings.Split(Normalize(input, false), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func assertLines(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d lines %q, want %d lines %q", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNormalizeBraceIsolation(t *testing.T) {
	got := canonicalLines(t, "a = { b = 1 c = 2 }")
	assertLines(t, got, []string{"a ={", "b = 1", "c = 2", "}"})
}

func TestNormalizeInlinePairs(t *testing.T) {
	got := canonicalLines(t, "first = alpha second = beta")
	assertLines(t, got, []string{"first = alpha", "second = beta"})
}

func TestNormalizeColorBlock(t *testing.T) {
	got := canonicalLines(t, "color = rgb { 10 20 30 }")
	assertLines(t, got, []string{"color ={", "rgb", "10 20 30", "}"})
}

func TestNormalizeBareBlockKey(t *testing.T) {
	got := canonicalLines(t, "limit {\n always = yes\n}")
	assertLines(t, got, []string{"limit={", "always = yes", "}"})
}

func TestNormalizeListKeyword(t *testing.T) {
	got := canonicalLines(t, "slots = list {\n alpha\n}")
	assertLines(t, got, []string{"slots|list={", "alpha", "}"})
}

func TestNormalizeDanglingEqual(t *testing.T) {
	got := canonicalLines(t, "key =\n{\n a = 1\n}")
	assertLines(t, got, []string{"key ={", "a = 1", "}"})
}

func TestNormalizeGluedKeyword(t *testing.T) {
	got := canonicalLines(t, "scripted_effect apply_bonus = {\n gold = 5\n}")
	assertLines(t, got, []string{"scripted_effect|apply_bonus ={", "gold = 5", "}"})
}

func TestNormalizeStripsComments(t *testing.T) {
	got := canonicalLines(t, "# leading\nvalue = 10 # trailing\n## banner")
	assertLines(t, got, []string{"value = 10"})
}

func TestNormalizeKeepsCommentMarkers(t *testing.T) {
	text := Normalize("# a note\nvalue = 10", true)

	if !strings.Contains(text, commentSigil+`0=" a note"`) {
		t.Errorf("missing comment marker in %q", text)
	}
	if !strings.Contains(text, "value = 10") {
		t.Errorf("missing pair in %q", text)
	}
}

func TestNormalizeCommentQuotesBecomeApostrophes(t *testing.T) {
	text := Normalize(`# says "hello`, true)

	if !strings.Contains(text, "says 'hello") {
		t.Errorf("got %q", text)
	}
}

func TestNormalizeProtectsQuotedBraces(t *testing.T) {
	got := canonicalLines(t, `desc = "contains { braces } and # hash"`)
	assertLines(t, got, []string{`desc = "contains { braces } and # hash"`})
}

func TestNormalizeCollapsesMultilineString(t *testing.T) {
	got := canonicalLines(t, "desc = \"first\nsecond\"\nnext = 10")
	assertLines(t, got, []string{`desc = "first second"`, "next = 10"})
}

func TestNormalizeIsTotal(t *testing.T) {
	// Garbage in, canonical text out; errors surface at the line parser.
	inputs := []string{"", "}}}}", "= = =", "{", `"unterminated`}
	for _, input := range inputs {
		Normalize(input, false)
		Normalize(input, true)
	}
}
