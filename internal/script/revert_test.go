package script

import (
	"testing"
)

func blockOf(pairs ...any) *Block {
	b := NewBlock()
	for i := 0; i < len(pairs); i += 2 {
		b.Set(pairs[i].(string), pairs[i+1].(Value))
	}
	return b
}

func TestRevertScalars(t *testing.T) {
	doc := blockOf(
		"name", Str("steppe_invader"),
		"count", Int(12),
		"factor", Float(0.5),
		"flag", Bool(true),
		"hidden", Bool(false),
	)

	want := "name = steppe_invader\ncount = 12\nfactor = 0.5\nflag = yes\nhidden = no"
	if got := Revert(doc); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRevertNestedBlock(t *testing.T) {
	doc := blockOf("a", Int(1), "b", blockOf("c", Bool(true)))

	want := "a = 1\nb = {\n    c = yes\n}"
	if got := Revert(doc); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRevertColorTuple(t *testing.T) {
	doc := blockOf("color", NewList(Str("rgb"), Int(10), Int(20), Int(30)))

	want := "color rgb = { 10 20 30 }"
	if got := Revert(doc); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRevertColorThreshold(t *testing.T) {
	doc := blockOf("color", NewList(Str("rgb"), Int(1), Int(2)))

	// Below the threshold the type tag stays an ordinary list item.
	if got := Revert(doc); got != "color = { rgb 1 2 }" {
		t.Errorf("default threshold: got %q", got)
	}

	r := NewReverter()
	r.ColorMinLen = 3
	if got := r.Revert(doc); got != "color rgb = { 1 2 }" {
		t.Errorf("lowered threshold: got %q", got)
	}
}

func TestRevertRepeatedKeyList(t *testing.T) {
	doc := blockOf("trait", NewList(Str("brave"), Str("greedy")))

	want := "trait = brave\ntrait = greedy"
	if got := Revert(doc); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRevertBracketedList(t *testing.T) {
	doc := blockOf("traits", NewList(Str("brave"), Str("greedy")))

	want := "traits = { brave greedy }"
	if got := Revert(doc); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRevertListOfBlocks(t *testing.T) {
	doc := blockOf("events", NewList(
		blockOf("id", Int(1)),
		blockOf("id", Int(2)),
	))

	want := "events = {\n    {\n        id = 1\n    }\n    {\n        id = 2\n    }\n}"
	if got := Revert(doc); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestKeyForcesList(t *testing.T) {
	r := NewReverter()

	tests := []struct {
		key  string
		want bool
	}{
		{"primary_color", true},
		{"colors", true},
		{"gene_hair", true},
		{"face_detail_cheek", true},
		{"male_accessory", true},
		{"complexion", true},
		{"traditions", true},
		{"coat_of_arms_gfx", true},
		{"e_titles", false},
		{"k_francias", false},
		{"trait", false},
		{"factor", false},
	}
	for _, test := range tests {
		if got := r.keyForcesList(test.key); got != test.want {
			t.Errorf("keyForcesList(%q): got %v, want %v", test.key, got, test.want)
		}
	}
}

func TestRevertOperatorScalar(t *testing.T) {
	doc := blockOf("martial", Operator{Op: ">=", Value: Int(5)})

	if got := Revert(doc); got != "martial >= 5" {
		t.Errorf("got %q", got)
	}
}

func TestRevertOperatorBlock(t *testing.T) {
	doc := blockOf("trigger", Operator{Op: ">", Value: blockOf("x", Int(1))})

	want := "trigger > {\n    x = 1\n}"
	if got := Revert(doc); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRevertReferencesKeepRawText(t *testing.T) {
	five := 5.0
	doc := blockOf(
		"cost", VarRef{Raw: "@base_cost", Resolved: Int(50)},
		"scaled", FormulaRef{Raw: "@[base_cost*2]", Resolved: &five},
	)

	want := "cost = @base_cost\nscaled = @[base_cost*2]"
	if got := Revert(doc); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRevertQuotesStrings(t *testing.T) {
	doc := blockOf(
		"desc", Str("two words"),
		"loc", Str("$KEY$"),
		"plain", Str("word"),
	)

	want := "desc = \"two words\"\nloc = \"$KEY$\"\nplain = word"
	if got := Revert(doc); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRevertComment(t *testing.T) {
	doc := NewBlock()
	doc.Set("&0", Comment{Text: " header note"})
	doc.Set("value", Int(1))

	want := "# header note\nvalue = 1"
	if got := Revert(doc); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRevertDropsEmptyStrings(t *testing.T) {
	doc := blockOf("empty", Str(""), "kept", Int(1))

	if got := Revert(doc); got != "kept = 1" {
		t.Errorf("got %q", got)
	}
}

func TestRevertGluedKeyword(t *testing.T) {
	doc := blockOf("scripted_trigger|my_check", blockOf("always", Bool(true)))

	want := "scripted_trigger my_check = {\n    always = yes\n}"
	if got := Revert(doc); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	input := `name = "Test Realm"
stats = {
    martial = 5
    learning = 3
}
traits = { brave greedy }
trait = ambitious
trait = gregarious
flag = yes
factor = 0.5
martial >= 2`

	vars := NewVarTable()
	doc, err := NewParser(vars).Parse(input)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	text := Revert(doc)
	again, err := NewParser(vars).Parse(text)
	if err != nil {
		t.Fatalf("reparse failed: %v\ntext:\n%s", err, text)
	}
	if !Equal(doc, again) {
		t.Errorf("round trip changed the document:\nfirst: %#v\nsecond: %#v\ntext:\n%s", doc, again, text)
	}
}

func TestRoundTripReferences(t *testing.T) {
	vars := NewVarTable()
	parser := NewParser(vars)

	input := "@base = 4\n@scaled = @[base*2]\ncost = @base"
	doc, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	text := Revert(doc)
	again, err := parser.Parse(text)
	if err != nil {
		t.Fatalf("reparse failed: %v\ntext:\n%s", err, text)
	}
	if !Equal(doc, again) {
		t.Errorf("round trip changed the document:\ntext:\n%s", text)
	}
}
