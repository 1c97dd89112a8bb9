package script

import (
	"path/filepath"
	"testing"
)

func TestVarTableResolve(t *testing.T) {
	table := NewVarTable()
	table.Register("base", Int(10))

	if v, ok := table.Resolve("base"); !ok || !Equal(v, Int(10)) {
		t.Errorf("got %#v, %v", v, ok)
	}
	if _, ok := table.Resolve("missing"); ok {
		t.Error("expected miss")
	}

	table.Register("base", Float(2.5))
	if v, _ := table.Resolve("base"); !Equal(v, Float(2.5)) {
		t.Errorf("overwrite: got %#v", v)
	}

	table.Clear()
	if table.Len() != 0 {
		t.Errorf("Clear left %d entries", table.Len())
	}
}

func TestEvalFormula(t *testing.T) {
	table := NewVarTable()
	table.Register("base", Int(10))
	table.Register("mult", Float(1.5))

	tests := []struct {
		raw  string
		want float64
	}{
		{"@[2+3]", 5},
		{"@[base*2]", 20},
		{"@[base*mult]", 15},
		{"@[(base+2)/4]", 3},
		{"@[-base]", -10},
	}
	for _, test := range tests {
		got := table.EvalFormula(test.raw)
		if got == nil {
			t.Errorf("EvalFormula(%q): got nil", test.raw)
			continue
		}
		if *got != test.want {
			t.Errorf("EvalFormula(%q): got %v, want %v", test.raw, *got, test.want)
		}
	}
}

func TestEvalFormulaRounding(t *testing.T) {
	table := NewVarTable()

	got := table.EvalFormula("@[1.0/3.0]")
	if got == nil {
		t.Fatal("got nil")
	}
	if *got != 0.33333 {
		t.Errorf("got %v, want 0.33333", *got)
	}
}

func TestEvalFormulaFailuresYieldNil(t *testing.T) {
	table := NewVarTable()
	table.Register("word", Str("text"))

	for _, raw := range []string{
		"@[unknown_name*2]",
		"@[2+]",
		"@[word]",
	} {
		if got := table.EvalFormula(raw); got != nil {
			t.Errorf("EvalFormula(%q): got %v, want nil", raw, *got)
		}
	}
}

func TestVarTableSaveLoad(t *testing.T) {
	table := NewVarTable()
	table.Register("count", Int(7))
	table.Register("rate", Float(0.25))
	table.Register("name", Str("alpha"))
	table.Register("flag", Bool(true))

	path := filepath.Join(t.TempDir(), "vars.json")
	if err := table.Save(path); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded := NewVarTable()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	tests := []struct {
		name string
		want Value
	}{
		{"count", Int(7)},
		{"rate", Float(0.25)},
		{"name", Str("alpha")},
		{"flag", Bool(true)},
	}
	for _, test := range tests {
		got, ok := loaded.Resolve(test.name)
		if !ok {
			t.Errorf("%s missing after load", test.name)
			continue
		}
		if !Equal(got, test.want) {
			t.Errorf("%s: got %#v, want %#v", test.name, got, test.want)
		}
	}
}

func TestVarTableLoadMissingFile(t *testing.T) {
	table := NewVarTable()
	if err := table.Load(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Fatalf("expected missing file to be tolerated, got %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("got %d entries", table.Len())
	}
}
