package script

import (
	"math"
	"os"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// VarTable holds the named variables collected while parsing a batch of
// files. Constants registered by earlier files resolve references in later
// ones, so the batch driver owns one table, parses files sequentially, and
// clears it between independent batches. It is not safe for concurrent use.
type VarTable struct {
	vars map[string]Value
}

// NewVarTable returns an empty table.
func NewVarTable() *VarTable {
	return &VarTable{vars: make(map[string]Value)}
}

// Resolve looks up a variable by name, without the '@' sigil. A missing
// variable is not an error; the second return is false.
func (t *VarTable) Resolve(name string) (Value, bool) {
	v, ok := t.vars[name]
	return v, ok
}

// Register stores a scalar under name, overwriting any previous value.
func (t *VarTable) Register(name string, v Value) {
	t.vars[name] = v
}

// Known reports whether name is registered.
func (t *VarTable) Known(name string) bool {
	_, ok := t.vars[name]
	return ok
}

// Len returns the number of registered variables.
func (t *VarTable) Len() int {
	return len(t.vars)
}

// Clear removes every variable, isolating the next batch.
func (t *VarTable) Clear() {
	t.vars = make(map[string]Value)
}

// EvalFormula evaluates the arithmetic expression inside an `@[...]` token
// against the table. Failures (unknown identifier, syntax error, non-numeric
// result) log a warning and yield nil; they never escalate to the caller.
// Floating-point results are rounded to five decimal places to stabilize
// round-trip comparisons.
func (t *VarTable) EvalFormula(raw string) *float64 {
	source := strings.TrimSuffix(strings.TrimPrefix(raw, "@["), "]")

	env := make(map[string]any, len(t.vars))
	for name, v := range t.vars {
		switch s := v.(type) {
		case Bool:
			env[name] = bool(s)
		case Int:
			env[name] = int64(s)
		case Float:
			env[name] = float64(s)
		case Str:
			env[name] = string(s)
		}
	}

	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		log.Warn().Str("formula", source).Err(err).Msg("Formula cannot be evaluated")
		return nil
	}

	out, err := vm.Run(program, env)
	if err != nil {
		log.Warn().Str("formula", source).Err(err).Msg("Formula cannot be evaluated")
		return nil
	}

	var result float64
	switch n := out.(type) {
	case int:
		result = float64(n)
	case int64:
		result = float64(n)
	case float64:
		result = math.Round(n*1e5) / 1e5
	default:
		log.Warn().Str("formula", source).Msgf("Formula result is not numeric: %v", out)
		return nil
	}

	if math.IsInf(result, 0) || math.IsNaN(result) {
		log.Warn().Str("formula", source).Msg("Formula result is not finite")
		return nil
	}

	return &result
}

// Save writes the table to a JSON sidecar file with sorted keys.
func (t *VarTable) Save(path string) error {
	data, err := json.MarshalIndent(t.snapshot(), "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load merges variables from a JSON sidecar file into the table. A missing
// file is not an error.
func (t *VarTable) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	raw := make(map[string]any)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for name, v := range raw {
		switch s := v.(type) {
		case bool:
			t.vars[name] = Bool(s)
		case float64:
			if s == math.Trunc(s) {
				t.vars[name] = Int(int64(s))
			} else {
				t.vars[name] = Float(s)
			}
		case string:
			t.vars[name] = Str(s)
		}
	}
	return nil
}

func (t *VarTable) snapshot() map[string]any {
	out := make(map[string]any, len(t.vars))
	for name, v := range t.vars {
		switch s := v.(type) {
		case Bool:
			out[name] = bool(s)
		case Int:
			out[name] = int64(s)
		case Float:
			out[name] = float64(s)
		case Str:
			out[name] = string(s)
		}
	}
	return out
}
