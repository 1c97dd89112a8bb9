package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ListKeyRule decides whether a list stored under a matching key is written
// as a bracketed list literal instead of repeated `key = value` lines. Rules
// are ordered configuration so tests can pin exact behavior.
type ListKeyRule struct {
	Match *regexp.Regexp
	// Exclude vetoes a match; RE2 has no lookahead, so prefix exclusions
	// are explicit.
	Exclude *regexp.Regexp
}

func (r ListKeyRule) matches(key string) bool {
	if !r.Match.MatchString(key) {
		return false
	}
	return r.Exclude == nil || !r.Exclude.MatchString(key)
}

// DefaultListKeyRules mirrors the grammar's conventions: colors, DNA genes,
// accessories, gfx sets, plural-looking tags and `key=` forms stay bracketed
// lists; everything else is written as repeated key lines.
var DefaultListKeyRules = []ListKeyRule{
	{Match: regexp.MustCompile(`(?i)^\w+_color$`)},
	{Match: regexp.MustCompile(`(?i)^color\w*$`)},
	{Match: regexp.MustCompile(`(?i)^gene_\w+$`)},
	{Match: regexp.MustCompile(`(?i)^face_detail_\w+$`)},
	{Match: regexp.MustCompile(`(?i)^expression_\w+$`)},
	{Match: regexp.MustCompile(`(?i)^\w+_accessory$`)},
	{Match: regexp.MustCompile(`(?i)^complexion$`)},
	// Plural tags, except landed-title prefixes.
	{
		Match:   regexp.MustCompile(`(?i)^[^.:\s]+s$`),
		Exclude: regexp.MustCompile(`(?i)^(e_|k_|d_|c_|b_)`),
	},
	{Match: regexp.MustCompile(`(?i)^\w+_gfx$`)},
	{Match: regexp.MustCompile(`(?i)^[^=]+=$`)},
}

// colorTypes are the tuple type tags recognized on both sides of the
// transform.
var colorTypes = map[string]bool{
	"rgb":    true,
	"hsv":    true,
	"hls":    true,
	"hsv360": true,
}

// Reverter re-emits grammar-conformant text from a value tree. Reference
// nodes keep their raw textual form; resolved values are never expanded.
type Reverter struct {
	// Indent is the per-depth indentation unit.
	Indent string
	// ColorMinLen is the minimum list length, type tag included, for the
	// `key TYPE = { ... }` color-tuple form.
	ColorMinLen int
	// Rules is the ordered list-vs-repeated-key rule table.
	Rules []ListKeyRule
}

// NewReverter returns a reverter with the default indentation, color
// threshold and rule table.
func NewReverter() *Reverter {
	return &Reverter{
		Indent:      strings.Repeat(" ", 4),
		ColorMinLen: 4,
		Rules:       DefaultListKeyRules,
	}
}

// Revert serializes a document with default settings.
func Revert(v Value) string {
	return NewReverter().Revert(v)
}

// Revert serializes a value tree to script text. It never fails; values it
// cannot classify fall back to best-effort scalar rendering.
func (r *Reverter) Revert(v Value) string {
	return strings.Join(r.lines(v, "", -1), "\n")
}

func (r *Reverter) lines(v Value, key string, depth int) []string {
	tabs := ""
	if depth > 0 {
		tabs = strings.Repeat(r.Indent, depth)
	}

	switch node := v.(type) {
	case *Block:
		var out []string
		if key != "" {
			out = append(out, tabs+keyText(key)+" = {")
		} else if depth > 0 {
			out = append(out, tabs+"{")
		}
		for _, k := range node.Keys() {
			child, _ := node.Get(k)
			out = append(out, r.lines(child, k, depth+1)...)
		}
		if key != "" || depth > 0 {
			out = append(out, tabs+"}")
		}
		return out

	case *List:
		return r.listLines(node, key, depth, tabs)

	case Operator:
		return r.operatorLines(node, key, tabs)

	case VarRef:
		if key == "" {
			return []string{tabs + node.Raw}
		}
		return []string{tabs + keyText(key) + " = " + node.Raw}

	case FormulaRef:
		if key == "" {
			return []string{tabs + node.Raw}
		}
		return []string{tabs + keyText(key) + " = " + node.Raw}

	case Comment:
		return []string{tabs + "#" + node.Text}

	case nil:
		return nil

	default:
		// Empty strings have no textual form.
		if s, ok := v.(Str); ok && s == "" {
			return nil
		}
		if key == "" {
			return []string{tabs + r.scalarText(v)}
		}
		return []string{tabs + keyText(key) + " = " + r.scalarText(v)}
	}
}

func (r *Reverter) listLines(lst *List, key string, depth int, tabs string) []string {
	items := lst.Items
	display := key

	colorForm := false
	if key != "" && len(items) >= r.ColorMinLen {
		if tag, ok := items[0].(Str); ok && colorTypes[string(tag)] {
			display = key + " " + string(tag)
			items = items[1:]
			colorForm = true
		}
	}

	// Most repeated tags are written as separate lines, not a list literal.
	if key != "" && !colorForm && !r.keyForcesList(key) {
		var out []string
		for _, item := range items {
			out = append(out, r.lines(item, key, depth)...)
		}
		return out
	}

	if inlineable(items) {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, r.scalarText(item))
		}
		body := "{ " + strings.Join(parts, " ") + " }"
		if len(items) == 0 {
			body = "{ }"
		}
		if display != "" {
			return []string{tabs + keyText(display) + " = " + body}
		}
		return []string{tabs + body}
	}

	var out []string
	if display != "" {
		out = append(out, tabs+keyText(display)+" = {")
	} else {
		out = append(out, tabs+"{")
	}
	for _, item := range items {
		out = append(out, r.lines(item, "", depth+1)...)
	}
	return append(out, tabs+"}")
}

func (r *Reverter) operatorLines(op Operator, key string, tabs string) []string {
	switch inner := op.Value.(type) {
	case *Block:
		block := r.lines(inner, key, 0)
		if len(block) > 0 {
			block[0] = strings.Replace(block[0], "=", op.Op, 1)
		}
		out := make([]string, len(block))
		for i, line := range block {
			out[i] = tabs + line
		}
		return out
	case VarRef:
		return []string{tabs + keyText(key) + " " + op.Op + " " + inner.Raw}
	case FormulaRef:
		return []string{tabs + keyText(key) + " " + op.Op + " " + inner.Raw}
	default:
		return []string{tabs + keyText(key) + " " + op.Op + " " + r.scalarText(op.Value)}
	}
}

func (r *Reverter) keyForcesList(key string) bool {
	for _, rule := range r.Rules {
		if rule.matches(key) {
			return true
		}
	}
	return false
}

func (r *Reverter) scalarText(v Value) string {
	switch s := v.(type) {
	case Bool:
		if s {
			return "yes"
		}
		return "no"
	case Int:
		return strconv.FormatInt(int64(s), 10)
	case Float:
		return strconv.FormatFloat(float64(s), 'f', -1, 64)
	case Str:
		text := string(s)
		if strings.ContainsAny(text, " \t") ||
			(strings.HasPrefix(text, "$") && strings.HasSuffix(text, "$")) {
			return `"` + strings.ReplaceAll(text, `"`, `\"`) + `"`
		}
		return text
	case VarRef:
		return s.Raw
	case FormulaRef:
		return s.Raw
	default:
		return fmt.Sprintf("%v", v)
	}
}

// inlineable reports whether every item renders as a single token, allowing
// the one-line `key = { a b c }` form.
func inlineable(items []Value) bool {
	for _, item := range items {
		switch item.(type) {
		case Bool, Int, Float, Str, VarRef, FormulaRef:
		default:
			return false
		}
	}
	return true
}

// keyText restores keys carrying glued-keyword or list tags to their spaced
// textual form.
func keyText(key string) string {
	return strings.ReplaceAll(key, "|", " ")
}
