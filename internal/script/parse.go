package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	// `key OPERATOR value` lines; quoted keys lose their quotes and a stray
	// `list` keyword in value position is dropped.
	reLine = regexp.MustCompile(`^"?([^\s"]+)"?\s*([!<=>]+)\s*(?:list\s*)?(.*)$`)
	// Independent items on a bare list line: quoted strings, numbers, words.
	reItem = regexp.MustCompile(`"[^"]+"|[\d.]+|[^\s]+`)
)

// listCoercibleKeys name blocks that legitimately mix dictionary and list
// form in game files; a partial dictionary under one of these is dropped and
// restarted as a list when bare items follow.
var listCoercibleKeys = map[string]bool{
	"on_actions": true,
	"events":     true,
}

// operatorFrameKey marks a frame opened by an operator binding whose block
// bracket sits on the following line.
const operatorFrameKey = "@"

// forcedListTag is appended to keys by the normalizer's `list` keyword pass.
const forcedListTag = "|list"

// ParseError reports the first line of a document that failed to parse.
// Canonical carries the normalized text for diagnostics.
type ParseError struct {
	// Line numbers the failing line within Canonical, not the source
	// file: normalization inserts lines (brace isolation, pair
	// splitting), so it can drift from the file's own numbering.
	Line      int
	Text      string
	Msg       string
	Filename  string
	Canonical string
}

func (e *ParseError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("%s: line %d: %s: %q", e.Filename, e.Line, e.Msg, e.Text)
	}
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// frame is one open container on the parser stack; the bottom frame is the
// root block with an empty key.
type frame struct {
	key  string
	node Value // *Block or *List
}

// Parser converts script text into a value tree. Variables resolved during
// parsing come from (and are registered into) the supplied table, so parsing
// order across files matters; see VarTable.
type Parser struct {
	vars     *VarTable
	comments bool
	filename string
	forced   map[string]bool
}

// NewParser returns a parser bound to the given variable table.
func NewParser(vars *VarTable) *Parser {
	if vars == nil {
		vars = NewVarTable()
	}
	return &Parser{vars: vars, forced: make(map[string]bool)}
}

// WithComments enables comment capture: comments survive as Comment nodes
// instead of being stripped during normalization.
func (p *Parser) WithComments(on bool) *Parser {
	p.comments = on
	return p
}

// WithFilename attaches a filename used in error reports and logs.
func (p *Parser) WithFilename(name string) *Parser {
	p.filename = name
	return p
}

// WithForcedListKeys configures keys that always parse as lists, even on
// first occurrence. Matching is case-insensitive.
func (p *Parser) WithForcedListKeys(keys ...string) *Parser {
	for _, key := range keys {
		p.forced[strings.ToLower(key)] = true
	}
	return p
}

// Vars returns the parser's variable table.
func (p *Parser) Vars() *VarTable {
	return p.vars
}

// Parse normalizes and parses one document. On failure it returns a
// *ParseError and no document; a partially built tree is never surfaced.
// Variables registered by lines before the failure stay in the table,
// matching sequential batch semantics.
func (p *Parser) Parse(text string) (*Block, error) {
	canonical := Normalize(text, p.comments)
	root := NewBlock()
	stack := []frame{{node: root}}

	for number, raw := range strings.Split(canonical, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if err := p.parseLine(line, &stack); err != nil {
			perr := &ParseError{
				Line:      number + 1,
				Text:      line,
				Msg:       err.Error(),
				Filename:  p.filename,
				Canonical: canonical,
			}
			log.Warn().
				Str("file", p.filename).
				Int("line", perr.Line).
				Str("text", line).
				Msg("Parse error")
			return nil, perr
		}
	}
	return root, nil
}

func (p *Parser) parseLine(line string, stack *[]frame) error {
	cur := (*stack)[len(*stack)-1]

	if m := reLine.FindStringSubmatch(line); m != nil {
		return p.parsePair(m[1], m[2], strings.TrimSpace(m[3]), stack)
	}

	// Opening bracket of an operator binding was consumed with its key.
	if line == "{" && cur.key == operatorFrameKey {
		return nil
	}

	if line == "}" {
		if len(*stack) == 1 {
			return fmt.Errorf("unbalanced closing bracket")
		}
		*stack = (*stack)[:len(*stack)-1]
		return nil
	}

	return p.parseBareItems(line, stack)
}

// parsePair handles a canonical `key OPERATOR value` line.
func (p *Parser) parsePair(key, op, raw string, stack *[]frame) error {
	cur := (*stack)[len(*stack)-1]

	forced := false
	if strings.HasSuffix(key, forcedListTag) {
		key = strings.TrimSuffix(key, forcedListTag)
		forced = true
	} else if p.forced[strings.ToLower(key)] {
		forced = true
	}

	// Block open.
	if strings.HasSuffix(raw, "{") {
		child := NewBlock()
		var stored Value = child
		if op != "=" {
			stored = Operator{Op: op, Value: child}
		}
		if err := p.insertBlock(cur, key, stored, forced); err != nil {
			return err
		}
		*stack = append(*stack, frame{key: key, node: child})
		return nil
	}

	// Operator binding with the bracket on the following line.
	if raw == "" && op != "=" {
		child := NewBlock()
		if err := p.insert(cur, key, Operator{Op: op, Value: child}, forced); err != nil {
			return err
		}
		*stack = append(*stack, frame{key: operatorFrameKey, node: child})
		return nil
	}

	value := p.scalarValue(raw)

	// Captured comment markers carry no operator and bind directly.
	if IsCommentKey(key) {
		comment := Comment{Text: scalarString(value)}
		if lst, ok := cur.node.(*List); ok {
			lst.Append(comment)
			return nil
		}
		if blk, ok := cur.node.(*Block); ok {
			blk.Set(key, comment)
			return nil
		}
		return fmt.Errorf("comment outside any container")
	}

	if op != "=" {
		return p.insert(cur, key, Operator{Op: op, Value: value}, forced)
	}

	p.registerVariable(key, value)
	return p.insert(cur, key, value, forced)
}

// scalarValue coerces raw value text in fixed priority order: boolean,
// numeric literal, then formula/variable references, then plain string.
func (p *Parser) scalarValue(raw string) Value {
	if b, ok := boolLiteral(raw); ok {
		return Bool(b)
	}

	value := literal(raw)
	s, isStr := value.(Str)
	if !isStr {
		return value
	}
	text := string(s)

	switch {
	case strings.HasPrefix(text, "@[") && strings.HasSuffix(text, "]"):
		return FormulaRef{Raw: text, Resolved: p.vars.EvalFormula(text)}
	case strings.HasPrefix(text, "@"):
		resolved, _ := p.vars.Resolve(strings.TrimLeft(text, "@"))
		return VarRef{Raw: text, Resolved: resolved}
	default:
		// A bare word naming a known non-string variable is a reference.
		if resolved, ok := p.vars.Resolve(text); ok {
			if _, isString := resolved.(Str); !isString {
				return VarRef{Raw: text, Resolved: resolved}
			}
		}
		return value
	}
}

// registerVariable records `@name = value` assignments for later lookups.
// Only '@'-prefixed keys with a resolved or non-empty value register.
func (p *Parser) registerVariable(key string, value Value) {
	if !strings.HasPrefix(key, "@") {
		return
	}
	name := strings.TrimLeft(key, "@")

	switch v := value.(type) {
	case FormulaRef:
		if v.Resolved != nil {
			p.vars.Register(name, numberValue(*v.Resolved))
		}
	case Str:
		if v != "" {
			p.vars.Register(name, v)
		}
	case Bool, Int, Float:
		p.vars.Register(name, v)
	}
}

// insert stores a scalar-ish value under key, applying the duplicate-key and
// forced-list rules: differing duplicates coerce to a list in encounter
// order, identical duplicates collapse to one.
func (p *Parser) insert(cur frame, key string, value Value, forced bool) error {
	node, ok := cur.node.(*Block)
	if !ok {
		return fmt.Errorf("key %q bound inside a list", key)
	}

	if existing, dup := node.Get(key); dup {
		if lst, isList := existing.(*List); isList {
			lst.Append(value)
			return nil
		}
		if !Equal(existing, value) {
			log.Debug().Str("key", key).Str("file", p.filename).Msg("Duplicate key coerced to list")
			node.Set(key, NewList(existing, value))
		}
		return nil
	}

	if forced {
		node.Set(key, NewList(value))
		return nil
	}
	node.Set(key, value)
	return nil
}

// insertBlock stores a freshly opened block; duplicate blocks always coerce
// to a list, and a list container appends directly.
func (p *Parser) insertBlock(cur frame, key string, value Value, forced bool) error {
	switch node := cur.node.(type) {
	case *Block:
		if existing, dup := node.Get(key); dup {
			if lst, isList := existing.(*List); isList {
				lst.Append(value)
				return nil
			}
			log.Debug().Str("key", key).Str("file", p.filename).Msg("Duplicate key coerced to list")
			node.Set(key, NewList(existing, value))
			return nil
		}
		if forced {
			node.Set(key, NewList(value))
			return nil
		}
		node.Set(key, value)
		return nil
	case *List:
		node.Append(value)
		return nil
	}
	return fmt.Errorf("no open container for key %q", key)
}

// parseBareItems handles lines that are neither key/value nor brackets: list
// items, or an anonymous `{` opening a block inside a list. The current
// container is coerced to a list first when necessary.
func (p *Parser) parseBareItems(line string, stack *[]frame) error {
	cur := (*stack)[len(*stack)-1]

	lst, isList := cur.node.(*List)
	if !isList {
		if len(*stack) < 2 {
			return fmt.Errorf("list item outside any container")
		}
		prev := (*stack)[len(*stack)-2]
		replacement := NewList()

		if blk, isBlk := cur.node.(*Block); isBlk && blk.Len() > 0 {
			key, first, _ := blk.First()
			switch {
			case IsCommentKey(key):
				// A captured comment was the only content so far; keep it
				// as the first list element.
				replacement.Append(first)
			case listCoercibleKeys[cur.key]:
				// Partial dictionary content is dropped; these blocks mix
				// both forms and the list form wins.
			default:
				log.Warn().
					Str("file", p.filename).
					Str("key", cur.key).
					Str("text", line).
					Msg("Single value cannot be added to a dictionary")
				return nil
			}
		}

		if cur.key != "" {
			parent, isBlk := prev.node.(*Block)
			if !isBlk {
				return fmt.Errorf("cannot coerce %q to a list", cur.key)
			}
			parent.Set(cur.key, replacement)
		} else {
			parent, isLst := prev.node.(*List)
			if !isLst || parent.Len() == 0 {
				return fmt.Errorf("cannot coerce anonymous block to a list")
			}
			parent.Items[parent.Len()-1] = replacement
		}

		lst = replacement
		(*stack)[len(*stack)-1] = frame{key: cur.key, node: replacement}
	}

	if line == "{" {
		child := NewBlock()
		lst.Append(child)
		*stack = append(*stack, frame{node: child})
		return nil
	}

	for _, item := range reItem.FindAllString(line, -1) {
		if strings.HasPrefix(item, "@") && !strings.HasPrefix(item, "@[") {
			resolved, _ := p.vars.Resolve(strings.TrimLeft(item, "@"))
			lst.Append(VarRef{Raw: item, Resolved: resolved})
			continue
		}
		if strings.HasPrefix(item, "@[") && strings.HasSuffix(item, "]") {
			lst.Append(FormulaRef{Raw: item, Resolved: p.vars.EvalFormula(item)})
			continue
		}
		if b, ok := boolLiteral(item); ok {
			lst.Append(Bool(b))
			continue
		}
		lst.Append(literal(item))
	}
	return nil
}

// boolLiteral maps the grammar's yes/no to booleans.
func boolLiteral(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "yes":
		return true, true
	case "no":
		return false, true
	}
	return false, false
}

// literal attempts numeric and quoted-string interpretation, falling back to
// the raw string; it never fails.
func literal(raw string) Value {
	if len(raw) >= 2 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) {
		return Str(raw[1 : len(raw)-1])
	}
	if leadingZeroNumber(raw) {
		// Tokens like 0010 are identifiers in this grammar, not numbers.
		return Str(raw)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Float(f)
	}
	return Str(raw)
}

func leadingZeroNumber(raw string) bool {
	s := strings.TrimLeft(raw, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] != '.'
}

// numberValue keeps integral formula results as integers.
func numberValue(f float64) Value {
	if f == float64(int64(f)) {
		return Int(int64(f))
	}
	return Float(f)
}

func scalarString(v Value) string {
	if s, ok := v.(Str); ok {
		return string(s)
	}
	return fmt.Sprintf("%v", v)
}
