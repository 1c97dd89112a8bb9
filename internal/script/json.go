package script

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

// The JSON form keeps key order and wraps non-plain nodes in envelope
// objects (`@operator`, `@type`) so saved documents can be decoded and
// reverted later.

func (b *Block) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(b.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (l *List) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Items)
}

func (o Operator) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string `json:"@operator"`
		Value Value  `json:"@value"`
	}{o.Op, o.Value})
}

func (v VarRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string `json:"@type"`
		Value  string `json:"@value"`
		Result Value  `json:"@result"`
	}{"variable", v.Raw, v.Resolved})
}

func (f FormulaRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string   `json:"@type"`
		Value  string   `json:"@value"`
		Result *float64 `json:"@result"`
	}{"formula", f.Raw, f.Resolved})
}

func (c Comment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"@type"`
		Value string `json:"@value"`
	}{"comment", c.Text})
}

// DecodeDocument reads a JSON document produced by this package, preserving
// key order and restoring envelope nodes.
func DecodeDocument(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case json.Delim('{'):
			return decodeBlock(dec)
		case json.Delim('['):
			return decodeList(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return Str(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		if !strings.ContainsAny(t.String(), ".eE") {
			if i, err := t.Int64(); err == nil {
				return Int(i), nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func decodeBlock(dec *json.Decoder) (Value, error) {
	block := NewBlock()
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(json.Delim); ok && delim == json.Delim('}') {
			return fromEnvelope(block), nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		block.Set(key, value)
	}
}

func decodeList(dec *json.Decoder) (Value, error) {
	list := NewList()
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(json.Delim); ok && delim == json.Delim(']') {
			return list, nil
		}
		value, err := decodeToken(dec, tok)
		if err != nil {
			return nil, err
		}
		list.Append(value)
	}
}

// fromEnvelope turns decoded `@operator`/`@type` objects back into their
// dedicated node types; plain objects pass through unchanged.
func fromEnvelope(block *Block) Value {
	if opv, ok := block.Get("@operator"); ok {
		op, _ := opv.(Str)
		value, _ := block.Get("@value")
		return Operator{Op: string(op), Value: value}
	}

	kindValue, ok := block.Get("@type")
	if !ok {
		return block
	}
	kind, _ := kindValue.(Str)
	rawValue, _ := block.Get("@value")
	raw, _ := rawValue.(Str)

	switch string(kind) {
	case "variable":
		resolved, _ := block.Get("@result")
		return VarRef{Raw: string(raw), Resolved: resolved}
	case "formula":
		result, _ := block.Get("@result")
		var resolved *float64
		switch r := result.(type) {
		case Int:
			f := float64(r)
			resolved = &f
		case Float:
			f := float64(r)
			resolved = &f
		}
		return FormulaRef{Raw: string(raw), Resolved: resolved}
	case "comment":
		return Comment{Text: string(raw)}
	}
	return block
}
