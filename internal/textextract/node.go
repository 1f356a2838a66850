// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package textextract

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// MaxDepth bounds payload nesting. Children below this depth are ignored.
const MaxDepth = 64

// Node is one decoded payload value. The concrete types are PlainText,
// StringNode, List and *Compound; a nil Node flattens to "".
type Node interface {
	node()
}

// PlainText is literal text.
type PlainText string

// StringNode is a tagged string node.
type StringNode struct {
	Value string
}

// List is an ordered sequence of nodes.
type List []Node

// Compound is a chat component: own text, a translate key, and children.
type Compound struct {
	Text      Node
	Translate string
	Extra     []Node
	With      []Node
}

func (PlainText) node()  {}
func (StringNode) node() {}
func (List) node()       {}
func (*Compound) node()  {}

// Decode parses raw payload bytes. Bytes that are not valid JSON are treated
// as literal text.
func Decode(raw []byte) Node {
	if len(raw) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return PlainText(raw)
	}
	return decodeValue(v, 0)
}

// DecodeValue converts an already-unmarshaled value.
func DecodeValue(v interface{}) Node {
	return decodeValue(v, 0)
}

func decodeValue(v interface{}, depth int) Node {
	if depth > MaxDepth {
		return nil
	}

	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return decodeString(val, depth)
	case []interface{}:
		return decodeList(val, depth)
	case map[string]interface{}:
		if kind, ok := tagOf(val); ok {
			return decodeTagged(kind, val["value"], depth)
		}
		return decodeCompound(val, depth)
	case bool:
		return PlainText(strconv.FormatBool(val))
	case float64:
		return PlainText(strconv.FormatFloat(val, 'f', -1, 64))
	case json.Number:
		return PlainText(val.String())
	default:
		return nil
	}
}

// decodeString tries the string as a JSON document first. Only documents
// that carry text (strings, objects, arrays) replace the literal; "42" or
// "true" stay as written.
func decodeString(s string, depth int) Node {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return PlainText(s)
	}
	switch trimmed[0] {
	case '"', '{', '[':
	default:
		return PlainText(s)
	}

	var inner interface{}
	if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
		return PlainText(s)
	}
	switch inner.(type) {
	case string, map[string]interface{}, []interface{}:
		return decodeValue(inner, depth+1)
	default:
		return PlainText(s)
	}
}

func decodeList(items []interface{}, depth int) Node {
	out := make(List, 0, len(items))
	for _, item := range items {
		if n := decodeValue(item, depth+1); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// tagOf reports the discriminator of a tagged node. Both "type" and "kind"
// are accepted; the map must also carry a "value" entry.
func tagOf(m map[string]interface{}) (string, bool) {
	if _, ok := m["value"]; !ok {
		return "", false
	}
	for _, key := range []string{"type", "kind"} {
		if kind, ok := m[key].(string); ok {
			switch kind {
			case "compound", "list", "string":
				return kind, true
			}
		}
	}
	return "", false
}

func decodeTagged(kind string, value interface{}, depth int) Node {
	switch kind {
	case "string":
		s, _ := value.(string)
		return StringNode{Value: s}
	case "list":
		// Lists carry their element type one level down:
		// {"type":"list","value":{"type":"compound","value":[...]}}.
		if wrapped, ok := value.(map[string]interface{}); ok {
			value = wrapped["value"]
		}
		items, ok := value.([]interface{})
		if !ok {
			return decodeValue(value, depth+1)
		}
		return decodeList(items, depth)
	default:
		fields, ok := value.(map[string]interface{})
		if !ok {
			return decodeValue(value, depth+1)
		}
		return decodeCompound(fields, depth)
	}
}

func decodeCompound(fields map[string]interface{}, depth int) Node {
	c := &Compound{}

	if text, ok := fields["text"]; ok {
		c.Text = decodeValue(text, depth+1)
	} else if text, ok := fields[""]; ok {
		c.Text = decodeValue(text, depth+1)
	}

	if tr, ok := fields["translate"]; ok {
		c.Translate = flatten(decodeValue(tr, depth+1), depth+1)
	}

	c.Extra = children(fields["extra"], depth)
	c.With = children(fields["with"], depth)
	return c
}

// children normalizes an extra/with value: a list contributes its items, any
// other value contributes itself.
func children(v interface{}, depth int) []Node {
	if v == nil {
		return nil
	}
	n := decodeValue(v, depth+1)
	switch nv := n.(type) {
	case nil:
		return nil
	case List:
		return nv
	default:
		return []Node{n}
	}
}
