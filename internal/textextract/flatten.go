// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package textextract

import "strings"

// Flatten decodes raw payload bytes and returns their flattened text.
func Flatten(raw []byte) string {
	return flatten(Decode(raw), 0)
}

// FlattenString flattens a payload delivered as a Go string.
func FlattenString(s string) string {
	return flatten(decodeString(s, 0), 0)
}

// FlattenValue flattens an already-unmarshaled value.
func FlattenValue(v interface{}) string {
	return flatten(decodeValue(v, 0), 0)
}

// FlattenNode flattens a decoded node.
func FlattenNode(n Node) string {
	return flatten(n, 0)
}

func flatten(n Node, depth int) string {
	var b strings.Builder
	writeNode(&b, n, depth)
	return b.String()
}

func writeNode(b *strings.Builder, n Node, depth int) {
	if depth > MaxDepth {
		return
	}

	switch node := n.(type) {
	case nil:
	case PlainText:
		b.WriteString(string(node))
	case StringNode:
		b.WriteString(node.Value)
	case List:
		for _, child := range node {
			writeNode(b, child, depth+1)
		}
	case *Compound:
		if node == nil {
			return
		}
		own := flatten(node.Text, depth+1)
		if own == "" {
			own = node.Translate
		}
		b.WriteString(own)
		for _, child := range node.Extra {
			writeNode(b, child, depth+1)
		}
		for _, child := range node.With {
			writeNode(b, child, depth+1)
		}
	}
}
