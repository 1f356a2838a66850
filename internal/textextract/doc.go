// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

/*
Package textextract flattens structured chat and status payloads into plain
text and scans the result for queue signals.

Payloads arrive in several shapes: a plain string, a JSON document encoded
inside a string, a chat component object with text, translate, extra and with
children, or a tagged NBT-style node ({"type": "compound" | "list" | "string",
"value": ...}). Decode turns any of them into a Node:

	PlainText   literal text
	StringNode  a tagged string node
	List        an ordered list of child nodes
	Compound    own text, translate key, extra children, with children

Flatten walks a Node depth-first in the order own text, translate key (only
when there is no own text), each extra child, each with child. Decoding and
flattening never fail and never panic; unknown shapes yield best-effort text
and nesting deeper than MaxDepth is dropped.

Scanner applies the queue signal contract to flattened text:

	position in queue: <integer>   (case-insensitive)
	<finish marker phrase>         (configured, case-insensitive)
*/
package textextract
