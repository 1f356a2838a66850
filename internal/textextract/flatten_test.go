// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package textextract

import (
	"strings"
	"testing"
)

func TestFlatten(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"text with extra", `{"text":"A","extra":[{"text":"B"}]}`, "AB"},
		{"double encoded string", `"\"hello\""`, "hello"},
		{"plain json string", `"hello"`, "hello"},
		{"not json at all", `Position in queue: 12`, "Position in queue: 12"},
		{"empty", ``, ""},
		{"null", `null`, ""},
		{"number", `42`, "42"},
		{"array of components", `[{"text":"a"},"b",{"text":"c"}]`, "abc"},
		{"translate fallback", `{"translate":"multiplayer.disconnect.kicked"}`, "multiplayer.disconnect.kicked"},
		{"text wins over translate", `{"text":"X","translate":"ignored.key"}`, "X"},
		{"empty text falls back to translate", `{"text":"","translate":"k"}`, "k"},
		{"with after extra", `{"translate":"T","with":[{"text":"W"}],"extra":[{"text":"E"}]}`, "TEW"},
		{"nested extra", `{"text":"1","extra":[{"text":"2","extra":[{"text":"3"}]},"4"]}`, "1234"},
		{"extra as single object", `{"text":"a","extra":{"text":"b"}}`, "ab"},
		{"empty key text", `{"":"queue","extra":[{"":"d"}]}`, "queued"},
		{"json encoded component in extra", `{"text":"a","extra":["{\"text\":\"b\"}"]}`, "ab"},
		{"unknown object", `{"color":"gold","bold":true}`, ""},
		{
			"tagged compound",
			`{"type":"compound","value":{"text":{"type":"string","value":"Position in queue: "},` +
				`"extra":{"type":"list","value":{"type":"compound","value":[{"text":{"type":"string","value":"7"}}]}}}}`,
			"Position in queue: 7",
		},
		{"tagged string", `{"type":"string","value":"Connected to the server."}`, "Connected to the server."},
		{"kind discriminator", `{"kind":"list","value":[{"kind":"string","value":"x"},{"kind":"string","value":"y"}]}`, "xy"},
		{"tagged list of strings", `{"type":"list","value":{"type":"string","value":["p","q"]}}`, "pq"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Flatten([]byte(tt.raw)); got != tt.want {
				t.Errorf("Flatten(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFlattenString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"malformed json returned unchanged", `{"text":"broken`, `{"text":"broken`},
		{"malformed array returned unchanged", `[1, 2`, `[1, 2`},
		{"json encoded hello", `"hello"`, "hello"},
		{"literal", "hello", "hello"},
		{"numeric literal kept", "42", "42"},
		{"boolean literal kept", "true", "true"},
		{"component", `{"text":"A","extra":[{"text":"B"}]}`, "AB"},
		{"whitespace", "   ", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FlattenString(tt.in); got != tt.want {
				t.Errorf("FlattenString(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFlattenValue(t *testing.T) {
	t.Parallel()

	v := map[string]interface{}{
		"text":  "Position in queue: ",
		"extra": []interface{}{map[string]interface{}{"text": "88"}},
	}
	if got := FlattenValue(v); got != "Position in queue: 88" {
		t.Errorf("FlattenValue() = %q", got)
	}
	if got := FlattenValue(nil); got != "" {
		t.Errorf("FlattenValue(nil) = %q, want empty", got)
	}
	if got := FlattenValue(struct{}{}); got != "" {
		t.Errorf("FlattenValue(struct) = %q, want empty", got)
	}
}

func TestFlatten_DepthLimit(t *testing.T) {
	t.Parallel()

	depth := MaxDepth * 4
	raw := strings.Repeat(`{"text":"x","extra":[`, depth) + `{"text":"leaf"}` + strings.Repeat(`]}`, depth)

	got := Flatten([]byte(raw))
	if strings.Contains(got, "leaf") {
		t.Error("expected nodes beyond the depth limit to be dropped")
	}
	if !strings.HasPrefix(got, "xxx") {
		t.Errorf("expected shallow text to survive, got %q", got)
	}
}

func TestFlatten_DeeplyEncodedString(t *testing.T) {
	t.Parallel()

	s := "core"
	for i := 0; i < MaxDepth*2; i++ {
		s = `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
		if len(s) > 1<<20 {
			break
		}
	}
	// Must terminate without panicking; the exact text is unspecified.
	_ = FlattenString(s)
}

func FuzzFlatten(f *testing.F) {
	f.Add([]byte(`{"text":"A","extra":[{"text":"B"}]}`))
	f.Add([]byte(`"\"hello\""`))
	f.Add([]byte(`{"type":"list","value":{"type":"compound","value":[{}]}}`))
	f.Add([]byte(`[[[[[[`))
	f.Fuzz(func(t *testing.T, raw []byte) {
		_ = Flatten(raw)
	})
}
