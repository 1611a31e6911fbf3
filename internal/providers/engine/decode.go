package engine

import (
	"bytes"
	"encoding/json"
)

// Output is the decoded stdout of a first-contact run: either Structured
// or Raw.
type Output interface {
	output()
}

// Structured is a parsed JSON envelope. Token is empty when the envelope
// carried no string session_id.
type Structured struct {
	Token string
	Text  string
}

// Raw is stdout that could not be parsed; it is returned as the reply and
// no continuity token is captured.
type Raw struct {
	Text string
}

func (Structured) output() {}
func (Raw) output()        {}

type envelope struct {
	SessionID json.RawMessage `json:"session_id"`
	Result    json.RawMessage `json:"result"`
	Text      json.RawMessage `json:"text"`
}

// Decode parses the JSON envelope printed by the engine in structured
// output mode. raw must already be trimmed.
func Decode(raw string) Output {
	data := []byte(raw)
	if isNull(data) {
		return Raw{Text: raw}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Raw{Text: raw}
	}

	text, ok := textField(env.Result)
	if !ok {
		text, ok = textField(env.Text)
	}
	if !ok {
		text = raw
	}

	token, _ := stringField(env.SessionID)
	return Structured{Token: token, Text: text}
}

// textField renders a present field as text: strings as-is, any other JSON
// value re-encoded compactly.
func textField(field json.RawMessage) (string, bool) {
	if isNull(field) {
		return "", false
	}
	if s, ok := stringField(field); ok {
		return s, true
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, field); err != nil {
		return string(field), true
	}
	return buf.String(), true
}

func stringField(field json.RawMessage) (string, bool) {
	if isNull(field) || field[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(field, &s); err != nil {
		return "", false
	}
	return s, true
}

func isNull(data []byte) bool {
	return len(data) == 0 || string(data) == "null"
}
