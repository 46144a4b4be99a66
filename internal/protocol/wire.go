package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// wireCommand is the JSON object carried over the pub/sub channel:
//
//	{ "type": "SIMPLE", "duration": 10000 }
//	{ "type": "PATTERN", "pattern": [500, 200, 500], "name": "Heartbeat" }
//	{ "type": "STOP" }
//
// Pointer fields let Decode tell an absent field from a zero one.
type wireCommand struct {
	Type     Kind    `json:"type"`
	Duration *int    `json:"duration,omitempty"`
	Pattern  *[]int  `json:"pattern,omitempty"`
	Name     *string `json:"name,omitempty"`
}

var wireFields = []string{"type", "duration", "pattern", "name"}

// checkFieldNames refuses keys that only match a wire field
// case-insensitively, which encoding/json would otherwise accept.
func checkFieldNames(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for key := range fields {
		for _, f := range wireFields {
			if key != f && strings.EqualFold(key, f) {
				return fmt.Errorf("%w: field %q must be spelled %q", ErrMalformed, key, f)
			}
		}
	}
	return nil
}

// Encode validates cmd and renders its wire form.
func Encode(cmd Command) ([]byte, error) {
	if cmd == nil {
		return nil, fmt.Errorf("%w: nil command", ErrInvalidCommand)
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	w := wireCommand{Type: cmd.Kind()}
	switch c := cmd.(type) {
	case Simple:
		d := c.DurationMs
		w.Duration = &d
	case Pattern:
		iv := append([]int(nil), c.IntervalsMs...)
		w.Pattern = &iv
		if c.Label != "" {
			label := c.Label
			w.Name = &label
		}
	case Stop:
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, cmd)
	}
	return json.Marshal(w)
}

// Decode parses and validates one wire message. Any payload that does not
// describe exactly one valid variant is rejected.
func Decode(data []byte) (Command, error) {
	if err := checkFieldNames(data); err != nil {
		return nil, err
	}
	var w wireCommand
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var cmd Command
	switch w.Type {
	case KindSimple:
		if w.Duration == nil || w.Pattern != nil || w.Name != nil {
			return nil, fmt.Errorf("%w: SIMPLE needs duration and nothing else", ErrMalformed)
		}
		cmd = Simple{DurationMs: *w.Duration}
	case KindPattern:
		if w.Pattern == nil || w.Duration != nil {
			return nil, fmt.Errorf("%w: PATTERN needs pattern and nothing else", ErrMalformed)
		}
		p := Pattern{IntervalsMs: *w.Pattern}
		if w.Name != nil {
			p.Label = *w.Name
		}
		cmd = p
	case KindStop:
		if w.Duration != nil || w.Pattern != nil || w.Name != nil {
			return nil, fmt.Errorf("%w: STOP carries no payload", ErrMalformed)
		}
		cmd = Stop{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, w.Type)
	}

	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return cmd, nil
}
