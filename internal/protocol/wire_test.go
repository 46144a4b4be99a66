package protocol

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecode_ValidMessages(t *testing.T) {
	cmd, err := Decode([]byte(`{"type":"SIMPLE","duration":10000}`))
	require.NoError(t, err)
	require.Equal(t, Simple{DurationMs: 10000}, cmd)

	cmd, err = Decode([]byte(`{"type":"PATTERN","pattern":[500,200,500],"name":"Heartbeat"}`))
	require.NoError(t, err)
	require.Equal(t, Pattern{IntervalsMs: []int{500, 200, 500}, Label: "Heartbeat"}, cmd)

	cmd, err = Decode([]byte(`{"type":"PATTERN","pattern":[40]}`))
	require.NoError(t, err)
	require.Equal(t, "", cmd.(Pattern).Label)

	cmd, err = Decode([]byte(`{"type":"STOP"}`))
	require.NoError(t, err)
	require.Equal(t, Stop{}, cmd)
}

func TestDecode_RejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty pattern":          `{"type":"PATTERN","pattern":[]}`,
		"non-positive intervals": `{"type":"PATTERN","pattern":[0,-5]}`,
		"missing pattern":        `{"type":"PATTERN","name":"x"}`,
		"missing duration":       `{"type":"SIMPLE"}`,
		"zero duration":          `{"type":"SIMPLE","duration":0}`,
		"fractional duration":    `{"type":"SIMPLE","duration":1.5}`,
		"ambiguous simple":       `{"type":"SIMPLE","duration":100,"pattern":[1]}`,
		"stop with payload":      `{"type":"STOP","duration":100}`,
		"named simple":           `{"type":"SIMPLE","duration":100,"name":"x"}`,
		"named stop":             `{"type":"STOP","name":"x"}`,
		"upper-case key":         `{"TYPE":"STOP"}`,
		"mixed-case duration":    `{"type":"SIMPLE","Duration":100}`,
		"shadowed type":          `{"type":"STOP","Type":"SIMPLE","duration":5}`,
		"oversized duration":     `{"type":"SIMPLE","duration":9300000000000}`,
		"duration past one day":  `{"type":"SIMPLE","duration":86400001}`,
		"wrapping pattern":       `{"type":"PATTERN","pattern":[9223372036854775807,1]}`,
		"pattern past one day":   `{"type":"PATTERN","pattern":[86400000,1]}`,
		"not json":               `buzz`,
		"array":                  `[1,2,3]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			cmd, err := Decode([]byte(raw))
			require.Nil(t, cmd)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"SHAKE","duration":10}`))
	require.ErrorIs(t, err, ErrUnknownType)

	_, err = Decode([]byte(`{}`))
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestEncode_WireShape(t *testing.T) {
	data, err := Encode(Simple{DurationMs: 30000})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"SIMPLE","duration":30000}`, string(data))

	data, err = Encode(Pattern{IntervalsMs: []int{100, 50}})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"PATTERN","pattern":[100,50]}`, string(data))

	data, err = Encode(Pattern{IntervalsMs: []int{100}, Label: "Rain"})
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "Rain", raw["name"])

	data, err = Encode(Stop{})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"STOP"}`, string(data))
}

func TestEncode_RefusesInvalid(t *testing.T) {
	_, err := Encode(Simple{DurationMs: -1})
	require.True(t, errors.Is(err, ErrInvalidCommand))

	_, err = Encode(Pattern{})
	require.ErrorIs(t, err, ErrInvalidCommand)

	_, err = Encode(nil)
	require.ErrorIs(t, err, ErrInvalidCommand)
}

func TestValidate_DurationBound(t *testing.T) {
	require.NoError(t, Simple{DurationMs: MaxDurationMs}.Validate())
	require.ErrorIs(t, Simple{DurationMs: MaxDurationMs + 1}.Validate(), ErrInvalidCommand)

	require.NoError(t, Pattern{IntervalsMs: []int{MaxDurationMs - 1, 1}}.Validate())
	require.ErrorIs(t, Pattern{IntervalsMs: []int{MaxDurationMs, 1}}.Validate(), ErrInvalidCommand)

	_, err := NewSimple(1000 * time.Hour)
	require.ErrorIs(t, err, ErrInvalidCommand)
}

func TestPatternTotal(t *testing.T) {
	p := Pattern{IntervalsMs: []int{500, 200, 500, 200, 500}}
	require.Equal(t, 1900*time.Millisecond, p.Total())
}

func TestNewPattern_CopiesIntervals(t *testing.T) {
	iv := []int{100, 100}
	p, err := NewPattern(iv, "x")
	require.NoError(t, err)
	iv[0] = -1
	require.Equal(t, 100, p.IntervalsMs[0])
}
