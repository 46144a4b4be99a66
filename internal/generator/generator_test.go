package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/vibesync/internal/config"
	"github.com/xpanvictor/vibesync/internal/protocol"
	"github.com/xpanvictor/vibesync/pkg/Logger"
)

func TestParsePattern(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []int
	}{
		{"object", `{"pattern":[200,100,200]}`, []int{200, 100, 200}},
		{"bare array", `[300, 150]`, []int{300, 150}},
		{"fenced", "```json\n{\"pattern\": [500, 50]}\n```", []int{500, 50}},
		{"padded", "  \n{\"pattern\":[60]}\n", []int{60}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePattern(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParsePattern_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":        "   ",
		"prose":        "Here is a nice heartbeat pattern!",
		"empty list":   `{"pattern":[]}`,
		"missing key":  `{"intervals":[100]}`,
		"non-positive": `[100, 0, 100]`,
		"negative":     `{"pattern":[100,-20]}`,
		"fractional":   `[100.5, 20]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePattern(raw)
			require.Error(t, err)
		})
	}
}

func TestBuildPrompt_CarriesConstraints(t *testing.T) {
	p := BuildPrompt("rain on a window")
	assert.Contains(t, p, `"rain on a window"`)
	assert.Contains(t, p, `{"pattern"`)
	assert.Contains(t, p, "between 50 and 1000")
	assert.Contains(t, p, "about 10 seconds")
}

func newTestLLM(fn func(ctx context.Context, prompt string) (string, error), timeout time.Duration) *LLM {
	return NewLLM(BackendFunc{Label: "test", Fn: fn}, timeout, Logger.NewNop(), nil)
}

func TestLLM_ReturnsParsedPattern(t *testing.T) {
	var seen string
	g := newTestLLM(func(_ context.Context, prompt string) (string, error) {
		seen = prompt
		return `{"pattern":[400,100,400]}`, nil
	}, time.Second)

	require.Equal(t, []int{400, 100, 400}, g.Generate(context.Background(), "heartbeat"))
	require.Contains(t, seen, "heartbeat")
}

func TestLLM_FallsBackOnFailure(t *testing.T) {
	cases := map[string]func(context.Context, string) (string, error){
		"backend error": func(context.Context, string) (string, error) {
			return "", errors.New("quota exceeded")
		},
		"garbage": func(context.Context, string) (string, error) {
			return "sorry, I can't do that", nil
		},
		"invalid intervals": func(context.Context, string) (string, error) {
			return `{"pattern":[0,-5]}`, nil
		},
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			got := newTestLLM(fn, time.Second).Generate(context.Background(), "anything")
			require.Equal(t, protocol.FallbackPattern(), got)
			require.NoError(t, protocol.Pattern{IntervalsMs: got}.Validate())
		})
	}
}

func TestLLM_TimeoutFallsBack(t *testing.T) {
	g := newTestLLM(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}, 20*time.Millisecond)

	start := time.Now()
	require.Equal(t, protocol.FallbackPattern(), g.Generate(context.Background(), "slow"))
	require.Less(t, time.Since(start), time.Second)
}

func TestStatic_ReturnsDefaultCopy(t *testing.T) {
	s := NewStatic()
	first := s.Generate(context.Background(), "ignored")
	require.Equal(t, []int{1000, 200, 1000, 200, 1000}, first)

	first[0] = 1
	require.Equal(t, protocol.DefaultPattern(), s.Generate(context.Background(), "ignored"))
}

func TestFromConfig(t *testing.T) {
	s := config.Settings{Generator: config.GeneratorConfig{Kind: "static", Timeout: time.Second}}
	g, err := FromConfig(context.Background(), s, Logger.NewNop(), nil)
	require.NoError(t, err)
	require.IsType(t, &Static{}, g)

	s.Generator.Kind = "openai"
	_, err = FromConfig(context.Background(), s, Logger.NewNop(), nil)
	require.Error(t, err, "openai needs an api key")

	s.Generator.Kind = "ouija"
	_, err = FromConfig(context.Background(), s, Logger.NewNop(), nil)
	require.Error(t, err)
}
