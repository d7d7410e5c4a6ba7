package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aical/internal/llm"
)

// fakeCompleter replays scripted replies and counts calls. When the script
// runs out the last step repeats.
type fakeCompleter struct {
	steps []fakeStep
	calls int
	last  []llm.Message
}

type fakeStep struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(_ context.Context, messages []llm.Message) (string, error) {
	step := f.steps[min(f.calls, len(f.steps)-1)]
	f.calls++
	f.last = messages
	return step.reply, step.err
}

func newTestClient(completer Completer, maxRetries int) *Client {
	return NewClient(nil, completer, ClientConfig{MaxRetries: maxRetries})
}

var testToday = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

func TestClient_Success(t *testing.T) {
	fake := &fakeCompleter{steps: []fakeStep{{reply: `{"summary":"Sync","start_time":"2026-10-18 14:00"}`}}}
	c := newTestClient(fake, 3)

	result, err := c.Extract(context.Background(), "sync tomorrow at 2pm", testToday)
	require.NoError(t, err)
	assert.Equal(t, "Sync", result["summary"])
	assert.Equal(t, 1, fake.calls)

	require.Len(t, fake.last, 2)
	assert.Equal(t, "system", fake.last[0].Role)
	assert.Contains(t, fake.last[0].Content, "Today's date is 2026-10-17")
	assert.Equal(t, "user", fake.last[1].Role)
	assert.Equal(t, "sync tomorrow at 2pm", fake.last[1].Content)
}

func TestClient_MalformedEveryAttempt(t *testing.T) {
	fake := &fakeCompleter{steps: []fakeStep{{reply: "Sure! The meeting is tomorrow."}}}
	c := newTestClient(fake, 3)

	_, err := c.Extract(context.Background(), "meeting tomorrow", testToday)
	require.Error(t, err)
	assert.Equal(t, 4, fake.calls)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.ErrorIs(t, err, ErrMalformedJSON)

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, 4, extErr.Attempts)
	assert.Equal(t, FailureMalformedJSON, extErr.Kind)
}

func TestClient_TransportEveryAttempt(t *testing.T) {
	boom := errors.New("connection reset")
	fake := &fakeCompleter{steps: []fakeStep{{err: boom}}}
	c := newTestClient(fake, 2)

	_, err := c.Extract(context.Background(), "meeting tomorrow", testToday)
	require.Error(t, err)
	assert.Equal(t, 3, fake.calls)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, boom)
}

func TestClient_RecoversAfterFailures(t *testing.T) {
	fake := &fakeCompleter{steps: []fakeStep{
		{err: errors.New("timeout")},
		{reply: "not json"},
		{reply: "```json\n{\"summary\":\"Sync\",\"start_time\":\"2026-10-18 14:00\"}\n```"},
	}}
	c := newTestClient(fake, 3)

	var waits []time.Duration
	c.config.Backoff = time.Second
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	out := c.Run(context.Background(), []llm.Message{llm.UserMessage("x")})
	require.True(t, out.OK())
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, "Sync", out.Result["summary"])
	assert.Equal(t, []time.Duration{time.Second, time.Second}, waits)
}

func TestClient_ZeroRetries(t *testing.T) {
	fake := &fakeCompleter{steps: []fakeStep{{reply: "[]"}}}
	c := newTestClient(fake, 0)

	out := c.Run(context.Background(), nil)
	assert.False(t, out.OK())
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, FailureMalformedJSON, out.Kind)
}

func TestClient_CanceledDuringBackoff(t *testing.T) {
	fake := &fakeCompleter{steps: []fakeStep{{reply: "nope"}}}
	c := newTestClient(fake, 3)
	c.config.Backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := c.Run(ctx, nil)
	assert.Equal(t, FailureCanceled, out.Kind)
	assert.Equal(t, 1, fake.calls)
	assert.ErrorIs(t, out.Err, context.Canceled)
}

func TestClient_HolidayOverride(t *testing.T) {
	fake := &fakeCompleter{steps: []fakeStep{{reply: `{}`}}}
	c := NewClient(nil, fake, ClientConfig{Holidays: &HolidayTable{
		Year:     2030,
		Holidays: []Holiday{{Name: "Founders Day", Start: "2030-03-01", End: "2030-03-02"}},
	}})

	_, err := c.Extract(context.Background(), "x", testToday)
	require.NoError(t, err)
	assert.Contains(t, fake.last[0].Content, "Founders Day：2030-03-01 至 2030-03-02，共2天")
	assert.NotContains(t, fake.last[0].Content, "国庆节")
}

func TestDecodeObject(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "object", content: `{"a":1}`},
		{name: "padded", content: "  \n{\"a\":1}\n "},
		{name: "fenced", content: "```json\n{\"a\":1}\n```"},
		{name: "bare fence", content: "```\n{\"a\":1}\n```"},
		{name: "upper case tag", content: "```JSON\n{\"a\":1}\n```"},
		{name: "other tag crlf", content: "```javascript\r\n{\"a\":1}\r\n```"},
		{name: "single line fence", content: "```JSON{\"a\":1}```"},
		{name: "empty", content: "", wantErr: true},
		{name: "prose", content: "here you go", wantErr: true},
		{name: "array", content: `[{"a":1}]`, wantErr: true},
		{name: "null", content: "null", wantErr: true},
		{name: "trailing text", content: `{"a":1} thanks`, wantErr: true},
		{name: "two objects", content: `{"a":1}{"b":2}`, wantErr: true},
		{name: "truncated", content: `{"a":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeObject(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, got, "a")
		})
	}
}

func TestFailureKind_String(t *testing.T) {
	assert.Equal(t, "transport", FailureTransport.String())
	assert.Equal(t, "malformed_json", FailureMalformedJSON.String())
	assert.Equal(t, "FailureKind(9)", FailureKind(9).String())
}
