package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tuskbridge/internal/service/activity"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *activity.Log) {
	t.Helper()
	act := activity.NewLog(10)
	return NewServer(context.Background(), 0, act, opts...), act
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Status(t *testing.T) {
	t.Parallel()
	s, act := newTestServer(t,
		WithVersion("0.1.0"),
		WithSessionCounter(func(context.Context) (int, error) { return 3, nil }),
	)
	act.Add(activity.Entry{Direction: activity.Inbound, Message: "hi"})

	rec := get(t, s.Handler(), "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)

	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, "0.1.0", st.Version)
	assert.Equal(t, 1, st.Entries)
	require.NotNil(t, st.Sessions)
	assert.Equal(t, 3, *st.Sessions)
}

func TestServer_StatusWithoutSessions(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, WithSessionCounter(func(context.Context) (int, error) {
		return 0, errors.New("db closed")
	}))

	rec := get(t, s.Handler(), "/dashboard/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sessions")
}

func TestServer_Logs(t *testing.T) {
	t.Parallel()
	s, act := newTestServer(t)
	act.Add(activity.Entry{Direction: activity.Inbound, ConversationID: "c", Message: "question"})
	act.Add(activity.Entry{Direction: activity.Outbound, ConversationID: "c", Message: "answer"})

	rec := get(t, s.Handler(), "/dashboard/api/logs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var entries []activity.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "question", entries[0].Message)
	assert.Equal(t, activity.Outbound, entries[1].Direction)
}

func TestServer_FaviconAndUnknown(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	assert.Equal(t, http.StatusNoContent, get(t, s.Handler(), "/favicon.ico").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/dashboard/api/other").Code)
}

func TestServer_Stream(t *testing.T) {
	t.Parallel()
	s, act := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/dashboard/api/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Headers are flushed only after the handler has subscribed.
	act.Add(activity.Entry{Direction: activity.Outbound, Message: "streamed"})

	reader := bufio.NewReader(resp.Body)
	var line string
	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			break
		}
	}

	var e activity.Entry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &e))
	assert.Equal(t, "streamed", e.Message)
	assert.Equal(t, int64(1), e.ID)
}

func TestServer_StreamEndsWhenLogCloses(t *testing.T) {
	t.Parallel()
	s, act := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/dashboard/api/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	act.Add(activity.Entry{Direction: activity.Inbound, Message: "before close"})
	act.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"message":"before close"`)
}
