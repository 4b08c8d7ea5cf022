package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetUpdates(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottok-1/getUpdates", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"message_id":1,"chat":{"id":42},"text":"/start"}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-1")
	updates, err := client.GetUpdates(context.Background(), 5)
	require.NoError(t, err)

	require.Equal(t, float64(5), got["offset"])
	require.Equal(t, float64(longPollTimeout), got["timeout"])

	require.Len(t, updates, 1)
	require.Equal(t, int64(7), updates[0].UpdateID)
	require.Equal(t, int64(42), updates[0].Message.Chat.ID)
	require.Equal(t, "/start", updates[0].Message.Text)
}

func TestGetUpdates_CancelAbortsLongPoll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hold the poll open until the client gives up. The body must be
		// drained first or the server never notices the client disconnect
		// and r.Context() is never canceled.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-1")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err := client.GetUpdates(ctx, 0)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), 5*time.Second, "cancel must abort the held poll promptly")
}

func TestGetUpdates_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-token")
	_, err := client.GetUpdates(context.Background(), 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unauthorized")
}
