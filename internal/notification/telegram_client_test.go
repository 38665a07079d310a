package notification_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-timeoff/internal/notification"

	"github.com/stretchr/testify/assert"
)

func TestTelegramClient_SendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "-100123", body["chat_id"])
		assert.Equal(t, "hello", body["text"])

		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":42}}`))
	}))
	defer srv.Close()

	c := notification.NewTelegramClient(srv.URL, "TOKEN", time.Second)
	id, err := c.SendMessage(context.Background(), "-100123", "hello")

	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTelegramClient_EditMessageText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/editMessageText", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(42), body["message_id"])
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	defer srv.Close()

	c := notification.NewTelegramClient(srv.URL, "TOKEN", time.Second)
	assert.NoError(t, c.EditMessageText(context.Background(), "-100123", 42, "updated"))
}

func TestTelegramClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: message to edit not found"}`))
	}))
	defer srv.Close()

	c := notification.NewTelegramClient(srv.URL, "TOKEN", time.Second)
	err := c.EditMessageText(context.Background(), "-100123", 1, "x")

	assert.ErrorContains(t, err, "message to edit not found")
}

func TestTelegramClient_NonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	c := notification.NewTelegramClient(srv.URL, "TOKEN", time.Second)
	_, err := c.SendMessage(context.Background(), "1", "x")

	assert.ErrorContains(t, err, "api error 502")
}
