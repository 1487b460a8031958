package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionBody(content string) string {
	raw, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(raw)
}

func TestChatReturnsAssistantContent(t *testing.T) {
	var gotAuth, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel, _ = req["model"].(string)
		fmt.Fprint(w, completionBody("[]"))
	}))
	defer srv.Close()

	client, err := New("decision", Config{APIURL: srv.URL, APIKey: "sk-test", Model: "deepseek-chat"})
	require.NoError(t, err)

	reply, err := client.Chat(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "[]", reply)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "deepseek-chat", gotModel)
}

func TestChatRetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream overloaded", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, completionBody("recovered"))
	}))
	defer srv.Close()

	client, err := New("decision", Config{APIURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	reply, err := client.Chat(context.Background(), "", "user")
	require.NoError(t, err)
	assert.Equal(t, "recovered", reply)
	assert.Equal(t, int32(3), calls.Load())
}

func TestChatDoesNotRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := New("decision", Config{APIURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), "", "user")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestChatEmptyCompletionFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionBody("  "))
	}))
	defer srv.Close()

	client, err := New("decision", Config{APIURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), "", "user")
	require.Error(t, err)
}

func TestNewRequiresURLAndModel(t *testing.T) {
	_, err := New("x", Config{Model: "m"})
	require.Error(t, err)
	_, err = New("x", Config{APIURL: "https://api.example.com"})
	require.Error(t, err)
}
