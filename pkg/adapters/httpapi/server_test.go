package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-dev/parley"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	engine, err := parley.New(nil)
	require.NoError(t, err)
	srv := httptest.NewServer(NewHandler(engine, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createConversation(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/conversations", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[map[string]string](t, resp)
	require.NotEmpty(t, created["conversationId"])
	return created["conversationId"]
}

func TestConversationLifecycle(t *testing.T) {
	srv := newTestServer(t)
	id := createConversation(t, srv)

	// The new conversation shows up in the listing.
	resp, err := http.Get(srv.URL + "/conversations")
	require.NoError(t, err)
	ids := decode[[]string](t, resp)
	assert.Contains(t, ids, id)

	// A turn with a task intent starts collecting the first slot.
	resp = postJSON(t, srv.URL+"/conversations/"+id+"/turns", map[string]string{
		"utterance": "I need to request some time off",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	turn := decode[struct {
		Action string `json:"action"`
		Result struct {
			Task string `json:"task"`
			Slot string `json:"slot"`
		} `json:"result"`
	}](t, resp)
	assert.Equal(t, "ask_slot", turn.Action)
	assert.Equal(t, "request_time_off", turn.Result.Task)
	assert.Equal(t, "employee_name", turn.Result.Slot)

	// The persisted state reflects the turn.
	resp, err = http.Get(srv.URL + "/conversations/" + id)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[struct {
		Phase      string `json:"phase"`
		ActiveTask string `json:"activeTask"`
	}](t, resp)
	assert.Equal(t, "COLLECTING_SLOT", state.Phase)
	assert.Equal(t, "request_time_off", state.ActiveTask)

	// Ending terminates but keeps the conversation loadable.
	resp = postJSON(t, srv.URL+"/conversations/"+id+"/end", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/conversations/" + id)
	require.NoError(t, err)
	state = decode[struct {
		Phase      string `json:"phase"`
		ActiveTask string `json:"activeTask"`
	}](t, resp)
	assert.Equal(t, "TERMINATED", state.Phase)

	// Deletion removes it for good.
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/conversations/"+id, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/conversations/" + id)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetUnknownConversation(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/conversations/no-such-id")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTurnRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	id := createConversation(t, srv)

	resp, err := http.Post(srv.URL+"/conversations/"+id+"/turns", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListTasks(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/tasks")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	infos := decode[[]struct {
		Name  string   `json:"name"`
		Slots []string `json:"slots"`
	}](t, resp)
	require.Len(t, infos, 4)
	assert.Equal(t, "request_time_off", infos[0].Name)
	assert.Equal(t, []string{
		"employee_name", "start_date", "end_date",
		"time_off_type", "reason", "notify_manager",
	}, infos[0].Slots)
}

func TestExecuteRequiresReadyConversation(t *testing.T) {
	executed := false
	srv := newTestServer(t, WithExecutor(func(ctx context.Context, task string, slots map[string]string) error {
		executed = true
		return nil
	}))
	id := createConversation(t, srv)

	// Still at INIT; execution must be refused and the executor not called.
	resp := postJSON(t, srv.URL+"/conversations/"+id+"/execute", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.False(t, executed)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}
