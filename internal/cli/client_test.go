package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCreateRoom(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(CreateResult{
			Room:         Room{ID: "1234", Stage: "waiting"},
			SessionToken: "sess_host",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	factor := 40
	result, err := client.CreateRoom(&factor)
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/rooms", gotPath)
	assert.Empty(t, gotAuth)
	assert.Equal(t, 40, gotBody["shuffle_factor"])
	assert.Equal(t, "1234", result.Room.ID)
	assert.Equal(t, "sess_host", result.SessionToken)
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(Room{ID: "1234", Stage: "preflop"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sess_abc")
	room, err := client.Advance("1234")
	require.NoError(t, err)

	assert.Equal(t, "Bearer sess_abc", gotAuth)
	assert.Equal(t, "preflop", room.Stage)
}

func TestClientDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorResponse{
			Error: APIError{Code: "ROOM_NOT_FOUND", Message: "room not found"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sess_abc")
	_, err := client.GetRoomState("0000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROOM_NOT_FOUND")
	assert.Contains(t, err.Error(), "room not found")
}

func TestClientRoutesSeatActions(t *testing.T) {
	var paths []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/api/v1/rooms/1234/leave":
			w.WriteHeader(http.StatusNoContent)
		default:
			_ = json.NewEncoder(w).Encode(Player{ID: "p1", Name: "Alice"})
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sess_abc")
	_, err := client.Fold("1234")
	require.NoError(t, err)
	_, err = client.Reveal("1234")
	require.NoError(t, err)
	require.NoError(t, client.Leave("1234"))

	assert.Equal(t, []string{
		"POST /api/v1/rooms/1234/fold",
		"POST /api/v1/rooms/1234/reveal",
		"POST /api/v1/rooms/1234/leave",
	}, paths)
}
