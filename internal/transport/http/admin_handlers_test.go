package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-unix/internal/core"
	"github.com/vovakirdan/wirechat-unix/internal/store"
	"github.com/vovakirdan/wirechat-unix/internal/store/sqlite"
)

type fakeInspector struct {
	infos []core.ClientInfo
	err   error
}

func (f fakeInspector) Snapshot(context.Context) ([]core.ClientInfo, error) {
	return f.infos, f.err
}

func newTestServer(t *testing.T, inspector Inspector, sessions store.SessionStore) *httptest.Server {
	t.Helper()

	disabledLogger := zerolog.New(nil)
	ts := httptest.NewServer(NewRouter(inspector, sessions, &disabledLogger))
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, wantStatus, resp.StatusCode)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

var testClients = []core.ClientInfo{
	{Identity: 0, Session: "s0", Nickname: "alice", Room: 7, Mode: core.ModeLegacy},
	{Identity: 1, Session: "s1", Nickname: "Client 1", Room: core.NoRoom},
	{Identity: 3, Session: "s3", Nickname: "bob", Room: 7, Mode: core.ModeLegacy},
	{Identity: 4, Session: "s4", Nickname: "carol", Room: 2, Mode: core.ModeLegacy},
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, fakeInspector{}, nil)

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListClients(t *testing.T) {
	ts := newTestServer(t, fakeInspector{infos: testClients}, nil)

	var clients []ClientResponse
	getJSON(t, ts.URL+"/clients", http.StatusOK, &clients)

	require.Len(t, clients, 4)
	require.Equal(t, "alice", clients[0].Nickname)
	require.NotNil(t, clients[0].Room)
	require.Equal(t, 7, *clients[0].Room)
	require.Equal(t, "legacy", clients[0].Mode)
	require.Nil(t, clients[1].Room)
	require.Equal(t, "undecided", clients[1].Mode)
}

func TestListRoomsDerivesMembership(t *testing.T) {
	ts := newTestServer(t, fakeInspector{infos: testClients}, nil)

	var rooms []RoomResponse
	getJSON(t, ts.URL+"/rooms", http.StatusOK, &rooms)

	require.Equal(t, []RoomResponse{
		{ID: 2, Members: []string{"carol"}},
		{ID: 7, Members: []string{"alice", "bob"}},
	}, rooms)
}

func TestSnapshotFailureIsUnavailable(t *testing.T) {
	ts := newTestServer(t, fakeInspector{err: errors.New("stopped")}, nil)

	getJSON(t, ts.URL+"/clients", http.StatusServiceUnavailable, nil)
	getJSON(t, ts.URL+"/rooms", http.StatusServiceUnavailable, nil)
}

func TestListSessions(t *testing.T) {
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	base := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, st.OpenSession(ctx, store.Session{ID: id, Identity: i, Nickname: id, OpenedAt: base.Add(time.Duration(i) * time.Minute)}))
	}
	require.NoError(t, st.CloseSession(ctx, "a", "alice", string(core.ReasonQuit), base.Add(time.Hour)))

	ts := newTestServer(t, fakeInspector{}, st)

	var sessions []SessionResponse
	getJSON(t, ts.URL+"/sessions?limit=2", http.StatusOK, &sessions)
	require.Len(t, sessions, 2)
	require.Equal(t, "c", sessions[0].ID)
	require.Nil(t, sessions[0].ClosedAt)

	var all []SessionResponse
	getJSON(t, ts.URL+"/sessions", http.StatusOK, &all)
	require.Len(t, all, 3)
	require.Equal(t, "alice", all[2].Nickname)
	require.Equal(t, "quit", all[2].CloseReason)
	require.NotNil(t, all[2].ClosedAt)

	getJSON(t, ts.URL+"/sessions?limit=zero", http.StatusBadRequest, nil)
}

func TestListSessionsWithoutJournal(t *testing.T) {
	ts := newTestServer(t, fakeInspector{}, nil)

	var sessions []SessionResponse
	getJSON(t, ts.URL+"/sessions", http.StatusOK, &sessions)
	require.Empty(t, sessions)
}
