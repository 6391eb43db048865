package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pathgrid/grid"
	"pathgrid/grid_world"
	"pathgrid/models"
	"pathgrid/node_pool"
	"pathgrid/search"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves the debug layout: extents 4,2,1, one start at (1,0,0) and the
// finish at (5,2,0).
func newTestServer(t *testing.T) *Server {
	t.Helper()

	g := grid.NewDynamicGrid(node_pool.New())
	grid_world.Convert(grid_world.DebugLayout, g)
	return NewServer("", g, search.Options{Heuristic: search.Manhattan})
}

func do(t *testing.T, server *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestServer_Bounds(t *testing.T) {
	server := newTestServer(t)

	rec := do(t, server, http.MethodGet, "/bounds")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, Extents{Width: 4, Length: 2, Height: 1}, decode[Extents](t, rec))

	rec = do(t, server, http.MethodPost, "/bounds")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Cells(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		expectedStatus int
		expectedCell   CellResponse
	}{
		{
			name:           "Finish is walkable",
			target:         "/cells/5/2/0",
			expectedStatus: http.StatusOK,
			expectedCell:   CellResponse{Pos: models.NewGridPos(5, 2, 0), Walkable: true},
		},
		{
			name:           "Wall is not walkable",
			target:         "/cells/0/0/0",
			expectedStatus: http.StatusOK,
			expectedCell:   CellResponse{Pos: models.NewGridPos(0, 0, 0), Walkable: false},
		},
		{
			name:           "Negative coordinates are fine",
			target:         "/cells/-3/-3/-3",
			expectedStatus: http.StatusOK,
			expectedCell:   CellResponse{Pos: models.NewGridPos(-3, -3, -3), Walkable: false},
		},
		{
			name:           "Bad coordinate",
			target:         "/cells/a/0/0",
			expectedStatus: http.StatusBadRequest,
		},
	}

	server := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, server, http.MethodGet, tt.target)
			require.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus != http.StatusOK {
				assert.Contains(t, decode[errorResponse](t, rec).Error, ErrBadPosition.Error())
				return
			}
			assert.Equal(t, tt.expectedCell, decode[CellResponse](t, rec))
		})
	}
}

func TestServer_SetCell(t *testing.T) {
	server := newTestServer(t)

	t.Run("Opening a far cell grows the extents", func(t *testing.T) {
		rec := do(t, server, http.MethodPut, "/cells/9/0/0")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, Extents{Width: 8, Length: 2, Height: 1}, decode[Extents](t, rec))

		rec = do(t, server, http.MethodGet, "/cells/9/0/0")
		assert.True(t, decode[CellResponse](t, rec).Walkable)
	})

	t.Run("Closing it again shrinks them back", func(t *testing.T) {
		rec := do(t, server, http.MethodDelete, "/cells/9/0/0")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, Extents{Width: 4, Length: 2, Height: 1}, decode[Extents](t, rec))
	})

	t.Run("Closing the finish pulls the max x in to the upper floor", func(t *testing.T) {
		rec := do(t, server, http.MethodDelete, "/cells/5/2/0")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, Extents{Width: 3, Length: 2, Height: 1}, decode[Extents](t, rec))
	})

	t.Run("Closing an absent cell changes nothing", func(t *testing.T) {
		rec := do(t, server, http.MethodDelete, "/cells/40/40/40")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, Extents{Width: 3, Length: 2, Height: 1}, decode[Extents](t, rec))
	})
}

func TestServer_Path(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		expectedStatus int
		expectedLen    int
		expectedCost   float64
	}{
		{
			name:           "Success",
			target:         "/path?from=1,0,0&to=5,2,0",
			expectedStatus: http.StatusOK,
			expectedLen:    7,
			expectedCost:   6,
		},
		{
			name:           "Same cell",
			target:         "/path?from=1,0,0&to=1,0,0",
			expectedStatus: http.StatusOK,
			expectedLen:    1,
			expectedCost:   0,
		},
		{
			name:           "Malformed from",
			target:         "/path?from=1,0&to=5,2,0",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing to",
			target:         "/path?from=1,0,0",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Start in a wall",
			target:         "/path?from=0,0,0&to=5,2,0",
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "End outside the grid",
			target:         "/path?from=1,0,0&to=50,50,50",
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	server := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, server, http.MethodGet, tt.target)
			require.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus != http.StatusOK {
				assert.NotEmpty(t, decode[errorResponse](t, rec).Error)
				return
			}

			resp := decode[PathResponse](t, rec)
			assert.Len(t, resp.Path, tt.expectedLen)
			assert.Equal(t, tt.expectedCost, resp.Cost)
		})
	}

	t.Run("Disconnected", func(t *testing.T) {
		rec := do(t, server, http.MethodDelete, "/cells/4/2/0")
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, server, http.MethodGet, "/path?from=1,0,0&to=5,2,0")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, decode[errorResponse](t, rec).Error, search.ErrNoPath.Error())
	})
}

func TestServer_Stats(t *testing.T) {
	server := newTestServer(t)

	rec := do(t, server, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatsResponse{}, decode[StatsResponse](t, rec))

	// Failed searches are not counted.
	do(t, server, http.MethodGet, "/path?from=0,0,0&to=5,2,0")
	do(t, server, http.MethodGet, "/path?from=1,0,0&to=5,2,0")
	do(t, server, http.MethodGet, "/path?from=1,0,0&to=1,0,0")

	rec = do(t, server, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatsResponse{Searches: 2, TotalCost: 6, MeanCost: 3}, decode[StatsResponse](t, rec))
}

func TestServer_Websocket(t *testing.T) {
	server := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/cells/1/5/1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var batch []ExtentUpdate
	require.NoError(t, conn.ReadJSON(&batch))
	require.Len(t, batch, 1)

	update := batch[0]
	assert.NotEmpty(t, update.ID)
	assert.Equal(t, models.NewGridPos(1, 5, 1), update.Pos)
	assert.True(t, update.Walkable)
	assert.Equal(t, 4, update.Width)
	assert.Equal(t, 5, update.Length)
	assert.Equal(t, 1, update.Height)
}

func TestBatchify(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	source := make(chan ExtentUpdate, 4)
	a, b := models.NewGridPos(1, 0, 0), models.NewGridPos(2, 0, 0)
	source <- ExtentUpdate{ID: "1", Pos: a, Walkable: true}
	source <- ExtentUpdate{ID: "2", Pos: b, Walkable: true}
	source <- ExtentUpdate{ID: "3", Pos: a, Walkable: false}

	batches := batchify(done, source, 50*time.Millisecond)

	select {
	case batch := <-batches:
		require.Len(t, batch, 2)
		// a was updated last, so its latest update comes last.
		assert.Equal(t, "2", batch[0].ID)
		assert.Equal(t, "3", batch[1].ID)
		assert.False(t, batch[1].Walkable)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch flushed")
	}

	close(source)
	select {
	case _, ok := <-batches:
		assert.False(t, ok, "output should close with its source")
	case <-time.After(5 * time.Second):
		t.Fatal("output not closed")
	}
}

func TestHub(t *testing.T) {
	h := newHub()
	sub := h.subscribe()

	update := ExtentUpdate{ID: "x"}
	h.publish(update)
	assert.Equal(t, update, <-sub)

	// A full subscriber drops updates instead of blocking the publisher.
	for i := 0; i < subscriberBuffer+10; i++ {
		h.publish(update)
	}
	assert.Len(t, sub, subscriberBuffer)

	h.unsubscribe(sub)
	h.publish(ExtentUpdate{ID: "after"})
	assert.Len(t, sub, subscriberBuffer)
}
