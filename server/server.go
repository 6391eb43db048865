package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pathgrid/atomic_float"
	"pathgrid/grid"
	"pathgrid/models"
	"pathgrid/search"
	"pathgrid/server/publisher"

	"github.com/gorilla/mux"
)

const (
	// Updates are coalesced per cell over this window before being pushed to clients.
	batchRate = time.Millisecond * 20
	// Time given to in-flight requests on shutdown.
	shutdownGrace = 5 * time.Second
)

// ErrBadPosition is returned for coordinates that are not three integers.
var ErrBadPosition error = errors.New("position must be three integers")

// Server exposes one grid over http: walkability queries and edits, extents, path
// searches, and a websocket stream of edits.
//
// The grid itself is not safe for concurrent use, and a boundary removal followed
// by a concurrent edit before the next extent read would corrupt its cached box.
// So every handler holds mu across its whole grid interaction, edits and the extent
// read that follows them included.
type Server struct {
	addr string
	opts search.Options

	mu   sync.Mutex
	grid grid.Grid

	hub      *hub
	searches atomic.Int64
	pathCost *atomic_float.AtomicFloat64
	router   *mux.Router
}

// Extents are the grid's max-min spans on each axis.
type Extents struct {
	Width  int `json:"width"`
	Length int `json:"length"`
	Height int `json:"height"`
}

type CellResponse struct {
	Pos      models.GridPos `json:"pos"`
	Walkable bool           `json:"walkable"`
}

type PathResponse struct {
	Path []models.GridPos `json:"path"`
	Cost float64          `json:"cost"`
}

type StatsResponse struct {
	Searches  int64   `json:"searches"`
	TotalCost float64 `json:"totalCost"`
	MeanCost  float64 `json:"meanCost"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer returns a server over @g. Searches use @opts.
func NewServer(
	addr string,
	g grid.Grid,
	opts search.Options,
) *Server {
	server := &Server{
		addr:     addr,
		opts:     opts,
		grid:     g,
		hub:      newHub(),
		pathCost: atomic_float.NewAtomicFloat64(0),
	}

	router := mux.NewRouter()
	router.HandleFunc("/bounds", server.serveBounds).Methods(http.MethodGet)
	router.HandleFunc("/cells/{x}/{y}/{z}", server.serveCell).Methods(http.MethodGet)
	router.HandleFunc("/cells/{x}/{y}/{z}", server.serveSetCell).Methods(http.MethodPut, http.MethodDelete)
	router.HandleFunc("/path", server.servePath).Methods(http.MethodGet)
	router.HandleFunc("/stats", server.serveStats).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket).Methods(http.MethodGet)
	server.router = router

	return server
}

func (server *Server) Handler() http.Handler {
	return server.router
}

// Serve listens until @ctx is cancelled, then shuts down gracefully.
func (server *Server) Serve(ctx context.Context) (err error) {
	srv := &http.Server{
		Addr:    server.addr,
		Handler: server.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Println("shutdown:", shutdownErr)
		}
	}()

	if err = srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func (server *Server) extents() Extents {
	return Extents{
		Width:  server.grid.Width(),
		Length: server.grid.Length(),
		Height: server.grid.Height(),
	}
}

func (server *Server) serveBounds(w http.ResponseWriter, r *http.Request) {
	server.mu.Lock()
	ext := server.extents()
	server.mu.Unlock()

	writeJSON(w, http.StatusOK, ext)
}

func (server *Server) serveCell(w http.ResponseWriter, r *http.Request) {
	pos, err := parseVars(mux.Vars(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	server.mu.Lock()
	walkable := server.grid.IsWalkableAtPos(pos)
	server.mu.Unlock()

	writeJSON(w, http.StatusOK, CellResponse{Pos: pos, Walkable: walkable})
}

// serveSetCell opens the cell on PUT and closes it on DELETE, then publishes the edit.
func (server *Server) serveSetCell(w http.ResponseWriter, r *http.Request) {
	pos, err := parseVars(mux.Vars(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	walkable := r.Method == http.MethodPut

	server.mu.Lock()
	server.grid.SetWalkableAtPos(pos, walkable)
	ext := server.extents()
	server.mu.Unlock()

	server.hub.publish(newExtentUpdate(pos, walkable, ext))
	writeJSON(w, http.StatusOK, ext)
}

// servePath runs a search for ?from=x,y,z&to=x,y,z.
func (server *Server) servePath(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := parsePos(query.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("from: %w", err))
		return
	}
	to, err := parsePos(query.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("to: %w", err))
		return
	}

	// The search writes node state, so it needs the lock as much as an edit does.
	server.mu.Lock()
	path, err := search.FindPath(server.grid, from, to, server.opts)
	server.mu.Unlock()

	switch {
	case errors.Is(err, search.ErrNoPath):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, search.ErrStartNotWalkable), errors.Is(err, search.ErrEndNotWalkable):
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	cost := search.PathCost(path)
	server.searches.Add(1)
	server.pathCost.Add(cost)
	writeJSON(w, http.StatusOK, PathResponse{Path: path, Cost: cost})
}

func (server *Server) serveStats(w http.ResponseWriter, r *http.Request) {
	stats := StatsResponse{
		Searches:  server.searches.Load(),
		TotalCost: server.pathCost.AtomicRead(),
	}
	if stats.Searches > 0 {
		stats.MeanCost = stats.TotalCost / float64(stats.Searches)
	}
	writeJSON(w, http.StatusOK, stats)
}

// serveWebsocket streams batches of ExtentUpdates to the client until it disconnects.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	// Subscribe before upgrading, so that no edit made after the handshake is missed.
	updates := server.hub.subscribe()
	defer server.hub.unsubscribe(updates)

	pub, err := publisher.Upgrade(batchify(r.Context().Done(), updates, batchRate), w, r)
	if err != nil {
		log.Println(err)
		return
	}

	if err = pub.Sync(); err != nil {
		log.Println("websocket:", err)
	}
}

func parseVars(vars map[string]string) (models.GridPos, error) {
	return parseCoords(vars["x"], vars["y"], vars["z"])
}

// parsePos parses "x,y,z".
func parsePos(s string) (models.GridPos, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return models.GridPos{}, fmt.Errorf("%w: %q", ErrBadPosition, s)
	}
	return parseCoords(parts[0], parts[1], parts[2])
}

func parseCoords(xs, ys, zs string) (pos models.GridPos, err error) {
	var coords [3]int
	for i, s := range [3]string{xs, ys, zs} {
		if coords[i], err = strconv.Atoi(strings.TrimSpace(s)); err != nil {
			return models.GridPos{}, fmt.Errorf("%w: %v", ErrBadPosition, err)
		}
	}
	return models.NewGridPos(coords[0], coords[1], coords[2]), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("encode:", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
