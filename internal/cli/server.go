package cli

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/petrijr/flowtree"
	"github.com/petrijr/flowtree/internal/demo"
	"github.com/petrijr/flowtree/internal/inbox"
)

// Server exposes one runtime over HTTP. Accepted events are queued in Inbox
// and delivered by inbox.Pump.
type Server struct {
	Runtime *flowtree.Runtime
	Inbox   inbox.Inbox
	Logger  *slog.Logger
}

type eventRequest struct {
	Arg string `json:"arg"`
}

type eventResponse struct {
	Status string `json:"status"`
	Queued int    `json:"queued"`
}

type snapshotView struct {
	Workflow string                  `json:"workflow,omitempty"`
	Children map[string]snapshotView `json:"children,omitempty"`
}

// NewHandler creates the HTTP handler for rt. Metrics are served from
// gatherer.
func NewHandler(rt *flowtree.Runtime, ib inbox.Inbox, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	s := &Server{Runtime: rt, Inbox: ib, Logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/rendering", s.Rendering)
	r.Get("/snapshot", s.Snapshot)
	r.Post("/events/{name}", s.Event)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

// Rendering handles GET /rendering.
func (s *Server) Rendering(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Runtime.Current().Rendering)
}

// Snapshot handles GET /snapshot.
func (s *Server) Snapshot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, viewSnapshot(s.Runtime.Snapshot()))
}

// Event handles POST /events/{name}. The optional argument is read from the
// arg query parameter or a JSON body {"arg": "..."}. The event is checked
// against the current rendering before it is queued.
func (s *Server) Event(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.Runtime.Done():
		http.Error(w, "runtime stopped", http.StatusServiceUnavailable)
		return
	default:
	}

	name := chi.URLParam(r, "name")
	req := eventRequest{Arg: r.URL.Query().Get("arg")}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	if _, err := demo.Handler(s.Runtime.Current().Rendering, name, req.Arg); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, demo.ErrUnknownEvent) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	if err := s.Inbox.Enqueue(r.Context(), inbox.Event{Name: name, Arg: req.Arg}); err != nil {
		s.Logger.Error("inbox_enqueue_failed", slog.String("event", name), slog.Any("error", err))
		http.Error(w, "could not queue event", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusAccepted, eventResponse{Status: "queued", Queued: s.Inbox.Len()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("encode_response_failed", slog.Any("error", err))
	}
}

func viewSnapshot(snap flowtree.TreeSnapshot) snapshotView {
	v := snapshotView{Workflow: snap.Workflow.String()}
	if len(snap.Children) > 0 {
		v.Children = make(map[string]snapshotView, len(snap.Children))
		for k, c := range snap.Children {
			v.Children[k] = viewSnapshot(c)
		}
	}
	return v
}
