// Package httpapi serves stored drawings over REST.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"drawr/internal/domain"
)

type (
	// Drawings is the part of service.DrawingService the API needs.
	Drawings interface {
		List(ctx context.Context) ([]domain.DrawingSummary, error)
		Get(ctx context.Context, id string) (*domain.Drawing, error)
		Create(ctx context.Context, d *domain.Drawing) error
		Update(ctx context.Context, d *domain.Drawing) error
		Delete(ctx context.Context, id string) error
		Snapshots(ctx context.Context, id string) ([]domain.SnapshotRecord, error)
		RenderDrawingPNG(ctx context.Context, id string, w io.Writer) error
	}

	DrawingRequest struct {
		Name        string             `json:"name"`
		Layers      []domain.LayerData `json:"layers"`
		ActiveLayer string             `json:"activeLayer"`
	}

	CreateDrawingResponse struct {
		ID string `json:"id"`
	}
)

// NewRouter mounts every route on a chi mux.
func NewRouter(drawings Drawings, log *logrus.Entry) *chi.Mux {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length"},
		MaxAge:         300,
	}))

	r.Route("/api/drawings", func(r chi.Router) {
		r.Get("/", HandleList(drawings, log))
		r.Post("/", HandleCreate(drawings, log))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", HandleGet(drawings, log))
			r.Put("/", HandleUpdate(drawings, log))
			r.Delete("/", HandleDelete(drawings, log))
			r.Get("/preview.png", HandlePreview(drawings, log))
			r.Get("/snapshots", HandleSnapshots(drawings, log))
		})
	})
	return r
}

// fail maps err to a status code and logs server-side failures.
func fail(w http.ResponseWriter, log *logrus.Entry, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Drawing not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidShapeData), errors.Is(err, domain.ErrUnknownShapeType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.WithError(err).Error(msg)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

// HandleList lists stored drawings, most recently updated first.
func HandleList(drawings Drawings, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := drawings.List(r.Context())
		if err != nil {
			fail(w, log, err, "Failed to list drawings")
			return
		}
		if list == nil {
			list = []domain.DrawingSummary{}
		}
		render.JSON(w, r, list)
	}
}

// HandleCreate stores a new drawing.
func HandleCreate(drawings Drawings, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DrawingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.WithError(err).Debug("invalid create body")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			req.Name = "Untitled"
		}

		d := &domain.Drawing{Name: req.Name, Layers: req.Layers, ActiveLayer: req.ActiveLayer}
		if err := drawings.Create(r.Context(), d); err != nil {
			fail(w, log, err, "Failed to create drawing")
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateDrawingResponse{ID: d.ID})
	}
}

// HandleGet returns one drawing with all its layers.
func HandleGet(drawings Drawings, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := drawings.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			fail(w, log, err, "Failed to get drawing")
			return
		}
		render.JSON(w, r, d)
	}
}

// HandleUpdate replaces a drawing's name and layers.
func HandleUpdate(drawings Drawings, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DrawingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.WithError(err).Debug("invalid update body")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		id := chi.URLParam(r, "id")
		if req.Name == "" {
			cur, err := drawings.Get(r.Context(), id)
			if err != nil {
				fail(w, log, err, "Failed to update drawing")
				return
			}
			req.Name = cur.Name
		}
		d := &domain.Drawing{ID: id, Name: req.Name, Layers: req.Layers, ActiveLayer: req.ActiveLayer}
		if err := drawings.Update(r.Context(), d); err != nil {
			fail(w, log, err, "Failed to update drawing")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleDelete removes a drawing and its snapshots.
func HandleDelete(drawings Drawings, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := drawings.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			fail(w, log, err, "Failed to delete drawing")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandlePreview renders a drawing as PNG.
func HandlePreview(drawings Drawings, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := drawings.RenderDrawingPNG(r.Context(), chi.URLParam(r, "id"), &buf); err != nil {
			fail(w, log, err, "Failed to render drawing")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(buf.Bytes())
	}
}

// HandleSnapshots lists the saved history of a drawing, oldest first.
func HandleSnapshots(drawings Drawings, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := drawings.Get(r.Context(), id); err != nil {
			fail(w, log, err, "Failed to list snapshots")
			return
		}
		snaps, err := drawings.Snapshots(r.Context(), id)
		if err != nil {
			fail(w, log, err, "Failed to list snapshots")
			return
		}
		if snaps == nil {
			snaps = []domain.SnapshotRecord{}
		}
		render.JSON(w, r, snaps)
	}
}

// Server wraps http.Server for graceful shutdown.
type Server struct {
	srv *http.Server
	log *logrus.Entry
}

func NewServer(addr string, drawings Drawings, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{
		srv: &http.Server{Addr: addr, Handler: NewRouter(drawings, log)},
		log: log,
	}
}

// ListenAndServe blocks until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.srv.Addr).Info("http api listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("shutting down http api")
		return s.srv.Shutdown(context.Background())
	}
}
