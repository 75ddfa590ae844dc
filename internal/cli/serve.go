package cli

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	routegen "github.com/ferro-labs/routegen"
	"github.com/ferro-labs/routegen/internal/history"
	"github.com/ferro-labs/routegen/internal/logging"
	"github.com/ferro-labs/routegen/internal/metrics"
	"github.com/ferro-labs/routegen/internal/version"
)

// documentServer keeps the latest rendered document in memory and rebuilds
// it from the manifest on demand. Proxies poll GET /config.yaml with the
// ETag they last saw; POST /-/reload re-reads the manifest after an edit.
type documentServer struct {
	manifestPath string
	store        history.Store
	reloadToken  string

	mu         sync.RWMutex
	doc        []byte
	checksum   string
	entryCount int
	renderedAt time.Time
}

// rebuild re-reads the manifest, renders, and swaps the served document.
// The snapshot write is best-effort: a history outage must not block a
// reload.
func (s *documentServer) rebuild() error {
	m, err := routegen.LoadManifest(s.manifestPath)
	if err != nil {
		return err
	}
	session, err := m.Build()
	if err != nil {
		return err
	}
	doc, err := session.Render()
	if err != nil {
		return err
	}

	sum := sha256.Sum256(doc)
	entries := len(session.Entries())

	s.mu.Lock()
	s.doc = doc
	s.checksum = hex.EncodeToString(sum[:])
	s.entryCount = entries
	s.renderedAt = time.Now().UTC()
	s.mu.Unlock()

	if s.store != nil {
		if _, err := s.store.Save(s.manifestPath, entries, doc); err != nil {
			logging.Logger.Warn("snapshot save failed", "error", err.Error())
		}
	}
	return nil
}

func (s *documentServer) current() (doc []byte, checksum string, entries int, renderedAt time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc, s.checksum, s.entryCount, s.renderedAt
}

func (s *documentServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(logging.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/config.yaml", s.handleDocument)
	r.With(requireToken(s.reloadToken)).Post("/-/reload", s.handleReload)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/history", s.handleHistoryList)
	r.Get("/history/{id}", s.handleHistoryGet)
	return r
}

func (s *documentServer) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, checksum, _, _ := s.current()

	etag := `"` + checksum + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		metrics.DocumentRequests.WithLabelValues(strconv.Itoa(http.StatusNotModified)).Inc()
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/yaml; charset=utf-8")
	metrics.DocumentRequests.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()
	_, _ = w.Write(doc)
}

func (s *documentServer) handleReload(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	if err := s.rebuild(); err != nil {
		log.Error("reload failed", "error", err.Error())
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
		return
	}

	_, checksum, entries, renderedAt := s.current()
	log.Info("document rebuilt", "entries", entries, "checksum", checksum)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"entries":     entries,
		"checksum":    checksum,
		"rendered_at": renderedAt,
	})
}

func (s *documentServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_, checksum, entries, renderedAt := s.current()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"version":     version.Short(),
		"entries":     entries,
		"checksum":    checksum,
		"rendered_at": renderedAt,
	})
}

func (s *documentServer) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "history store not configured", http.StatusNotFound)
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	snapshots, err := s.store.List(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

func (s *documentServer) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "history store not configured", http.StatusNotFound)
		return
	}
	snap, ok := s.store.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "snapshot not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/yaml; charset=utf-8")
	_, _ = w.Write(snap.Document)
}

// requireToken guards mutating endpoints with a static bearer token. An
// empty token leaves the endpoint open, for trusted-network deployments.
func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if subtle.ConstantTimeCompare([]byte(auth), []byte("Bearer "+token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing or invalid bearer token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewServeCmd runs the document service: it builds once at startup and
// then serves the rendered document over HTTP until interrupted.
func NewServeCmd(opts *Options) *cobra.Command {
	var addr string
	var historyDSN string
	var reloadToken string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rendered document over HTTP with reload on demand",
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := &documentServer{manifestPath: opts.ManifestPath, reloadToken: reloadToken}
			if historyDSN != "" {
				store, err := history.Open(historyDSN)
				if err != nil {
					return err
				}
				defer func() {
					_ = store.Close()
				}()
				srv.store = store
			}
			if err := srv.rebuild(); err != nil {
				return err
			}

			httpSrv := &http.Server{
				Addr:         addr,
				Handler:      srv.routes(),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			// Graceful shutdown on SIGINT / SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				_ = httpSrv.Shutdown(shutdownCtx)
			}()

			_, checksum, entries, _ := srv.current()
			logging.Logger.Info("routegen serving",
				"version", version.Short(),
				"addr", addr,
				"entries", entries,
				"checksum", checksum,
			)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logging.Logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&historyDSN, "history", "", "History store DSN (SQLite path or postgres:// URL)")
	cmd.Flags().StringVar(&reloadToken, "reload-token", os.Getenv("ROUTEGEN_RELOAD_TOKEN"), "Bearer token required on POST /-/reload (empty disables)")
	return cmd
}
