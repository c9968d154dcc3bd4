package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/sw33tLie/mailhunt/internal/utils"
	"github.com/sw33tLie/mailhunt/pkg/hunt"
	"github.com/sw33tLie/mailhunt/pkg/record"
)

// Hunter is the part of *hunt.Hunter the server needs.
type Hunter interface {
	Hunt(ctx context.Context, q hunt.Query) (*record.HuntResult, error)
}

type Server struct {
	Hunter   Hunter
	Username string
	Password string
}

func New(h Hunter, user, pass string) *Server {
	return &Server{
		Hunter:   h,
		Username: user,
		Password: pass,
	}
}

func (s *Server) Router() *mux.Router {
	root := mux.NewRouter()
	root.Use(requestLogger, s.basicAuth)

	root.Handle("/metrics", promhttp.Handler()).Methods("GET")
	root.HandleFunc("/", s.handleHunt).Methods("GET")
	root.HandleFunc("/{email}", s.handleHunt).Methods("GET")
	root.HandleFunc("/{email}/{sources}", s.handleHunt).Methods("GET")
	return root
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// a hunt with every source can take a while
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Log.Infof("Starting server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		utils.Log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).Round(time.Millisecond).String(),
		}).Info("Request served")
	})
}
