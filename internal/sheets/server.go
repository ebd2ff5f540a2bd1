package sheets

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/joescharf/checkin/internal/models"
	"github.com/joescharf/checkin/internal/store"
)

// StatusMessage is returned for requests that carry no action.
const StatusMessage = "checkin sheet endpoint is running"

// ServerOptions tunes the HTTP surface of the endpoint.
type ServerOptions struct {
	AllowedOrigins []string
}

// Server implements the sheet endpoint over a row store.
type Server struct {
	store  store.SheetStore
	logger *slog.Logger
	opts   ServerOptions
}

// NewServer creates the endpoint server.
func NewServer(s store.SheetStore, logger *slog.Logger, opts ServerOptions) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{store: s, logger: logger, opts: opts}
}

// Router returns the http.Handler for the endpoint.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleGet)
	r.Post("/", s.handlePost)

	return r
}

// requestLogger logs one line per request with status and latency.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				level := slog.LevelInfo
				if ww.Status() >= 500 {
					level = slog.LevelError
				}
				logger.LogAttrs(r.Context(), level, "request",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
					slog.Duration("latency", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// writeJSON always answers 200; success or failure lives in the body.
func writeJSON(w http.ResponseWriter, v Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, msg string, received any) {
	writeJSON(w, Response{Success: false, Error: msg, Received: received})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	action, email, monthID := q.Get("action"), q.Get("email"), q.Get("monthId")
	if action == ActionCheck && email != "" && monthID != "" {
		s.check(w, r, email, monthID)
		return
	}
	writeJSON(w, Response{Success: true, Message: StatusMessage})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		writeError(w, "No data received", nil)
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, fmt.Sprintf("Invalid JSON: %v", err), string(body))
		return
	}

	switch {
	case req.Action == ActionAppend && req.Data != nil:
		s.append(w, r, req)
	case req.Action == ActionCheck:
		if req.Email == "" || req.MonthID == "" {
			writeError(w, "Missing email or monthId", req)
			return
		}
		s.check(w, r, req.Email, req.MonthID)
	default:
		s.logger.Warn("invalid action", "action", req.Action)
		writeError(w, "Invalid action or missing parameters", req)
	}
}

func (s *Server) append(w http.ResponseWriter, r *http.Request, req Request) {
	row := *req.Data
	row.MonthID = NormalizeMonthID(row.MonthID)
	if row.Timestamp == "" {
		row.Timestamp = models.FormatTimestamp(time.Now())
	}

	n, err := s.store.AppendRow(r.Context(), &row)
	if err != nil {
		s.logger.Error("append row failed", "error", err)
		writeError(w, err.Error(), nil)
		return
	}
	s.logger.Info("row appended", "row", n, "email", row.Email, "month_id", row.MonthID)
	writeJSON(w, Response{Success: true, Message: "Data appended successfully", Row: n})
}

func (s *Server) check(w http.ResponseWriter, r *http.Request, email, monthID string) {
	search := &Search{Email: NormalizeEmail(email), MonthID: NormalizeMonthID(monthID)}
	exists, total, err := s.store.RowExists(r.Context(), search.Email, search.MonthID)
	if err != nil {
		s.logger.Error("check failed", "error", err)
		writeError(w, err.Error(), nil)
		return
	}
	writeJSON(w, Response{Success: true, Exists: &exists, Searched: search, TotalRows: &total})
}
