// Package api exposes the HTTP surface: uploads, document reads, status
// polling and deletes.
package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/PixelDrop/internal/cache"
	"github.com/dharsanguruparan/PixelDrop/internal/cdn"
	"github.com/dharsanguruparan/PixelDrop/internal/config"
	"github.com/dharsanguruparan/PixelDrop/internal/model"
	"github.com/dharsanguruparan/PixelDrop/internal/processing"
	"github.com/dharsanguruparan/PixelDrop/internal/storage"
)

// StatusCache is the read-through cache for image statuses. cache.StatusCache
// implements it against Redis.
type StatusCache interface {
	Get(ctx context.Context, hash string) (model.ImageStatus, error)
	Set(ctx context.Context, hash string, status model.ImageStatus) error
	Delete(ctx context.Context, hash string) error
}

// Dependencies are the collaborators the handlers run against. Statuses is
// optional.
type Dependencies struct {
	Blobs    storage.BlobStore
	Docs     storage.DocumentStore
	Enqueuer processing.Enqueuer
	Deleter  *processing.Deleter
	Statuses StatusCache
	Log      *zap.Logger
}

// Server exposes HTTP endpoints for uploads and image visibility.
type Server struct {
	cfg     *config.Config
	deps    Dependencies
	log     *zap.Logger
	handler http.Handler
	once    sync.Once
}

// New constructs a Server.
func New(cfg *config.Config, deps Dependencies) *Server {
	return &Server{cfg: cfg, deps: deps, log: deps.Log}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	s.once.Do(func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", s.handleHealth)
		mux.HandleFunc("/images", s.handleImages)
		mux.HandleFunc("/images/", s.handleImageRoute)
		s.handler = cors(traceID(logging(s.log)(recovery(s.log)(mux))))
	})
	return s.handler
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("api listening", zap.String("address", s.cfg.Address))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleUpload(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleImageRoute(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/images/"), "/")
	hash := parts[0]
	if hash == "" || len(parts) > 2 {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}
	if len(parts) == 2 {
		if parts[1] != "status" {
			s.respondError(w, http.StatusNotFound, "not found")
			return
		}
		if r.Method != http.MethodGet {
			s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleStatus(w, r, hash)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r, hash)
	case http.MethodDelete:
		s.handleDelete(w, r, hash)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, hash string) {
	doc, err := s.deps.Docs.Read(r.Context(), hash)
	if err != nil {
		s.log.Error("read image", zap.String("hash", hash), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to read image")
		return
	}
	if doc == nil {
		s.respondError(w, http.StatusNotFound, "image not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

type statusResponse struct {
	ID     string            `json:"id"`
	Status model.ImageStatus `json:"status"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, hash string) {
	ctx := r.Context()
	if s.deps.Statuses != nil {
		status, err := s.deps.Statuses.Get(ctx, hash)
		if err == nil {
			s.respondJSON(w, http.StatusOK, statusResponse{ID: hash, Status: status})
			return
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("status cache read failed", zap.String("hash", hash), zap.Error(err))
		}
	}
	doc, err := s.deps.Docs.Read(ctx, hash)
	if err != nil {
		s.log.Error("read image", zap.String("hash", hash), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to read image")
		return
	}
	if doc == nil {
		s.respondError(w, http.StatusNotFound, "image not found")
		return
	}
	if s.deps.Statuses != nil {
		if err := s.deps.Statuses.Set(ctx, hash, doc.Status); err != nil {
			s.log.Warn("status cache write failed", zap.String("hash", hash), zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, statusResponse{ID: hash, Status: doc.Status})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, hash string) {
	ctx := r.Context()
	res, err := s.deps.Deleter.Run(ctx, hash)
	if err != nil {
		s.log.Error("delete image", zap.String("hash", hash), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	if s.deps.Statuses != nil {
		if err := s.deps.Statuses.Delete(ctx, hash); err != nil {
			s.log.Warn("status cache delete failed", zap.String("hash", hash), zap.Error(err))
		}
	}
	if res.Status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.respondError(w, res.Status, res.Error)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize+1024)
	mr, err := r.MultipartReader()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "expecting multipart form")
		return
	}
	part, err := nextFilePart(mr)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer part.Close()
	data, err := s.readUpload(part)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	contentType := http.DetectContentType(data)
	if !s.allowed(contentType) {
		s.respondError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("unsupported content type %s", contentType))
		return
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	log := s.log.With(zap.String("hash", hash), zap.String("trace_id", TraceIDFrom(ctx)))

	exists, err := s.deps.Blobs.Exists(ctx, hash)
	if err != nil {
		log.Error("check blob", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	if exists {
		if doc, err := s.deps.Docs.Read(ctx, hash); err == nil && doc != nil {
			s.respondJSON(w, http.StatusOK, doc)
			return
		}
	} else if err := s.deps.Blobs.Write(ctx, hash, data, contentType); err != nil {
		log.Error("write blob", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	doc, err := s.deps.Docs.Create(ctx, &model.ImageDocument{
		ID:          hash,
		URL:         cdn.PublicURL(s.cfg.CDNBaseURL, hash),
		Status:      model.StatusProcessing,
		Size:        int64(len(data)),
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
		TTL:         s.cfg.ImageTTL,
	})
	if err != nil {
		if errors.Is(err, storage.ErrExists) {
			// A concurrent upload of the same bytes won the race.
			if existing, rerr := s.deps.Docs.Read(ctx, hash); rerr == nil && existing != nil {
				s.respondJSON(w, http.StatusOK, existing)
				return
			}
		}
		log.Error("create document", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to store metadata")
		return
	}
	if err := s.deps.Enqueuer.Enqueue(ctx, hash); err != nil {
		log.Error("enqueue metadata job", zap.Error(err))
		if _, uerr := s.deps.Docs.Update(ctx, hash, model.DocumentUpdate{Status: model.StatusFailed}); uerr != nil && !errors.Is(uerr, storage.ErrInvalidTransition) {
			log.Error("mark image failed", zap.Error(uerr))
		}
		s.respondError(w, http.StatusServiceUnavailable, "failed to queue job")
		return
	}
	log.Info("image accepted", zap.Int64("size", doc.Size), zap.String("content_type", contentType))
	s.respondJSON(w, http.StatusAccepted, doc)
}

func (s *Server) readUpload(part *multipart.Part) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(part, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if n == 0 {
		return nil, errors.New("empty file")
	}
	if n > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("file exceeds limit (%d bytes)", s.cfg.MaxFileSize)
	}
	return buf.Bytes(), nil
}

func (s *Server) allowed(contentType string) bool {
	for _, t := range s.cfg.AllowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
		part.Close()
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}
