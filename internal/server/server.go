// Package server exposes the solver operations over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ytget/sigsolver/internal/cache"
	"github.com/ytget/sigsolver/internal/logger"
	"github.com/ytget/sigsolver/types"
	"github.com/ytget/sigsolver/youtube/cipher"
)

const unauthorized = "Unauthorized. Valid Authorization header required."

// maxBodyBytes bounds request bodies. Stream URLs and signatures are small.
const maxBodyBytes = 1 << 20

// Solver is the set of operations the routes call.
type Solver interface {
	Decrypt(ctx context.Context, req types.DecryptRequest) (types.DecryptResponse, error)
	Resolve(ctx context.Context, req types.ResolveRequest) (types.ResolveResponse, error)
	GetSts(ctx context.Context, req types.StsRequest) (types.StsResponse, error)
	CacheStats() map[string]cache.Stats
	ClearCaches()
}

// errValidation marks request bodies rejected before reaching the solver.
var errValidation = errors.New("invalid request")

type validationError struct{ msg string }

func (e validationError) Error() string { return e.msg }
func (e validationError) Unwrap() error { return errValidation }

func invalid(msg string) error { return validationError{msg: msg} }

// New returns the router. An empty token disables the Authorization check.
func New(svc Solver, token string) http.Handler {
	h := &handler{svc: svc, log: logger.WithComponent(logger.ComponentServer)}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("hi :3"))
	})

	r.Group(func(r chi.Router) {
		r.Use(requireToken(token))

		r.Route("/api/youtube", func(r chi.Router) {
			r.Post("/decrypt_signature", h.decrypt)
			r.Post("/resolve_url", h.resolve)
			r.Post("/get_sts", h.sts)
		})
		r.Get("/api/cache/stats", h.stats)
		r.Delete("/api/cache", h.clear)
	})
	return r
}

// requireToken compares the Authorization header to token verbatim.
func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != token {
				writeJSON(w, http.StatusUnauthorized, types.ErrorResponse{Error: unauthorized})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type handler struct {
	svc Solver
	log *logger.ComponentLogger
}

func (h *handler) decrypt(w http.ResponseWriter, r *http.Request) {
	var req types.DecryptRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.PlayerURL) == "" {
		h.fail(w, r, invalid("player_url is required"))
		return
	}
	if req.EncryptedSignature == "" && req.NParam == "" {
		h.fail(w, r, invalid("encrypted_signature or n_param is required"))
		return
	}
	resp, err := h.svc.Decrypt(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) resolve(w http.ResponseWriter, r *http.Request) {
	var req types.ResolveRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.PlayerURL) == "" {
		h.fail(w, r, invalid("player_url is required"))
		return
	}
	if req.StreamURL == "" && req.SignatureCipher == "" {
		h.fail(w, r, invalid("stream_url or signature_cipher is required"))
		return
	}
	resp, err := h.svc.Resolve(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) sts(w http.ResponseWriter, r *http.Request) {
	var req types.StsRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.PlayerURL) == "" {
		h.fail(w, r, invalid("player_url is required"))
		return
	}
	resp, err := h.svc.GetSts(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("X-Cache-Hit", strconv.FormatBool(resp.CacheHit))
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.CacheStats())
}

func (h *handler) clear(w http.ResponseWriter, _ *http.Request) {
	h.svc.ClearCaches()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	h.log.Error("request failed", map[string]interface{}{
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     status,
		"request_id": middleware.GetReqID(r.Context()),
		"error":      err.Error(),
	})
	writeJSON(w, status, types.ErrorResponse{Error: err.Error()})
}

// statusOf maps an error to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errValidation), cipher.IsClientError(err):
		return http.StatusBadRequest
	case cipher.IsNotFound(err):
		return http.StatusNotFound
	case cipher.IsCancelled(err):
		return http.StatusGatewayTimeout
	case cipher.IsPipelineError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return invalid("invalid JSON body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
