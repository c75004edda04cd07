// Package api exposes documents and the AI flows over HTTP.
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/af-corp/aegis-docai/internal/cache"
	"github.com/af-corp/aegis-docai/internal/filter"
	"github.com/af-corp/aegis-docai/internal/flows"
	"github.com/af-corp/aegis-docai/internal/health"
	"github.com/af-corp/aegis-docai/internal/httputil"
	"github.com/af-corp/aegis-docai/internal/store"
	"github.com/af-corp/aegis-docai/internal/tenant"
	"github.com/af-corp/aegis-docai/internal/types"
)

const (
	maxBodyBytes      = 8 << 20
	cacheKindDocument = "document"
)

// Handler holds dependencies for the HTTP handlers.
type Handler struct {
	flows  *flows.Service
	docs   store.Documents
	cache  *cache.Cache
	health *health.Checker
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(svc *flows.Service, docs store.Documents, c *cache.Cache, checker *health.Checker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		flows:  svc,
		docs:   docs,
		cache:  c,
		health: checker,
		logger: logger,
		now:    time.Now,
	}
}

// decode reads a JSON body into v. Failures are reported as 422.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	reqID := w.Header().Get(httputil.HeaderRequestID)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteValidationError(w, reqID, "Request body too large")
			return false
		}
		httputil.WriteValidationError(w, reqID, "Invalid JSON body")
		return false
	}
	return true
}

// writeError maps domain errors onto the error envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := w.Header().Get(httputil.HeaderRequestID)

	var ve *types.ValidationError
	var be *types.BlockedError
	switch {
	case errors.As(err, &ve):
		if ve.IsSafetyRejection() {
			httputil.WriteFlowError(w, reqID, string(ve.Reason), ve.Message)
			return
		}
		httputil.WriteValidationError(w, reqID, ve.Message)
	case errors.As(err, &be):
		httputil.WriteContentBlockedError(w, reqID, be.Message)
	case errors.Is(err, types.ErrNotFound):
		httputil.WriteNotFoundError(w, reqID, "Not found")
	case errors.Is(err, types.ErrConflict):
		httputil.WriteConflictError(w, reqID, "Resource already exists")
	default:
		h.logger.Error("request failed",
			"request_id", reqID,
			"path", r.URL.Path,
			"tenant_id", tenant.IDFromContext(r.Context()),
			"error", filter.SanitizeForLogging(err.Error(), 300),
		)
		httputil.WriteInternalError(w, reqID)
	}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.health.Check(r.Context()))
}

// CreateDocument handles POST /documents.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get(httputil.HeaderRequestID)
	tenantID := tenant.IDFromContext(r.Context())

	var req types.CreateDocumentRequest
	if !decode(w, r, &req) {
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	switch {
	case req.ID == "":
		httputil.WriteValidationError(w, reqID, "id is required")
		return
	case len(req.ID) > types.MaxDocumentIDLength:
		httputil.WriteValidationError(w, reqID, "id must not exceed 64 characters")
		return
	case strings.TrimSpace(req.Title) == "":
		httputil.WriteValidationError(w, reqID, "title is required")
		return
	case req.Text == "":
		httputil.WriteValidationError(w, reqID, "text is required")
		return
	}

	doc := &types.Document{
		ID:        req.ID,
		TenantID:  tenantID,
		Title:     req.Title,
		Text:      req.Text,
		CreatedAt: h.now().UTC().Truncate(time.Microsecond),
	}
	if err := h.docs.CreateDocument(r.Context(), doc); err != nil {
		if errors.Is(err, types.ErrConflict) {
			httputil.WriteConflictError(w, reqID, "Document already exists")
			return
		}
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("document created", "request_id", reqID, "tenant_id", tenantID, "document_id", doc.ID)
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

// GetDocument handles GET /documents/{id}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get(httputil.HeaderRequestID)
	tenantID := tenant.IDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	key := cache.Key{TenantID: tenantID, Kind: cacheKindDocument, ID: id}
	if body, ok := h.cache.Get(r.Context(), key); ok {
		httputil.WriteRawJSON(w, http.StatusOK, body)
		return
	}

	doc, err := h.docs.GetDocument(r.Context(), tenantID, id)
	if errors.Is(err, types.ErrNotFound) {
		httputil.WriteNotFoundError(w, reqID, "Document not found")
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	body, err := json.Marshal(doc)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.cache.Set(r.Context(), key, body, h.cache.DocumentTTL())
	httputil.WriteRawJSON(w, http.StatusOK, body)
}

// Summarize handles POST /ai/notary/summarize.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req types.SummarizeRequest
	if !decode(w, r, &req) {
		return
	}
	h.serveFlow(w, r, types.FlowSummarize, req, func(ctx context.Context, tenantID string) (any, types.Source, error) {
		resp, err := h.flows.Summarize(ctx, tenantID, req)
		if err != nil {
			return nil, "", err
		}
		return resp, resp.Source, nil
	})
}

// Classify handles POST /ai/classify.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req types.ClassifyRequest
	if !decode(w, r, &req) {
		return
	}
	h.serveFlow(w, r, types.FlowClassify, req, func(ctx context.Context, tenantID string) (any, types.Source, error) {
		resp, err := h.flows.Classify(ctx, tenantID, req)
		if err != nil {
			return nil, "", err
		}
		return resp, resp.Source, nil
	})
}

// Ask handles POST /ai/ask.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req types.AskRequest
	if !decode(w, r, &req) {
		return
	}
	h.serveFlow(w, r, types.FlowAsk, req, func(ctx context.Context, tenantID string) (any, types.Source, error) {
		resp, err := h.flows.Ask(ctx, tenantID, req)
		if err != nil {
			return nil, "", err
		}
		return resp, resp.Source, nil
	})
}

// serveFlow answers from the flow cache when possible, otherwise runs the flow and
// caches answers that came from the model.
func (h *Handler) serveFlow(w http.ResponseWriter, r *http.Request, flow string, req any,
	run func(ctx context.Context, tenantID string) (any, types.Source, error)) {
	reqID := w.Header().Get(httputil.HeaderRequestID)
	tenantID := tenant.IDFromContext(r.Context())
	ttl := h.cache.FlowTTL()

	var key cache.Key
	if ttl > 0 {
		if k, err := flowKey(tenantID, flow, req); err == nil {
			key = k
			if body, ok := h.cache.Get(r.Context(), key); ok {
				httputil.WriteRawJSON(w, http.StatusOK, body)
				return
			}
		}
	}

	start := h.now()
	resp, source, err := run(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	body, err := json.Marshal(resp)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if source == types.SourceLLM && key.TenantID != "" {
		h.cache.Set(r.Context(), key, body, ttl)
	}

	h.logger.Info("flow completed",
		"request_id", reqID,
		"tenant_id", tenantID,
		"flow", flow,
		"source", string(source),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteRawJSON(w, http.StatusOK, body)
}

func flowKey(tenantID, flow string, req any) (cache.Key, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return cache.Key{}, err
	}
	sum := sha256.Sum256(data)
	return cache.Key{TenantID: tenantID, Kind: flow, ID: hex.EncodeToString(sum[:])}, nil
}
