// Package flows orchestrates the document AI tasks: it validates input, runs the
// filter chain, calls the LLM client, substitutes a fallback when the call fails
// and writes an audit record.
package flows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/filter"
	"github.com/af-corp/aegis-docai/internal/telemetry"
	"github.com/af-corp/aegis-docai/internal/types"
)

const (
	auditTimeout    = 3 * time.Second
	reasonLogLength = 200
)

// Completer is the LLM capability the flows depend on. *llm.Client implements it.
type Completer interface {
	Complete(ctx context.Context, req types.LLMRequest) (types.LLMResult, error)
}

type DocumentReader interface {
	GetDocument(ctx context.Context, tenantID, id string) (*types.Document, error)
}

type AuditWriter interface {
	SaveAudit(ctx context.Context, rec *types.AuditRecord) error
}

// Service runs the summarize, classify and ask flows. Except for input rejections
// and document lookup faults its methods always return a response.
type Service struct {
	llm     Completer
	docs    DocumentReader
	audits  AuditWriter
	chain   *filter.Chain
	cfg     func() config.FilterConfig
	metrics *telemetry.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wires a flow service. chain and audits may be nil.
func NewService(llm Completer, docs DocumentReader, audits AuditWriter, chain *filter.Chain,
	cfg func() config.FilterConfig, metrics *telemetry.Metrics, logger *slog.Logger) *Service {
	if chain == nil {
		chain = filter.NewChain()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		llm:     llm,
		docs:    docs,
		audits:  audits,
		chain:   chain,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// resolveText returns the stored document text when documentID names a document
// of tenantID, else inline. A missing document is not an error here.
func (s *Service) resolveText(ctx context.Context, tenantID, documentID, inline string) (string, error) {
	if documentID == "" || s.docs == nil {
		return inline, nil
	}
	doc, err := s.docs.GetDocument(ctx, tenantID, documentID)
	switch {
	case err == nil:
		return doc.Text, nil
	case errors.Is(err, types.ErrNotFound):
		s.logger.Info("document not found, using inline text",
			"tenant_id", tenantID,
			"document_id", documentID,
			"has_inline", inline != "",
		)
		return inline, nil
	default:
		return "", fmt.Errorf("load document %s: %w", documentID, err)
	}
}

// screen runs the filter chain over text. It returns a *types.BlockedError when a
// filter blocks and the number of flagged secrets otherwise.
func (s *Service) screen(ctx context.Context, tenantID, flow, text string) (int, error) {
	results, blocked := s.chain.Run(ctx, &types.FilterInput{TenantID: tenantID, Flow: flow, Text: text})
	flagged := 0
	for _, r := range results {
		s.metrics.RecordFilterAction(r.FilterName, string(r.Action))
		if r.Action == types.FilterFlag {
			flagged += r.Detections
		}
	}
	if blocked != nil {
		s.logger.Warn("input blocked by filter",
			"tenant_id", tenantID,
			"flow", flow,
			"filter", blocked.FilterName,
			"reason", blocked.Message,
		)
		return flagged, &types.BlockedError{Filter: blocked.FilterName, Message: blocked.Message}
	}
	return flagged, nil
}

// complete calls the LLM and reports whether the result can be used. On failure it
// logs a sanitized warning and returns the reason for the response metadata.
func (s *Service) complete(ctx context.Context, flow string, req types.LLMRequest) (types.LLMResult, string, bool) {
	res, err := s.llm.Complete(ctx, req)
	if err != nil {
		reason := filter.SanitizeForLogging(err.Error(), reasonLogLength)
		s.logger.Warn("llm call failed, using fallback",
			"tenant_id", req.TenantID,
			"flow", flow,
			"error", reason,
		)
		s.metrics.RecordLLMCall(flow, string(types.SourceFallback))
		return types.LLMResult{}, reason, false
	}
	s.metrics.RecordLLMCall(flow, string(types.SourceLLM))
	return res, "", true
}

func baseMetadata(res types.LLMResult, ok bool, reason string, flagged int) map[string]any {
	md := map[string]any{}
	if ok {
		md["model"] = res.ModelName
		md["latency_ms"] = res.LatencyMs
	} else {
		md["fallback_reason"] = reason
	}
	if flagged > 0 {
		md["secrets_detected"] = flagged
	}
	return md
}

func sourceOf(ok bool) types.Source {
	if ok {
		return types.SourceLLM
	}
	return types.SourceFallback
}

// audit persists one record. Failures are logged and counted, never returned.
func (s *Service) audit(ctx context.Context, tenantID, flow string, request, response any, success bool) {
	if s.audits == nil {
		return
	}
	reqJSON, err := json.Marshal(request)
	if err == nil {
		var respJSON []byte
		respJSON, err = json.Marshal(response)
		if err == nil {
			rec := &types.AuditRecord{
				ID:              uuid.NewString(),
				TenantID:        tenantID,
				FlowName:        flow,
				RequestPayload:  reqJSON,
				ResponsePayload: respJSON,
				Success:         success,
				CreatedAt:       s.now().UTC(),
			}
			actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
			defer cancel()
			err = s.audits.SaveAudit(actx, rec)
		}
	}
	if err != nil {
		s.metrics.RecordAuditFailure()
		s.logger.Warn("audit persist failed",
			"tenant_id", tenantID,
			"flow", flow,
			"error", filter.SanitizeForLogging(err.Error(), reasonLogLength),
		)
	}
}
