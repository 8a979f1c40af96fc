package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"modqueue/internal/bootstrap/logging"
	domainmoderation "modqueue/internal/domain/moderation"
	"modqueue/internal/errs"
	"modqueue/internal/usecase/moderation"
)

const maxRequestBody = 1 << 20

type moderationAPIService interface {
	IngestRecord(context.Context, moderation.IngestInput) (domainmoderation.ContentRecord, error)
	GetRecord(context.Context, string) (domainmoderation.ContentRecord, error)
	ListQueue(context.Context, moderation.QueueFilter) ([]moderation.QueueItem, error)
	QueueStats(context.Context) (moderation.QueueStats, error)
	ApplyTransition(context.Context, moderation.TransitionInput) (domainmoderation.ContentRecord, error)
	SubmitAppeal(context.Context, moderation.AppealInput) (domainmoderation.ContentRecord, error)
	Rescore(context.Context, moderation.RescoreInput) (domainmoderation.ContentRecord, error)
	ApplyBulk(context.Context, moderation.BulkInput) (moderation.BulkResult, error)
}

type moderationHTTPHandler struct {
	svc moderationAPIService
}

// apiRoutes carries the optional streaming and metrics endpoints.
type apiRoutes struct {
	Stream  http.Handler
	Metrics http.Handler
}

type recordResponse struct {
	ID             string               `json:"id"`
	Kind           string               `json:"kind"`
	AuthorID       string               `json:"author_id"`
	AuthorName     string               `json:"author_name,omitempty"`
	Body           string               `json:"body"`
	SubmittedAt    time.Time            `json:"submitted_at"`
	Status         string               `json:"status"`
	Flags          []string             `json:"flags"`
	QualityScore   int                  `json:"quality_score"`
	QualityBand    string               `json:"quality_band"`
	SpamScore      int                  `json:"spam_score"`
	SpamBand       string               `json:"spam_band"`
	ModeratorNotes string               `json:"moderator_notes,omitempty"`
	Version        uint64               `json:"version"`
	AllowedActions []string             `json:"allowed_actions"`
	History        []auditEntryResponse `json:"history,omitempty"`
}

type auditEntryResponse struct {
	Seq         uint64    `json:"seq"`
	Action      string    `json:"action"`
	ModeratorID string    `json:"moderator_id"`
	Timestamp   time.Time `json:"timestamp"`
	Reason      string    `json:"reason"`
	FromStatus  string    `json:"from_status"`
	ToStatus    string    `json:"to_status"`
}

type ingestRequest struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	AuthorID     string    `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	Body         string    `json:"body"`
	Flags        []string  `json:"flags"`
	QualityScore int       `json:"quality_score"`
	SpamScore    int       `json:"spam_score"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type transitionRequest struct {
	Action  string `json:"action"`
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason"`
	Quick   bool   `json:"quick"`
}

type appealRequest struct {
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason"`
}

type scoresRequest struct {
	QualityScore *int `json:"quality_score"`
	SpamScore    *int `json:"spam_score"`
}

type bulkRequest struct {
	RecordIDs []string `json:"record_ids"`
	Action    string   `json:"action"`
	ActorID   string   `json:"actor_id"`
	Reason    string   `json:"reason"`
	Quick     bool     `json:"quick"`
}

type bulkItemResponse struct {
	RecordID  string `json:"record_id"`
	Outcome   string `json:"outcome"`
	Status    string `json:"status,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

type bulkResponse struct {
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Skipped   int                `json:"skipped"`
	Cancelled bool               `json:"cancelled"`
	Items     []bulkItemResponse `json:"items"`
}

type statsResponse struct {
	ByStatus map[string]int64 `json:"by_status"`
	Total    int64            `json:"total"`
}

type apiErrorResponse struct {
	Error         string `json:"error"`
	Kind          string `json:"kind"`
	CurrentStatus string `json:"current_status,omitempty"`
	Action        string `json:"action,omitempty"`
}

func newModerationHandler(svc moderationAPIService, routes apiRoutes) http.Handler {
	h := &moderationHTTPHandler{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogContext)
	r.Use(middleware.Recoverer)

	r.Route("/records", func(r chi.Router) {
		r.Get("/", h.handleListQueue)
		r.Post("/", h.handleIngest)
		r.Get("/{id}", h.handleGetRecord)
		r.Post("/{id}/transitions", h.handleTransition)
		r.Post("/{id}/appeal", h.handleAppeal)
		r.Post("/{id}/scores", h.handleScores)
	})
	r.Post("/bulk", h.handleBulk)
	r.Get("/stats", h.handleStats)
	if routes.Stream != nil {
		r.Handle("/events/ws", routes.Stream)
	}
	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics)
	}
	return r
}

// requestLogContext tags every log line of a request with its request id.
func requestLogContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequest(r.Context(), middleware.GetReqID(r.Context()), r.Header.Get("X-Actor-ID"))
		ctx = logging.WithAttrs(ctx,
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *moderationHTTPHandler) handleListQueue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeAPIError(w, r, domainmoderation.NewValidationError("limit", "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	filter, err := parseQueueFilter(q.Get("status"), q.Get("kind"), q.Get("quality"), q.Get("spam"), q.Get("flag"), limit)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	items, err := h.svc.ListQueue(r.Context(), filter)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	out := make([]recordResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toRecordResponse(item.Record))
	}
	writeAPIJSON(w, http.StatusOK, out)
}

func (h *moderationHTTPHandler) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !decodeAPIRequest(w, r, &req) {
		return
	}
	record, err := h.svc.IngestRecord(r.Context(), moderation.IngestInput{
		ID:           req.ID,
		Kind:         req.Kind,
		AuthorID:     req.AuthorID,
		AuthorName:   req.AuthorName,
		Body:         req.Body,
		Flags:        req.Flags,
		QualityScore: req.QualityScore,
		SpamScore:    req.SpamScore,
		SubmittedAt:  req.SubmittedAt,
	})
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeAPIJSON(w, http.StatusCreated, toRecordResponse(record))
}

func (h *moderationHTTPHandler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	record, err := h.svc.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, toRecordResponse(record))
}

func (h *moderationHTTPHandler) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if !decodeAPIRequest(w, r, &req) {
		return
	}
	action, err := domainmoderation.ParseAction(req.Action)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	record, err := h.svc.ApplyTransition(r.Context(), moderation.TransitionInput{
		RecordID: chi.URLParam(r, "id"),
		Action:   action,
		ActorID:  req.ActorID,
		Reason:   req.Reason,
		Quick:    req.Quick,
	})
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, toRecordResponse(record))
}

func (h *moderationHTTPHandler) handleAppeal(w http.ResponseWriter, r *http.Request) {
	var req appealRequest
	if !decodeAPIRequest(w, r, &req) {
		return
	}
	record, err := h.svc.SubmitAppeal(r.Context(), moderation.AppealInput{
		RecordID: chi.URLParam(r, "id"),
		ActorID:  req.ActorID,
		Reason:   req.Reason,
	})
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, toRecordResponse(record))
}

func (h *moderationHTTPHandler) handleScores(w http.ResponseWriter, r *http.Request) {
	var req scoresRequest
	if !decodeAPIRequest(w, r, &req) {
		return
	}
	if req.QualityScore == nil || req.SpamScore == nil {
		writeAPIError(w, r, domainmoderation.NewValidationError("scores", "quality_score and spam_score are required"))
		return
	}
	record, err := h.svc.Rescore(r.Context(), moderation.RescoreInput{
		RecordID:     chi.URLParam(r, "id"),
		QualityScore: *req.QualityScore,
		SpamScore:    *req.SpamScore,
	})
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, toRecordResponse(record))
}

func (h *moderationHTTPHandler) handleBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !decodeAPIRequest(w, r, &req) {
		return
	}
	action, err := domainmoderation.ParseAction(req.Action)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	result, err := h.svc.ApplyBulk(r.Context(), moderation.BulkInput{
		RecordIDs: req.RecordIDs,
		Action:    action,
		ActorID:   req.ActorID,
		Reason:    req.Reason,
		Quick:     req.Quick,
	})
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	out := bulkResponse{
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Skipped:   result.Skipped,
		Cancelled: result.Cancelled,
		Items:     make([]bulkItemResponse, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		out.Items = append(out.Items, bulkItemResponse{
			RecordID:  item.RecordID,
			Outcome:   string(item.Outcome),
			Status:    string(item.Status),
			ErrorKind: string(item.ErrorKind),
			Error:     item.Error,
		})
	}
	writeAPIJSON(w, http.StatusOK, out)
}

func (h *moderationHTTPHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.QueueStats(r.Context())
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	out := statsResponse{ByStatus: make(map[string]int64, len(stats.ByStatus)), Total: stats.Total}
	for status, count := range stats.ByStatus {
		out.ByStatus[string(status)] = count
	}
	writeAPIJSON(w, http.StatusOK, out)
}

func decodeAPIRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeAPIError(w, r, domainmoderation.NewValidationError("body", "invalid JSON body: "+err.Error()))
		return false
	}
	return true
}

func toRecordResponse(record domainmoderation.ContentRecord) recordResponse {
	flags := record.Flags
	if flags == nil {
		flags = []string{}
	}
	allowed := domainmoderation.AllowedActions(record.Status)
	actions := make([]string, 0, len(allowed))
	for _, a := range allowed {
		actions = append(actions, string(a))
	}

	out := recordResponse{
		ID:             record.ID,
		Kind:           string(record.Kind),
		AuthorID:       record.Author.ID,
		AuthorName:     record.Author.DisplayName,
		Body:           record.Body,
		SubmittedAt:    record.SubmittedAt,
		Status:         string(record.Status),
		Flags:          flags,
		QualityScore:   record.QualityScore,
		QualityBand:    string(domainmoderation.QualityBand(record.QualityScore)),
		SpamScore:      record.SpamScore,
		SpamBand:       string(domainmoderation.SpamBand(record.SpamScore)),
		ModeratorNotes: record.ModeratorNotes,
		Version:        record.Version,
		AllowedActions: actions,
	}
	for _, entry := range record.History {
		out.History = append(out.History, auditEntryResponse{
			Seq:         entry.Seq,
			Action:      string(entry.Action),
			ModeratorID: entry.ModeratorID,
			Timestamp:   entry.Timestamp,
			Reason:      entry.Reason,
			FromStatus:  string(entry.FromStatus),
			ToStatus:    string(entry.ToStatus),
		})
	}
	return out
}

func apiStatusCode(kind domainmoderation.ErrorKind) int {
	switch kind {
	case domainmoderation.ErrorKindNotFound:
		return http.StatusNotFound
	case domainmoderation.ErrorKindInvalidTransition, domainmoderation.ErrorKindConcurrentModification:
		return http.StatusConflict
	case domainmoderation.ErrorKindValidation:
		return http.StatusUnprocessableEntity
	case domainmoderation.ErrorKindCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domainmoderation.KindOf(err)
	status := apiStatusCode(kind)

	resp := apiErrorResponse{Error: err.Error(), Kind: string(kind)}
	var te *domainmoderation.TransitionError
	if errors.As(err, &te) {
		resp.CurrentStatus = string(te.Current)
		resp.Action = string(te.Action)
	}
	if status == http.StatusInternalServerError {
		logging.Error(r.Context(), "api request failed", slog.Any("err", errs.Loggable(err)))
		resp.Error = "internal error"
	}
	writeAPIJSON(w, status, resp)
}

func writeAPIJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
