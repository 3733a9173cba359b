package expense

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"

	"github.com/condorlabs/comprobantes/internal"
	"github.com/condorlabs/comprobantes/internal/extractor"
	"github.com/condorlabs/comprobantes/internal/transport"
	"github.com/condorlabs/comprobantes/pkg/logger"
)

const maxUploadBytes = 10 << 20

type ServiceAPI interface {
	CreateFromSource(ctx context.Context, actorID string, dto AnalyzeImageDTO, src extractor.Source) (*Expense, error)
	Create(ctx context.Context, actorID string, dto CreateExpenseDTO) (*Expense, error)
	GetByID(ctx context.Context, id string) (*Expense, error)
	ListByClient(ctx context.Context, clientID string, filters ListFilters) ([]*Expense, error)
	Update(ctx context.Context, id string, dto UpdateExpenseDTO) (*Expense, error)
	Delete(ctx context.Context, id string) error
	Approve(ctx context.Context, id, actorID string) (*Expense, error)
	Reject(ctx context.Context, id, actorID string, dto RejectExpenseDTO) (*Expense, error)
	SunatValidationInfo(ctx context.Context, id string) (*SunatValidationInfo, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     service,
	}
}

// AnalyzeImage ingests a comprobante referenced by URL.
func (h *Handler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var dto AnalyzeImageDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actorID := internal.UserIDFromContext(r.Context())
	record, err := h.Service.CreateFromSource(r.Context(), actorID, dto, extractor.Source{ImageURL: dto.ImageURL})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, record)
}

// ValidateFile ingests an uploaded comprobante file (multipart form field
// "file").
func (h *Handler) ValidateFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	dto := AnalyzeImageDTO{
		ClientID:   r.FormValue("client_id"),
		ProjectID:  r.FormValue("project_id"),
		CategoryID: r.FormValue("category_id"),
		ImageURL:   r.FormValue("file_url"),
	}
	src := extractor.Source{
		Bytes:    content,
		MimeType: header.Header.Get("Content-Type"),
	}

	actorID := internal.UserIDFromContext(r.Context())
	record, err := h.Service.CreateFromSource(r.Context(), actorID, dto, src)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actorID := internal.UserIDFromContext(r.Context())
	record, err := h.Service.Create(r.Context(), actorID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		h.WriteError(w, http.StatusBadRequest, "client_id is required")
		return
	}

	records, err := h.Service.ListByClient(r.Context(), clientID, parseListFilters(r))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": records,
		"count":    len(records),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.Service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var dto UpdateExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	actorID := internal.UserIDFromContext(r.Context())
	record, err := h.Service.Approve(r.Context(), chi.URLParam(r, "id"), actorID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var dto RejectExpenseDTO
	if r.Body != nil {
		// tolerate an empty body; the service enforces the reason
		_ = json.NewDecoder(r.Body).Decode(&dto)
	}

	actorID := internal.UserIDFromContext(r.Context())
	record, err := h.Service.Reject(r.Context(), chi.URLParam(r, "id"), actorID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) SunatInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.Service.SunatValidationInfo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, info)
}

func parseListFilters(r *http.Request) ListFilters {
	q := r.URL.Query()
	filters := ListFilters{
		ProjectID:  q.Get("project_id"),
		CategoryID: q.Get("category_id"),
		Status:     q.Get("status"),
		CreatedBy:  q.Get("created_by"),
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
	}

	if v := q.Get("date_from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filters.DateFrom = &t
		}
	}
	if v := q.Get("date_to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filters.DateTo = &t
		}
	}
	if v := q.Get("amount_min"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			filters.AmountMin = &d
		}
	}
	if v := q.Get("amount_max"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			filters.AmountMax = &d
		}
	}
	return filters
}
