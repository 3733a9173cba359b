package expense_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/condorlabs/comprobantes/internal"
	"github.com/condorlabs/comprobantes/internal/expense"
	"github.com/condorlabs/comprobantes/internal/extractor"
)

type mockServiceAPI struct {
	record       *expense.Expense
	records      []*expense.Expense
	info         *expense.SunatValidationInfo
	err          error
	lastActorID  string
	lastDTO      interface{}
	lastFilters  expense.ListFilters
	lastClientID string
}

func (m *mockServiceAPI) CreateFromSource(ctx context.Context, actorID string, dto expense.AnalyzeImageDTO, src extractor.Source) (*expense.Expense, error) {
	m.lastActorID = actorID
	m.lastDTO = dto
	return m.record, m.err
}

func (m *mockServiceAPI) Create(ctx context.Context, actorID string, dto expense.CreateExpenseDTO) (*expense.Expense, error) {
	m.lastActorID = actorID
	m.lastDTO = dto
	return m.record, m.err
}

func (m *mockServiceAPI) GetByID(ctx context.Context, id string) (*expense.Expense, error) {
	return m.record, m.err
}

func (m *mockServiceAPI) ListByClient(ctx context.Context, clientID string, filters expense.ListFilters) ([]*expense.Expense, error) {
	m.lastClientID = clientID
	m.lastFilters = filters
	return m.records, m.err
}

func (m *mockServiceAPI) Update(ctx context.Context, id string, dto expense.UpdateExpenseDTO) (*expense.Expense, error) {
	m.lastDTO = dto
	return m.record, m.err
}

func (m *mockServiceAPI) Delete(ctx context.Context, id string) error {
	return m.err
}

func (m *mockServiceAPI) Approve(ctx context.Context, id, actorID string) (*expense.Expense, error) {
	m.lastActorID = actorID
	return m.record, m.err
}

func (m *mockServiceAPI) Reject(ctx context.Context, id, actorID string, dto expense.RejectExpenseDTO) (*expense.Expense, error) {
	m.lastActorID = actorID
	m.lastDTO = dto
	return m.record, m.err
}

func (m *mockServiceAPI) SunatValidationInfo(ctx context.Context, id string) (*expense.SunatValidationInfo, error) {
	return m.info, m.err
}

var _ = Describe("ExpenseHandler", func() {
	var (
		svc     *mockServiceAPI
		handler *expense.Handler
		router  chi.Router
	)

	BeforeEach(func() {
		svc = &mockServiceAPI{
			record: &expense.Expense{ID: "exp-1", ClientID: "client-1", Status: expense.StatusPending},
		}
		handler = expense.NewHandler(svc)

		router = chi.NewRouter()
		router.Post("/expenses/analyze", handler.AnalyzeImage)
		router.Get("/expenses", handler.List)
		router.Patch("/expenses/{id}/approve", handler.Approve)
		router.Patch("/expenses/{id}/reject", handler.Reject)
		router.Get("/expenses/{id}/sunat", handler.SunatInfo)
	})

	withActor := func(req *http.Request, userID string) *http.Request {
		return req.WithContext(internal.ContextWithUserID(req.Context(), userID))
	}

	Describe("AnalyzeImage", func() {
		It("should pass the authenticated actor to the service", func() {
			body, _ := json.Marshal(expense.AnalyzeImageDTO{
				ImageURL: "https://bucket.example.com/factura.jpg",
				ClientID: "client-1",
			})
			req := withActor(httptest.NewRequest(http.MethodPost, "/expenses/analyze", bytes.NewReader(body)), "user-1")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(svc.lastActorID).To(Equal("user-1"))
		})

		It("should map a duplicate comprobante to 409", func() {
			svc.err = internal.ErrDuplicateInvoice
			body, _ := json.Marshal(expense.AnalyzeImageDTO{
				ImageURL: "https://bucket.example.com/factura.jpg",
				ClientID: "client-1",
			})
			req := withActor(httptest.NewRequest(http.MethodPost, "/expenses/analyze", bytes.NewReader(body)), "user-1")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusConflict))

			var resp internal.Response
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Error.Code).To(Equal(internal.ErrCodeDuplicateInvoice))
		})

		It("should reject malformed JSON", func() {
			req := withActor(httptest.NewRequest(http.MethodPost, "/expenses/analyze", bytes.NewReader([]byte("{"))), "user-1")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("List", func() {
		It("should require client_id", func() {
			req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should parse filters from the query string", func() {
			req := httptest.NewRequest(http.MethodGet,
				"/expenses?client_id=client-1&status=approved&date_from=2025-01-01&amount_min=100.50&sort_by=fecha_emision&sort_order=asc", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(svc.lastClientID).To(Equal("client-1"))
			Expect(svc.lastFilters.Status).To(Equal("approved"))
			Expect(svc.lastFilters.DateFrom).NotTo(BeNil())
			Expect(svc.lastFilters.DateFrom.Format("2006-01-02")).To(Equal("2025-01-01"))
			Expect(svc.lastFilters.AmountMin).NotTo(BeNil())
			Expect(svc.lastFilters.AmountMin.Equal(decimal.RequireFromString("100.50"))).To(BeTrue())
			Expect(svc.lastFilters.SortBy).To(Equal("fecha_emision"))
			Expect(svc.lastFilters.SortOrder).To(Equal("asc"))
		})

		It("should wrap the records with a count", func() {
			svc.records = []*expense.Expense{svc.record}
			req := httptest.NewRequest(http.MethodGet, "/expenses?client_id=client-1", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			var resp map[string]json.RawMessage
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp).To(HaveKey("expenses"))
			Expect(string(resp["count"])).To(Equal("1"))
		})
	})

	Describe("Approve", func() {
		It("should use the authenticated user as the actor", func() {
			req := withActor(httptest.NewRequest(http.MethodPatch, "/expenses/exp-1/approve", nil), "manager-1")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(svc.lastActorID).To(Equal("manager-1"))
		})

		It("should map a terminal-state conflict to 409", func() {
			svc.err = internal.ErrInvalidTransition
			req := withActor(httptest.NewRequest(http.MethodPatch, "/expenses/exp-1/approve", nil), "manager-1")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("Reject", func() {
		It("should forward the reason from the body", func() {
			body, _ := json.Marshal(expense.RejectExpenseDTO{Reason: "falta sustento"})
			req := withActor(httptest.NewRequest(http.MethodPatch, "/expenses/exp-1/reject", bytes.NewReader(body)), "manager-1")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			dto, ok := svc.lastDTO.(expense.RejectExpenseDTO)
			Expect(ok).To(BeTrue())
			Expect(dto.Reason).To(Equal("falta sustento"))
		})

		It("should map a missing reason to 400", func() {
			svc.err = internal.ErrReasonRequired
			req := withActor(httptest.NewRequest(http.MethodPatch, "/expenses/exp-1/reject", nil), "manager-1")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("SunatInfo", func() {
		It("should return the validation info", func() {
			svc.info = &expense.SunatValidationInfo{
				ExpenseID:     "exp-1",
				Status:        expense.StatusSunatValid,
				HasValidation: true,
			}
			req := httptest.NewRequest(http.MethodGet, "/expenses/exp-1/sunat", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var info expense.SunatValidationInfo
			Expect(json.NewDecoder(w.Body).Decode(&info)).To(Succeed())
			Expect(info.HasValidation).To(BeTrue())
		})

		It("should map an unknown record to 404", func() {
			svc.err = internal.ErrExpenseNotFound
			req := httptest.NewRequest(http.MethodGet, "/expenses/no-such/sunat", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
