package sunat_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/condorlabs/comprobantes/internal"
	"github.com/condorlabs/comprobantes/internal/extractor"
	"github.com/condorlabs/comprobantes/internal/sunat"
)

type mockCredentialStore struct {
	creds       *sunat.Credentials
	getErr      error
	activatedID string
}

func (m *mockCredentialStore) GetActive(ctx context.Context, clientID string) (*sunat.Credentials, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.creds, nil
}

func (m *mockCredentialStore) MarkActivated(ctx context.Context, clientID string) error {
	m.activatedID = clientID
	return nil
}

var _ = Describe("Client", func() {
	var (
		store  *mockCredentialStore
		logger *slog.Logger
	)

	BeforeEach(func() {
		store = &mockCredentialStore{
			creds: &sunat.Credentials{
				SunatClientID:     "test-app-id",
				SunatClientSecret: "test-secret",
				RUC:               "20503000001",
			},
		}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	newClient := func(tokenURL, validationURL string) *sunat.Client {
		return sunat.NewClient(internal.SunatConfig{
			TokenURL:      tokenURL,
			ValidationURL: validationURL,
			Timeout:       5 * time.Second,
		}, store, logger)
	}

	Describe("GetToken", func() {
		It("should exchange client credentials for an access token", func() {
			var gotForm map[string]string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.URL.Path).To(Equal("/test-app-id/oauth2/token/"))
				Expect(r.ParseForm()).To(Succeed())
				gotForm = map[string]string{
					"grant_type":    r.PostFormValue("grant_type"),
					"client_id":     r.PostFormValue("client_id"),
					"client_secret": r.PostFormValue("client_secret"),
				}
				json.NewEncoder(w).Encode(sunat.Token{
					AccessToken: "abc123",
					TokenType:   "Bearer",
					ExpiresIn:   3600,
				})
			}))
			defer server.Close()

			client := newClient(server.URL, server.URL)

			token, err := client.GetToken(context.Background(), "client-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(token.AccessToken).To(Equal("abc123"))
			Expect(gotForm["grant_type"]).To(Equal("client_credentials"))
			Expect(gotForm["client_id"]).To(Equal("test-app-id"))
			Expect(gotForm["client_secret"]).To(Equal("test-secret"))
		})

		It("should mark the credentials active after a successful exchange", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(sunat.Token{AccessToken: "abc123"})
			}))
			defer server.Close()

			client := newClient(server.URL, server.URL)

			_, err := client.GetToken(context.Background(), "client-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(store.activatedID).To(Equal("client-1"))
		})

		It("should return an auth error when SUNAT rejects the credentials", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			client := newClient(server.URL, server.URL)

			token, err := client.GetToken(context.Background(), "client-1")

			Expect(token).To(BeNil())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeSunatAuthFailed))
		})

		It("should fail when the response carries no access token", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{"token_type": "Bearer"})
			}))
			defer server.Close()

			client := newClient(server.URL, server.URL)

			_, err := client.GetToken(context.Background(), "client-1")

			Expect(err).To(HaveOccurred())
		})

		It("should surface credential store failures", func() {
			store.getErr = internal.ErrCredentialsNotFound

			client := newClient("http://localhost:1", "http://localhost:1")

			_, err := client.GetToken(context.Background(), "client-1")

			Expect(err).To(Equal(internal.ErrCredentialsNotFound))
		})
	})

	Describe("ValidateComprobante", func() {
		var data *extractor.ExtractedInvoiceData

		BeforeEach(func() {
			data = &extractor.ExtractedInvoiceData{
				RucEmisor:       "20123456789",
				TipoComprobante: "Factura",
				Serie:           "E001",
				Correlativo:     "123",
				FechaEmision:    "14-05-2025",
				MontoTotal:      decimal.NewFromInt(1000),
			}
		})

		It("should post the comprobante fields in SUNAT's wire format", func() {
			var gotPayload map[string]string
			var gotAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/20503000001/validarcomprobante"))
				gotAuth = r.Header.Get("Authorization")
				Expect(json.NewDecoder(r.Body).Decode(&gotPayload)).To(Succeed())
				json.NewEncoder(w).Encode(map[string]interface{}{
					"success": true,
					"data":    map[string]string{"estadoCp": "0"},
				})
			}))
			defer server.Close()

			client := newClient(server.URL, server.URL)

			resp, err := client.ValidateComprobante(context.Background(), "20503000001", data, "abc123")

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Success).To(BeTrue())
			Expect(resp.Data.EstadoCp).To(Equal("0"))
			Expect(gotAuth).To(Equal("Bearer abc123"))
			Expect(gotPayload["numRuc"]).To(Equal("20123456789"))
			Expect(gotPayload["codComp"]).To(Equal("01"))
			Expect(gotPayload["numeroSerie"]).To(Equal("E001"))
			Expect(gotPayload["numero"]).To(Equal("123"))
			Expect(gotPayload["fechaEmision"]).To(Equal("14/05/2025"))
			Expect(gotPayload["monto"]).To(Equal("1000.00"))
		})

		It("should keep the raw body for uninterpretable payloads", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"unexpected":"shape"}`))
			}))
			defer server.Close()

			client := newClient(server.URL, server.URL)

			resp, err := client.ValidateComprobante(context.Background(), "20503000001", data, "abc123")

			Expect(err).NotTo(HaveOccurred())
			Expect(string(resp.Raw)).To(Equal(`{"unexpected":"shape"}`))
		})

		It("should return a validation error on non-2xx responses", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer server.Close()

			client := newClient(server.URL, server.URL)

			_, err := client.ValidateComprobante(context.Background(), "20503000001", data, "abc123")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeSunatValidation))
		})
	})
})
