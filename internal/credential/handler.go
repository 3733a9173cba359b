package credential

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/condorlabs/comprobantes/internal/sunat"
	"github.com/condorlabs/comprobantes/internal/transport"
	"github.com/condorlabs/comprobantes/pkg/logger"
)

type ServiceAPI interface {
	Create(dto CreateCredentialDTO) (*Credential, error)
	Get(clientID string) (*Credential, error)
	Update(clientID string, dto UpdateCredentialDTO) (*Credential, error)
	Delete(clientID string) error
}

// TokenService is the slice of the SUNAT gateway used by the credential
// test endpoint.
type TokenService interface {
	GetToken(ctx context.Context, clientID string) (*sunat.Token, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Tokens  TokenService
}

func NewHandler(service ServiceAPI, tokens TokenService) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     service,
		Tokens:      tokens,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateCredentialDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cred, err := h.Service.Create(dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, cred)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cred, err := h.Service.Get(chi.URLParam(r, "clientId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, cred)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var dto UpdateCredentialDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cred, err := h.Service.Update(chi.URLParam(r, "clientId"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, cred)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(chi.URLParam(r, "clientId")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TestToken performs an on-demand token exchange so an admin can verify a
// credential set. Auth failures surface directly here, unlike the creation
// pipeline where they degrade to a status.
func (h *Handler) TestToken(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientId")

	token, err := h.Tokens.GetToken(r.Context(), clientID)
	if err != nil {
		h.Logger.Error("sunat token test failed", "error", err, "client_id", clientID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token_type": token.TokenType,
		"expires_in": token.ExpiresIn,
		"active":     true,
	})
}
