package sunat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/condorlabs/comprobantes/internal"
	"github.com/condorlabs/comprobantes/internal/extractor"
)

const defaultScope = "https://api.sunat.gob.pe/v1/contribuyente/contribuyentes"

// Credentials are the per-client OAuth2 secrets for the SUNAT extranet.
type Credentials struct {
	SunatClientID     string
	SunatClientSecret string
	RUC               string
}

// CredentialStore resolves the active credential set for a client and
// records a successful exchange.
type CredentialStore interface {
	GetActive(ctx context.Context, clientID string) (*Credentials, error)
	MarkActivated(ctx context.Context, clientID string) error
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ComprobanteStatus is the data block SUNAT returns for a known comprobante.
type ComprobanteStatus struct {
	EstadoCp      string   `json:"estadoCp"`
	EstadoRuc     string   `json:"estadoRuc,omitempty"`
	CondDomiRuc   string   `json:"condDomiRuc,omitempty"`
	Observaciones []string `json:"observaciones,omitempty"`
}

// RawResponse is the decoded validation payload. Raw keeps the original
// bytes so uninterpretable shapes can be echoed back verbatim.
type RawResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Cod     string             `json:"cod,omitempty"`
	Msg     string             `json:"msg,omitempty"`
	Data    *ComprobanteStatus `json:"data,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Client talks to the SUNAT extranet: the OAuth2 token endpoint and the
// comprobante validation endpoint. Tokens are exchanged fresh on every
// validation; SUNAT access tokens are short-lived and caching them across
// credential rotations is not worth the staleness risk.
type Client struct {
	store         CredentialStore
	tokenURL      string
	validationURL string
	scope         string
	httpClient    *http.Client
	logger        *slog.Logger
}

func NewClient(cfg internal.SunatConfig, store CredentialStore, logger *slog.Logger) *Client {
	scope := cfg.Scope
	if scope == "" {
		scope = defaultScope
	}
	return &Client{
		store:         store,
		tokenURL:      strings.TrimRight(cfg.TokenURL, "/"),
		validationURL: strings.TrimRight(cfg.ValidationURL, "/"),
		scope:         scope,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		logger:        logger,
	}
}

// GetToken performs the client-credentials exchange for a client's active
// credential set. Failures surface to the caller; there is no retry here.
func (c *Client) GetToken(ctx context.Context, clientID string) (*Token, error) {
	creds, err := c.store.GetActive(ctx, clientID)
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"scope":         {c.scope},
		"client_id":     {creds.SunatClientID},
		"client_secret": {creds.SunatClientSecret},
	}

	endpoint := fmt.Sprintf("%s/%s/oauth2/token/", c.tokenURL, url.PathEscape(creds.SunatClientID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, internal.ErrSunatAuth.WithCause(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("sunat token exchange failed", "error", err, "client_id", clientID)
		return nil, internal.ErrSunatAuth.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("sunat token endpoint returned error",
			"status", resp.StatusCode,
			"client_id", clientID,
			"body", string(body))
		return nil, internal.ErrSunatAuth.WithCause(fmt.Errorf("token endpoint returned status %d", resp.StatusCode))
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, internal.ErrSunatAuth.WithCause(err)
	}
	if token.AccessToken == "" {
		return nil, internal.ErrSunatAuth.WithCause(fmt.Errorf("token endpoint returned no access_token"))
	}

	if err := c.store.MarkActivated(ctx, clientID); err != nil {
		c.logger.Warn("could not mark sunat credentials active", "error", err, "client_id", clientID)
	}

	c.logger.Info("sunat token obtained", "client_id", clientID, "expires_in", token.ExpiresIn)
	return &token, nil
}

// ValidateComprobante posts the extracted invoice data to the validation
// endpoint. fechaEmision is sent with slashes, monto as a 2-decimal string.
func (c *Client) ValidateComprobante(ctx context.Context, clientRUC string, data *extractor.ExtractedInvoiceData, accessToken string) (*RawResponse, error) {
	payload := map[string]string{
		"numRuc":       data.RucEmisor,
		"codComp":      data.CodComp(),
		"numeroSerie":  data.Serie,
		"numero":       data.Correlativo,
		"fechaEmision": strings.ReplaceAll(data.FechaEmision, "-", "/"),
		"monto":        data.MontoTotal.StringFixed(2),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, internal.ErrSunatValidation.WithCause(err)
	}

	endpoint := fmt.Sprintf("%s/%s/validarcomprobante", c.validationURL, url.PathEscape(clientRUC))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, internal.ErrSunatValidation.WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("sunat validation request failed", "error", err, "ruc", clientRUC)
		return nil, internal.ErrSunatValidation.WithCause(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, internal.ErrSunatValidation.WithCause(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("sunat validation endpoint returned error",
			"status", resp.StatusCode,
			"ruc", clientRUC,
			"body", string(raw))
		return nil, internal.ErrSunatValidation.WithCause(fmt.Errorf("validation endpoint returned status %d", resp.StatusCode))
	}

	var decoded RawResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, internal.ErrSunatValidation.WithCause(err)
	}
	decoded.Raw = raw

	c.logger.Debug("sunat validation response",
		"serie", data.Serie,
		"correlativo", data.Correlativo,
		"success", decoded.Success,
		"cod", decoded.Cod)
	return &decoded, nil
}
