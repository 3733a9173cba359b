package extractor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/condorlabs/comprobantes/internal"
)

// extractionPrompt instructs the vision model to return a bare JSON object
// matching ExtractedInvoiceData. Dates come back as dd-mm-yyyy and the
// currency as S/ or $; an empty object signals that extraction failed.
const extractionPrompt = `Eres un experto en contabilidad y finanzas en el Perú, especializado en facturas y boletas.
Extrae los datos del comprobante de la imagen y devuelve un único objeto JSON con estos campos:
- rucEmisor: RUC del emisor, siempre 11 dígitos; suele aparecer en la cabecera, a veces sin el título "RUC".
- tipoComprobante: por ejemplo "Factura" o "Boleta".
- serie: una letra seguida de números, por ejemplo E001; la serie del emisor suele estar en la cabecera.
- correlativo: número que sigue a la serie, por ejemplo en E001-123 el correlativo es 123.
- montoTotal: número, por ejemplo 1000.
- moneda: devuélvela siempre como "S/" o "$".
- razonSocial: nombre del emisor, suele estar en la cabecera sin título.
- direccionEmisor: dirección del emisor.
- fechaEmision: normaliza siempre al formato dd-mm-yyyy, por ejemplo 14-05-2025.
Reglas:
- Si hay dos RUC, series o razones sociales, elige los del emisor (cabecera del documento).
- Si no encuentras todos los datos necesarios, responde con un objeto vacío {}.
- Responde solo con el objeto JSON, sin comentarios ni explicaciones.`

// ChatCompleter is the slice of the OpenAI client the extractor needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// VisionModelExtractor sends the comprobante image to a vision-capable
// language model and parses the structured JSON it returns.
type VisionModelExtractor struct {
	client ChatCompleter
	model  string
	logger *slog.Logger
}

func NewVisionModelExtractor(client ChatCompleter, model string, logger *slog.Logger) *VisionModelExtractor {
	if model == "" {
		model = "gpt-4-turbo"
	}
	return &VisionModelExtractor{
		client: client,
		model:  model,
		logger: logger,
	}
}

// NewOpenAIVisionExtractor wires the extractor to the real OpenAI API.
func NewOpenAIVisionExtractor(apiKey, model string, logger *slog.Logger) *VisionModelExtractor {
	return NewVisionModelExtractor(openai.NewClient(apiKey), model, logger)
}

func (e *VisionModelExtractor) Extract(ctx context.Context, src Source) (*ExtractedInvoiceData, error) {
	imageURL := src.ImageURL
	if imageURL == "" {
		if len(src.Bytes) == 0 {
			return nil, internal.ErrExtractionFailed.WithCause(fmt.Errorf("no image reference"))
		}
		imageURL = fmt.Sprintf("data:%s;base64,%s", src.MimeType, base64.StdEncoding.EncodeToString(src.Bytes))
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     e.model,
		MaxTokens: 500,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: extractionPrompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
	})
	if err != nil {
		e.logger.Error("vision model request failed", "error", err, "model", e.model)
		return nil, internal.ErrExtractionFailed.WithCause(err)
	}
	if len(resp.Choices) == 0 {
		return nil, internal.ErrExtractionFailed.WithCause(fmt.Errorf("empty model response"))
	}

	raw := stripCodeFence(resp.Choices[0].Message.Content)
	if raw == "" || raw == "{}" {
		return nil, internal.ErrExtractionFailed.WithCause(fmt.Errorf("model could not extract invoice data"))
	}

	var data ExtractedInvoiceData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		e.logger.Error("vision response is not valid JSON", "error", err)
		return nil, internal.ErrExtractionFailed.WithCause(err)
	}

	if missing := data.MissingFields(); len(missing) > 0 {
		e.logger.Warn("vision extraction incomplete", "missing", missing)
		return nil, incompleteError(missing)
	}
	return &data, nil
}

// stripCodeFence removes Markdown fencing some models wrap around JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
