package extractor_test

import (
	"context"
	"errors"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	openai "github.com/sashabaranov/go-openai"

	"github.com/condorlabs/comprobantes/internal/extractor"
)

type fakeChatCompleter struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (f *fakeChatCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

const visionJSON = `{
	"rucEmisor": "20503000001",
	"tipoComprobante": "Factura",
	"serie": "E001",
	"correlativo": "123",
	"fechaEmision": "14-05-2025",
	"montoTotal": 1000,
	"moneda": "S/",
	"razonSocial": "Ferreteria Los Andes S.A.C."
}`

var _ = Describe("VisionModelExtractor", func() {
	var (
		completer *fakeChatCompleter
		ext       *extractor.VisionModelExtractor
		logger    *slog.Logger
	)

	BeforeEach(func() {
		completer = &fakeChatCompleter{content: visionJSON}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ext = extractor.NewVisionModelExtractor(completer, "gpt-4-turbo", logger)
	})

	Context("when the model returns a complete JSON object", func() {
		It("should parse all invoice fields", func() {
			data, err := ext.Extract(context.Background(), extractor.Source{
				ImageURL: "https://bucket.example.com/factura.jpg",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(data.RucEmisor).To(Equal("20503000001"))
			Expect(data.TipoComprobante).To(Equal("Factura"))
			Expect(data.Serie).To(Equal("E001"))
			Expect(data.Correlativo).To(Equal("123"))
			Expect(data.FechaEmision).To(Equal("14-05-2025"))
			Expect(data.MontoTotal.StringFixed(2)).To(Equal("1000.00"))
		})

		It("should pass the image URL to the model", func() {
			_, err := ext.Extract(context.Background(), extractor.Source{
				ImageURL: "https://bucket.example.com/factura.jpg",
			})

			Expect(err).NotTo(HaveOccurred())
			parts := completer.lastReq.Messages[0].MultiContent
			Expect(parts).To(HaveLen(2))
			Expect(parts[1].ImageURL.URL).To(Equal("https://bucket.example.com/factura.jpg"))
		})

		It("should inline raw bytes as a data URL when no URL is given", func() {
			_, err := ext.Extract(context.Background(), extractor.Source{
				Bytes:    []byte{0xFF, 0xD8},
				MimeType: "image/jpeg",
			})

			Expect(err).NotTo(HaveOccurred())
			parts := completer.lastReq.Messages[0].MultiContent
			Expect(parts[1].ImageURL.URL).To(HavePrefix("data:image/jpeg;base64,"))
		})

		It("should strip Markdown code fences around the JSON", func() {
			completer.content = "```json\n" + visionJSON + "\n```"

			data, err := ext.Extract(context.Background(), extractor.Source{
				ImageURL: "https://bucket.example.com/factura.jpg",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(data.Serie).To(Equal("E001"))
		})
	})

	Context("when the model cannot extract the data", func() {
		It("should fail on an empty object response", func() {
			completer.content = "{}"

			data, err := ext.Extract(context.Background(), extractor.Source{
				ImageURL: "https://bucket.example.com/factura.jpg",
			})

			Expect(data).To(BeNil())
			Expect(err).To(HaveOccurred())
		})

		It("should fail on non-JSON chatter", func() {
			completer.content = "I could not read this image, sorry."

			_, err := ext.Extract(context.Background(), extractor.Source{
				ImageURL: "https://bucket.example.com/factura.jpg",
			})

			Expect(err).To(HaveOccurred())
		})

		It("should fail when required fields are missing from the JSON", func() {
			completer.content = `{"rucEmisor": "20503000001", "serie": "E001"}`

			_, err := ext.Extract(context.Background(), extractor.Source{
				ImageURL: "https://bucket.example.com/factura.jpg",
			})

			Expect(err).To(HaveOccurred())
		})
	})

	Context("when the model request fails", func() {
		It("should surface an extraction error", func() {
			completer.err = errors.New("rate limited")

			_, err := ext.Extract(context.Background(), extractor.Source{
				ImageURL: "https://bucket.example.com/factura.jpg",
			})

			Expect(err).To(HaveOccurred())
		})
	})

	Context("when there is no image reference at all", func() {
		It("should fail before calling the model", func() {
			_, err := ext.Extract(context.Background(), extractor.Source{})

			Expect(err).To(HaveOccurred())
			Expect(completer.lastReq.Messages).To(BeEmpty())
		})
	})
})
