package notification_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/condorlabs/comprobantes/internal/core/events"
	"github.com/condorlabs/comprobantes/internal/notification"
)

func TestNotification(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notification Suite")
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	attempts int
	sendErr  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (f *fakeMailer) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func (f *fakeMailer) deliveries() []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMail, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeMailer) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.To)
	}
	return out
}

type fakeDirectory struct {
	recipients map[string]notification.Recipient
	byClient   map[string][]notification.Recipient
	err        error
}

func (f *fakeDirectory) Recipient(ctx context.Context, userID string) (*notification.Recipient, error) {
	if f.err != nil {
		return nil, f.err
	}
	rcpt, ok := f.recipients[userID]
	if !ok {
		return nil, errors.New("user not found")
	}
	return &rcpt, nil
}

func (f *fakeDirectory) RecipientsByClient(ctx context.Context, clientID string) ([]notification.Recipient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byClient[clientID], nil
}

var _ = Describe("Dispatcher", func() {
	var (
		mailer     *fakeMailer
		directory  *fakeDirectory
		queue      *notification.DeliveryQueue
		dispatcher *notification.Dispatcher
		logger     *slog.Logger
		ctx        context.Context
	)

	BeforeEach(func() {
		mailer = &fakeMailer{}
		directory = &fakeDirectory{
			recipients: map[string]notification.Recipient{
				"user-1": {ID: "user-1", Email: "maria@condorlabs.pe", Name: "Maria"},
				"user-2": {ID: "user-2", Email: "jorge@condorlabs.pe", Name: "Jorge"},
				"user-3": {ID: "user-3", Email: "lucia@condorlabs.pe", Name: "Lucia"},
			},
			byClient: map[string][]notification.Recipient{
				"client-1": {
					{ID: "user-1", Email: "maria@condorlabs.pe", Name: "Maria"},
					{ID: "user-2", Email: "jorge@condorlabs.pe", Name: "Jorge"},
					{ID: "user-3", Email: "lucia@condorlabs.pe", Name: "Lucia"},
				},
			},
		}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		queue = notification.NewDeliveryQueue(mailer, notification.QueueConfig{MaxWorkers: 2, JobQueueSize: 10}, logger)
		dispatcher = notification.NewDispatcher(queue, directory, logger)
		ctx = context.Background()
	})

	AfterEach(func() {
		queue.Shutdown()
	})

	Describe("HandleExpenseCreated", func() {
		It("should notify the creator and every client collaborator", func() {
			event := events.NewExpenseCreatedEvent("exp-1", "client-1", "", "", "user-1", "E001", "123")

			err := dispatcher.HandleExpenseCreated(ctx, event)

			Expect(err).NotTo(HaveOccurred())
			Eventually(mailer.recipients, time.Second).Should(ConsistOf(
				"maria@condorlabs.pe", "jorge@condorlabs.pe", "lucia@condorlabs.pe"))
			for _, sent := range mailer.deliveries() {
				Expect(sent.Subject).To(Equal("Nuevo comprobante registrado"))
				Expect(sent.Body).To(ContainSubstring("E001-123"))
			}
		})

		It("should swallow directory failures", func() {
			directory.err = errors.New("db down")
			event := events.NewExpenseCreatedEvent("exp-1", "client-1", "", "", "user-1", "E001", "123")

			err := dispatcher.HandleExpenseCreated(ctx, event)

			Expect(err).NotTo(HaveOccurred())
			Consistently(mailer.deliveries, 100*time.Millisecond).Should(BeEmpty())
		})
	})

	Describe("HandleExpenseApproved", func() {
		It("should notify the creator and the remaining collaborators", func() {
			event := events.NewExpenseApprovedEvent("exp-1", "client-1", "user-1", "user-2")

			err := dispatcher.HandleExpenseApproved(ctx, event)

			Expect(err).NotTo(HaveOccurred())
			Eventually(mailer.recipients, time.Second).Should(ConsistOf(
				"maria@condorlabs.pe", "jorge@condorlabs.pe", "lucia@condorlabs.pe"))
			for _, sent := range mailer.deliveries() {
				Expect(sent.Subject).To(Equal("Comprobante aprobado"))
				if sent.To == "maria@condorlabs.pe" {
					Expect(sent.Body).To(Equal("Tu comprobante fue aprobado."))
				} else {
					Expect(sent.Body).To(ContainSubstring("del equipo"))
				}
			}
		})

		It("should skip the creator when they approved their own record", func() {
			event := events.NewExpenseApprovedEvent("exp-1", "client-1", "user-1", "user-1")

			err := dispatcher.HandleExpenseApproved(ctx, event)

			Expect(err).NotTo(HaveOccurred())
			Eventually(mailer.recipients, time.Second).Should(ConsistOf(
				"jorge@condorlabs.pe", "lucia@condorlabs.pe"))
			Consistently(mailer.recipients, 100*time.Millisecond).ShouldNot(ContainElement("maria@condorlabs.pe"))
		})
	})

	Describe("HandleExpenseRejected", func() {
		It("should notify the creator and collaborators with the reason", func() {
			event := events.NewExpenseRejectedEvent("exp-1", "client-1", "user-1", "user-2", "falta sustento")

			err := dispatcher.HandleExpenseRejected(ctx, event)

			Expect(err).NotTo(HaveOccurred())
			Eventually(mailer.recipients, time.Second).Should(ConsistOf(
				"maria@condorlabs.pe", "jorge@condorlabs.pe", "lucia@condorlabs.pe"))
			for _, sent := range mailer.deliveries() {
				Expect(sent.Subject).To(Equal("Comprobante rechazado"))
				Expect(sent.Body).To(ContainSubstring("falta sustento"))
			}
		})

		It("should reject events of the wrong type", func() {
			event := events.NewExpenseApprovedEvent("exp-1", "client-1", "user-1", "user-2")

			err := dispatcher.HandleExpenseRejected(ctx, event)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("DeliveryQueue", func() {
		It("should keep running when a delivery fails", func() {
			mailer.mu.Lock()
			mailer.sendErr = errors.New("smtp down")
			mailer.mu.Unlock()
			queue.Enqueue(notification.MailJob{To: "maria@condorlabs.pe", Subject: "x", Body: "y"})

			Eventually(mailer.attemptCount, time.Second).Should(Equal(1))

			mailer.mu.Lock()
			mailer.sendErr = nil
			mailer.mu.Unlock()
			queue.Enqueue(notification.MailJob{To: "jorge@condorlabs.pe", Subject: "x", Body: "y"})

			Eventually(mailer.deliveries, time.Second).Should(HaveLen(1))
			Expect(mailer.deliveries()[0].To).To(Equal("jorge@condorlabs.pe"))
		})
	})
})
