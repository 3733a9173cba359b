package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/condorlabs/comprobantes/internal/core/events"
)

// Recipient is a deliverable address resolved from the user directory.
type Recipient struct {
	ID    string
	Email string
	Name  string
}

// UserDirectory resolves recipients for a client. Implemented by the user
// service.
type UserDirectory interface {
	Recipient(ctx context.Context, userID string) (*Recipient, error)
	RecipientsByClient(ctx context.Context, clientID string) ([]Recipient, error)
}

const sendTimeout = 15 * time.Second

// Dispatcher turns expense lifecycle events into emails. Delivery is best
// effort per recipient; a failed send is logged and never interrupts the
// pipeline that published the event.
type Dispatcher struct {
	queue     *DeliveryQueue
	directory UserDirectory
	logger    *slog.Logger
}

func NewDispatcher(queue *DeliveryQueue, directory UserDirectory, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:     queue,
		directory: directory,
		logger:    logger,
	}
}

func (d *Dispatcher) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeExpenseCreated, d.HandleExpenseCreated)
	eventBus.Subscribe(events.EventTypeExpenseApproved, d.HandleExpenseApproved)
	eventBus.Subscribe(events.EventTypeExpenseRejected, d.HandleExpenseRejected)

	d.logger.Info("notification event handlers registered",
		"handlers", []string{events.EventTypeExpenseCreated, events.EventTypeExpenseApproved, events.EventTypeExpenseRejected})
}

// HandleExpenseCreated notifies the creator and every collaborator of the
// client that a new comprobante is awaiting review.
func (d *Dispatcher) HandleExpenseCreated(ctx context.Context, event events.Event) error {
	created, ok := event.(*events.ExpenseCreatedEvent)
	if !ok {
		return fmt.Errorf("expected ExpenseCreatedEvent, got %T", event)
	}

	recipients, err := d.directory.RecipientsByClient(ctx, created.ClientID)
	if err != nil {
		d.logger.Error("could not resolve recipients for created notification",
			"error", err, "client_id", created.ClientID, "expense_id", created.ExpenseID)
		return nil
	}

	subject := "Nuevo comprobante registrado"
	body := fmt.Sprintf("Se registró un nuevo comprobante %s-%s y está pendiente de revisión.", created.Serie, created.Correlativo)
	for _, rcpt := range recipients {
		d.send(ctx, rcpt, subject, body, created.ExpenseID)
	}
	return nil
}

// HandleExpenseApproved notifies the creator (unless they approved their own
// record) and the client's other collaborators.
func (d *Dispatcher) HandleExpenseApproved(ctx context.Context, event events.Event) error {
	approved, ok := event.(*events.ExpenseApprovedEvent)
	if !ok {
		return fmt.Errorf("expected ExpenseApprovedEvent, got %T", event)
	}

	d.notifyDecision(ctx, decisionNotice{
		clientID:    approved.ClientID,
		expenseID:   approved.ExpenseID,
		createdBy:   approved.CreatedBy,
		decidedBy:   approved.ApprovedBy,
		subject:     "Comprobante aprobado",
		creatorBody: "Tu comprobante fue aprobado.",
		teamBody:    "Un comprobante del equipo fue aprobado.",
	})
	return nil
}

// HandleExpenseRejected notifies the creator and the client's other
// collaborators with the rejection reason.
func (d *Dispatcher) HandleExpenseRejected(ctx context.Context, event events.Event) error {
	rejected, ok := event.(*events.ExpenseRejectedEvent)
	if !ok {
		return fmt.Errorf("expected ExpenseRejectedEvent, got %T", event)
	}

	d.notifyDecision(ctx, decisionNotice{
		clientID:    rejected.ClientID,
		expenseID:   rejected.ExpenseID,
		createdBy:   rejected.CreatedBy,
		decidedBy:   rejected.RejectedBy,
		subject:     "Comprobante rechazado",
		creatorBody: fmt.Sprintf("Tu comprobante fue rechazado. Motivo: %s", rejected.Reason),
		teamBody:    fmt.Sprintf("Un comprobante del equipo fue rechazado. Motivo: %s", rejected.Reason),
	})
	return nil
}

type decisionNotice struct {
	clientID    string
	expenseID   string
	createdBy   string
	decidedBy   string
	subject     string
	creatorBody string
	teamBody    string
}

// notifyDecision delivers an approve/reject notice to the record's creator
// and fans out to the rest of the client's collaborators. The creator is
// skipped when they decided on their own record; the collaborator fan-out
// always excludes the creator so they never receive the notice twice.
func (d *Dispatcher) notifyDecision(ctx context.Context, notice decisionNotice) {
	if notice.createdBy != "" && notice.createdBy != notice.decidedBy {
		rcpt, err := d.directory.Recipient(ctx, notice.createdBy)
		if err != nil {
			d.logger.Error("could not resolve creator for decision notification",
				"error", err, "user_id", notice.createdBy, "expense_id", notice.expenseID)
		} else {
			d.send(ctx, *rcpt, notice.subject, notice.creatorBody, notice.expenseID)
		}
	}

	collaborators, err := d.directory.RecipientsByClient(ctx, notice.clientID)
	if err != nil {
		d.logger.Error("could not resolve collaborators for decision notification",
			"error", err, "client_id", notice.clientID, "expense_id", notice.expenseID)
		return
	}
	for _, rcpt := range collaborators {
		if rcpt.ID == notice.createdBy {
			continue
		}
		d.send(ctx, rcpt, notice.subject, notice.teamBody, notice.expenseID)
	}
}

func (d *Dispatcher) send(ctx context.Context, rcpt Recipient, subject, body, expenseID string) {
	if rcpt.Email == "" {
		return
	}

	d.queue.Enqueue(MailJob{
		To:        rcpt.Email,
		Subject:   subject,
		Body:      body,
		ExpenseID: expenseID,
	})
}
