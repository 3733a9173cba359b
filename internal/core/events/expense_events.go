package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeExpenseCreated  = "expense.created"
	EventTypeExpenseApproved = "expense.approved"
	EventTypeExpenseRejected = "expense.rejected"
)

// ExpenseCreatedEvent fires after an expense record is persisted, whatever
// the SUNAT classification it received.
type ExpenseCreatedEvent struct {
	BaseEvent
	ExpenseID   string `json:"expense_id"`
	ClientID    string `json:"client_id"`
	ProjectID   string `json:"project_id"`
	CategoryID  string `json:"category_id"`
	CreatedBy   string `json:"created_by"`
	Serie       string `json:"serie"`
	Correlativo string `json:"correlativo"`
}

func NewExpenseCreatedEvent(expenseID, clientID, projectID, categoryID, createdBy, serie, correlativo string) *ExpenseCreatedEvent {
	return &ExpenseCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeExpenseCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"expense_id":  expenseID,
				"client_id":   clientID,
				"project_id":  projectID,
				"category_id": categoryID,
				"created_by":  createdBy,
				"serie":       serie,
				"correlativo": correlativo,
			},
		},
		ExpenseID:   expenseID,
		ClientID:    clientID,
		ProjectID:   projectID,
		CategoryID:  categoryID,
		CreatedBy:   createdBy,
		Serie:       serie,
		Correlativo: correlativo,
	}
}

type ExpenseApprovedEvent struct {
	BaseEvent
	ExpenseID  string `json:"expense_id"`
	ClientID   string `json:"client_id"`
	CreatedBy  string `json:"created_by"`
	ApprovedBy string `json:"approved_by"`
}

func NewExpenseApprovedEvent(expenseID, clientID, createdBy, approvedBy string) *ExpenseApprovedEvent {
	return &ExpenseApprovedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeExpenseApproved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"expense_id":  expenseID,
				"client_id":   clientID,
				"created_by":  createdBy,
				"approved_by": approvedBy,
			},
		},
		ExpenseID:  expenseID,
		ClientID:   clientID,
		CreatedBy:  createdBy,
		ApprovedBy: approvedBy,
	}
}

type ExpenseRejectedEvent struct {
	BaseEvent
	ExpenseID  string `json:"expense_id"`
	ClientID   string `json:"client_id"`
	CreatedBy  string `json:"created_by"`
	RejectedBy string `json:"rejected_by"`
	Reason     string `json:"reason"`
}

func NewExpenseRejectedEvent(expenseID, clientID, createdBy, rejectedBy, reason string) *ExpenseRejectedEvent {
	return &ExpenseRejectedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeExpenseRejected,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"expense_id":  expenseID,
				"client_id":   clientID,
				"created_by":  createdBy,
				"rejected_by": rejectedBy,
				"reason":      reason,
			},
		},
		ExpenseID:  expenseID,
		ClientID:   clientID,
		CreatedBy:  createdBy,
		RejectedBy: rejectedBy,
		Reason:     reason,
	}
}
