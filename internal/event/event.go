package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeCustomerRegistered = "customer.registered"
	TypeLoanCreated        = "loan.created"
)

// Envelope wraps every published payload.
type Envelope struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

func NewEnvelope(eventType string, payload any) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

type CustomerRegisteredPayload struct {
	CustomerID    int64  `json:"customerId"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Age           int    `json:"age"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	MonthlySalary string `json:"monthlySalary"`
	ApprovedLimit string `json:"approvedLimit"`
}

type LoanCreatedPayload struct {
	LoanID             int64  `json:"loanId"`
	CustomerID         int64  `json:"customerId"`
	LoanAmount         string `json:"loanAmount"`
	InterestRate       string `json:"interestRate"`
	TenureMonths       int    `json:"tenure"`
	MonthlyInstallment string `json:"monthlyInstallment"`
	CreditScore        int    `json:"creditScore"`
	DateOfApproval     string `json:"dateOfApproval"`
	CurrentDebt        string `json:"currentDebt"`
}

type Publisher interface {
	PublishCustomerRegistered(ctx context.Context, payload CustomerRegisteredPayload) error
	PublishLoanCreated(ctx context.Context, payload LoanCreatedPayload) error
}
