package payments

import (
	"context"

	"tutor-billing/internal/domain/billing"
	"tutor-billing/internal/domain/students"
	stripeinfra "tutor-billing/internal/infra/stripe"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SetupRequest struct {
	StudentID uuid.UUID
	Email     string
	Name      string
}

type SetupResult struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// CardSetup issues the verification micro-charge used to save a card.
type CardSetup struct {
	Students StudentRepository
	Profiles ProfileRepository
	Gateway  Gateway
	Currency string
	Log      *zap.Logger
}

func (s *CardSetup) Setup(ctx context.Context, req SetupRequest) (*SetupResult, error) {
	if req.StudentID == uuid.Nil {
		return nil, billing.Validation("cardsetup", "studentId is required")
	}

	student, err := s.Students.Get(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	profile, err := s.Profiles.ByStudent(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	var customerID string
	if profile != nil && profile.StripeCustomerID != nil {
		customerID = *profile.StripeCustomerID
	}
	if customerID == "" {
		email, name, err := s.payerIdentity(ctx, req, student)
		if err != nil {
			return nil, err
		}
		customerID, err = s.Gateway.CreateCustomer(ctx, stripeinfra.CustomerParams{
			StudentID: student.ID,
			Email:     email,
			Name:      name,
		})
		if err != nil {
			return nil, err
		}
		if err := s.Profiles.SaveCustomer(ctx, student.ID, customerID); err != nil {
			return nil, err
		}
		s.Log.Info("stripe customer created",
			zap.String("student_id", student.ID.String()),
			zap.String("customer_id", customerID))
	}

	intent, err := s.Gateway.CreateVerificationIntent(ctx, stripeinfra.VerificationParams{
		CustomerID: customerID,
		StudentID:  student.ID,
		Currency:   s.Currency,
	})
	if err != nil {
		return nil, err
	}

	return &SetupResult{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

// payerIdentity fills missing email/name from the primary parent, then the
// student record.
func (s *CardSetup) payerIdentity(ctx context.Context, req SetupRequest, student *students.Student) (string, string, error) {
	email, name := req.Email, req.Name
	if email != "" && name != "" {
		return email, name, nil
	}

	parent, err := s.Students.PrimaryParent(ctx, req.StudentID)
	if err != nil {
		return "", "", err
	}
	if parent != nil {
		if email == "" && parent.ParentEmail != nil {
			email = *parent.ParentEmail
		}
		if name == "" {
			name = parent.ParentName
		}
	}

	if email == "" && student.Email != nil {
		email = *student.Email
	}
	if name == "" {
		name = student.FullName()
	}
	return email, name, nil
}
