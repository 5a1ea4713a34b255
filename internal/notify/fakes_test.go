package notify

import (
	"context"
	"sync"
	"time"

	"tutor-billing/internal/domain/billing"
	"tutor-billing/internal/domain/messaging"
	"tutor-billing/internal/domain/students"
	twilioinfra "tutor-billing/internal/infra/twilio"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Send(ctx context.Context, p twilioinfra.SendParams) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

// memRepo is an in-memory Repository.
type memRepo struct {
	mu            sync.Mutex
	contacts      map[uuid.UUID]*messaging.Contact
	owned         []*messaging.OwnedNumber
	conversations map[uuid.UUID]*messaging.Conversation
	messages      map[uuid.UUID]*messaging.Message
	touchErr      error
}

func newMemRepo() *memRepo {
	return &memRepo{
		contacts:      map[uuid.UUID]*messaging.Contact{},
		conversations: map[uuid.UUID]*messaging.Conversation{},
		messages:      map[uuid.UUID]*messaging.Message{},
	}
}

func (m *memRepo) addContact(c messaging.Contact) *messaging.Contact {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.contacts[c.ID] = &c
	return &c
}

func (m *memRepo) addOwned(o messaging.OwnedNumber) *messaging.OwnedNumber {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	m.owned = append(m.owned, &o)
	return &o
}

func (m *memRepo) ContactForStudent(_ context.Context, studentID uuid.UUID) (*messaging.Contact, error) {
	for _, c := range m.contacts {
		if c.StudentID != nil && *c.StudentID == studentID && c.PhoneNumber != "" {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRepo) Contact(_ context.Context, id uuid.UUID) (*messaging.Contact, error) {
	c, ok := m.contacts[id]
	if !ok {
		return nil, billing.NotFound("mem", "contact not found")
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) UpsertContact(_ context.Context, phone string) (*messaging.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.PhoneNumber == phone {
			cp := *c
			return &cp, nil
		}
	}
	c := &messaging.Contact{ID: uuid.New(), PhoneNumber: phone}
	m.contacts[c.ID] = c
	cp := *c
	return &cp, nil
}

func (m *memRepo) FirstOwnedNumber(context.Context) (*messaging.OwnedNumber, error) {
	if len(m.owned) == 0 {
		return nil, nil
	}
	cp := *m.owned[0]
	return &cp, nil
}

func (m *memRepo) OwnedNumber(_ context.Context, id uuid.UUID) (*messaging.OwnedNumber, error) {
	for _, o := range m.owned {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, billing.NotFound("mem", "owned number not found")
}

func (m *memRepo) OwnedNumberByPhone(_ context.Context, phone string) (*messaging.OwnedNumber, error) {
	for _, o := range m.owned {
		if o.PhoneNumber == phone {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRepo) Conversation(_ context.Context, id uuid.UUID) (*messaging.Conversation, error) {
	c, ok := m.conversations[id]
	if !ok {
		return nil, billing.NotFound("mem", "conversation not found")
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) OpenConversation(_ context.Context, contactID, ownedNumberID uuid.UUID) (*messaging.Conversation, error) {
	for _, c := range m.conversations {
		if c.ContactID == contactID && c.OwnedNumberID == ownedNumberID && c.Status != messaging.ConversationClosed {
			cp := *c
			return &cp, nil
		}
	}
	c := &messaging.Conversation{ID: uuid.New(), ContactID: contactID, OwnedNumberID: ownedNumberID, Status: messaging.ConversationOpen}
	m.conversations[c.ID] = c
	cp := *c
	return &cp, nil
}

func (m *memRepo) TouchConversation(_ context.Context, id uuid.UUID, at time.Time) error {
	if m.touchErr != nil {
		return m.touchErr
	}
	if c, ok := m.conversations[id]; ok {
		t := at
		c.LastMessageAt = &t
	}
	return nil
}

func (m *memRepo) CreateMessage(_ context.Context, msg *messaging.Message) error {
	cp := *msg
	m.messages[msg.ID] = &cp
	return nil
}

func (m *memRepo) Message(_ context.Context, id uuid.UUID) (*messaging.Message, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, billing.NotFound("mem", "message not found")
	}
	cp := *msg
	return &cp, nil
}

func (m *memRepo) MessageByProviderID(_ context.Context, sid string) (*messaging.Message, error) {
	for _, msg := range m.messages {
		if msg.ProviderMessageID != nil && *msg.ProviderMessageID == sid {
			cp := *msg
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRepo) UpdateMessage(_ context.Context, id uuid.UUID, upd messaging.MessageUpdate) error {
	if msg, ok := m.messages[id]; ok {
		upd.Apply(msg)
	}
	return nil
}

type memPayments map[uuid.UUID]billing.Payment

func (m memPayments) Get(_ context.Context, id uuid.UUID) (*billing.Payment, error) {
	p, ok := m[id]
	if !ok {
		return nil, billing.NotFound("mem", "payment not found")
	}
	return &p, nil
}

type memStudents map[uuid.UUID]students.Student

func (m memStudents) Get(_ context.Context, id uuid.UUID) (*students.Student, error) {
	s, ok := m[id]
	if !ok {
		return nil, billing.NotFound("mem", "student not found")
	}
	return &s, nil
}

var testNow = time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)

func newService(repo *memRepo, payments memPayments, st memStudents, tr Transport) *Service {
	return &Service{
		Repo:              repo,
		Payments:          payments,
		Students:          st,
		Transport:         tr,
		StatusCallbackURL: "https://billing.example.com/twilio-status",
		Now:               func() time.Time { return testNow },
		Log:               zap.NewNop(),
	}
}

func ptr[T any](v T) *T { return &v }
