package payments

import (
	"context"
	"sync"
	"time"

	"tutor-billing/internal/domain/billing"
	"tutor-billing/internal/domain/sessions"
	"tutor-billing/internal/domain/students"
	stripeinfra "tutor-billing/internal/infra/stripe"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateCustomer(ctx context.Context, p stripeinfra.CustomerParams) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) CreateVerificationIntent(ctx context.Context, p stripeinfra.VerificationParams) (*stripeinfra.Intent, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripeinfra.Intent), args.Error(1)
}

func (m *mockGateway) ChargeOffSession(ctx context.Context, p stripeinfra.ChargeParams) (*stripeinfra.Intent, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripeinfra.Intent), args.Error(1)
}

func (m *mockGateway) Settlement(ctx context.Context, chargeID string) (*stripeinfra.Settlement, error) {
	args := m.Called(ctx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripeinfra.Settlement), args.Error(1)
}

func (m *mockGateway) RefundIntent(ctx context.Context, intentID string) error {
	return m.Called(ctx, intentID).Error(0)
}

func (m *mockGateway) PaymentMethodCard(ctx context.Context, paymentMethodID string) (*billing.Card, error) {
	args := m.Called(ctx, paymentMethodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Card), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyFailure(ctx context.Context, paymentID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// memPayments is an in-memory PaymentRepository.
type memPayments struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*billing.Payment
}

func newMemPayments(ps ...billing.Payment) *memPayments {
	m := &memPayments{rows: map[uuid.UUID]*billing.Payment{}}
	for i := range ps {
		p := ps[i]
		m.rows[p.ID] = &p
	}
	return m
}

func (m *memPayments) Create(_ context.Context, p *billing.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.rows[p.ID] = &cp
	return nil
}

func (m *memPayments) Get(_ context.Context, id uuid.UUID) (*billing.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, billing.NotFound("mem", "payment not found")
	}
	cp := *p
	return &cp, nil
}

func (m *memPayments) ExistsForAttendance(_ context.Context, attendanceID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.SessionsStudentsID == attendanceID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memPayments) ListRetryable(context.Context) ([]billing.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []billing.Payment
	for _, p := range m.rows {
		if p.Status == billing.StatusFailed && p.RetryCount < billing.MaxRetryAttempts {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPayments) Update(_ context.Context, id uuid.UUID, upd billing.PaymentUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.rows[id]; ok {
		upd.Apply(p)
	}
	return nil
}

func (m *memPayments) UpdateByAttendance(_ context.Context, attendanceID uuid.UUID, upd billing.PaymentUpdate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.rows {
		if p.SessionsStudentsID == attendanceID {
			upd.Apply(p)
			n++
		}
	}
	return n, nil
}

func (m *memPayments) FailByAttendance(_ context.Context, attendanceID uuid.UUID, message string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.rows {
		if p.SessionsStudentsID == attendanceID && p.Status != billing.StatusSucceeded {
			p.Status = billing.StatusFailed
			msg := message
			p.FailureMessage = &msg
			n++
		}
	}
	return n, nil
}

func (m *memPayments) Fail(_ context.Context, id uuid.UUID, message string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || p.Status == billing.StatusSucceeded {
		return 0, nil
	}
	p.Status = billing.StatusFailed
	msg := message
	p.FailureMessage = &msg
	return 1, nil
}

func (m *memPayments) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memPayments) all() []billing.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]billing.Payment, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, *p)
	}
	return out
}

type memProfiles struct {
	byStudent map[uuid.UUID]*billing.Profile
	saved     []string
}

func newMemProfiles(ps ...billing.Profile) *memProfiles {
	m := &memProfiles{byStudent: map[uuid.UUID]*billing.Profile{}}
	for i := range ps {
		p := ps[i]
		m.byStudent[p.StudentID] = &p
	}
	return m
}

func (m *memProfiles) ByStudent(_ context.Context, studentID uuid.UUID) (*billing.Profile, error) {
	p, ok := m.byStudent[studentID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) SaveCustomer(_ context.Context, studentID uuid.UUID, customerID string) error {
	m.saved = append(m.saved, customerID)
	p, ok := m.byStudent[studentID]
	if !ok {
		p = &billing.Profile{ID: uuid.New(), StudentID: studentID}
		m.byStudent[studentID] = p
	}
	p.StripeCustomerID = &customerID
	return nil
}

func (m *memProfiles) SaveVerifiedCard(_ context.Context, customerID, paymentMethodID string, card billing.Card, verifiedAt time.Time) (int64, error) {
	var n int64
	for _, p := range m.byStudent {
		if p.StripeCustomerID != nil && *p.StripeCustomerID == customerID {
			pm := paymentMethodID
			p.DefaultPaymentMethodID = &pm
			p.CardBrand = &card.Brand
			p.CardLast4 = &card.Last4
			p.CardCountry = &card.Country
			at := verifiedAt
			p.VerifiedAt = &at
			n++
		}
	}
	return n, nil
}

type staticSettings struct {
	fees billing.FeeSettings
	err  error
}

func (s staticSettings) FeeSettings(context.Context) (billing.FeeSettings, error) {
	return s.fees, s.err
}

type memAttendance struct {
	rows     []sessions.Attendance
	from, to time.Time
}

func (m *memAttendance) BillableBetween(_ context.Context, from, to time.Time) ([]sessions.Attendance, error) {
	m.from, m.to = from, to
	var out []sessions.Attendance
	for _, r := range m.rows {
		starts := r.Session.StartsAt
		if r.PlannedAbsence || starts.Before(from) || starts.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type memSubsidies struct {
	rows []billing.Subsidy
}

func (m *memSubsidies) Active(_ context.Context, studentID, subjectID uuid.UUID, billingType string, at time.Time) (*billing.Subsidy, error) {
	for i := range m.rows {
		s := m.rows[i]
		if s.StudentID == studentID && s.SubjectID == subjectID && s.BillingType == billingType && s.ActiveAt(at) {
			return &s, nil
		}
	}
	return nil, nil
}

type memStudents struct {
	students map[uuid.UUID]students.Student
	parents  map[uuid.UUID]students.ParentStudent
}

func (m *memStudents) Get(_ context.Context, id uuid.UUID) (*students.Student, error) {
	s, ok := m.students[id]
	if !ok {
		return nil, billing.NotFound("mem", "student not found")
	}
	return &s, nil
}

func (m *memStudents) PrimaryParent(_ context.Context, studentID uuid.UUID) (*students.ParentStudent, error) {
	p, ok := m.parents[studentID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

func ptr[T any](v T) *T { return &v }

func chargeableProfile(studentID uuid.UUID, country string) billing.Profile {
	return billing.Profile{
		ID:                     uuid.New(),
		StudentID:              studentID,
		StripeCustomerID:       ptr("cus_" + studentID.String()[:8]),
		DefaultPaymentMethodID: ptr("pm_" + studentID.String()[:8]),
		CardCountry:            ptr(country),
	}
}
