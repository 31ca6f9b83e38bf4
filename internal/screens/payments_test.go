package screens

import (
	"context"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevenseas/backoffice/internal/apierr"
	"github.com/sevenseas/backoffice/internal/models"
	"github.com/sevenseas/backoffice/internal/services"
)

type fakePaymentService struct {
	listCalls   int32
	verifyCalls int32
	failCalls   int32

	payments  []models.Payment
	lastDraft services.PaymentDraft
	verifyErr error
}

func (f *fakePaymentService) List(ctx context.Context, filters url.Values) ([]models.Payment, error) {
	atomic.AddInt32(&f.listCalls, 1)
	return f.payments, nil
}

func (f *fakePaymentService) Create(ctx context.Context, draft services.PaymentDraft) (*models.Payment, error) {
	f.lastDraft = draft
	return &models.Payment{ID: 50}, nil
}

func (f *fakePaymentService) Verify(ctx context.Context, id int64, notes string) (*models.Payment, error) {
	atomic.AddInt32(&f.verifyCalls, 1)
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &models.Payment{ID: id, PaymentStatus: models.PaymentVerified}, nil
}

func (f *fakePaymentService) Fail(ctx context.Context, id int64, reason string) (*models.Payment, error) {
	atomic.AddInt32(&f.failCalls, 1)
	return &models.Payment{ID: id, PaymentStatus: models.PaymentFailed}, nil
}

type fakeInvestorLister struct {
	calls     int32
	investors []models.Investor
}

func (f *fakeInvestorLister) List(ctx context.Context, filters url.Values) ([]models.Investor, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.investors, nil
}

type fakeSession struct{ user models.User }

func (f *fakeSession) User() *models.User { return &f.user }

func adminSession() *fakeSession {
	return &fakeSession{user: models.User{ID: 1, Username: "admin", Role: models.RoleAdmin}}
}

func viewerSession() *fakeSession {
	return &fakeSession{user: models.User{ID: 2, Username: "viewer", Role: models.RoleViewer}}
}

func samplePayments() []models.Payment {
	return []models.Payment{
		{ID: 10, InvestorName: "Jane Doe", PaymentStatus: models.PaymentPending},
		{ID: 11, InvestorName: "John Mwangi", PaymentStatus: models.PaymentVerified},
	}
}

func newPaymentsScreen(svc *fakePaymentService, session SessionInfo) (*PaymentsScreen, *Notifier) {
	notify := NewNotifier(time.Minute)
	return NewPaymentsScreen(svc, &fakeInvestorLister{}, session, notify, nil), notify
}

func TestPaymentsCanTransition(t *testing.T) {
	svc := &fakePaymentService{payments: samplePayments()}
	s, _ := newPaymentsScreen(svc, adminSession())
	require.NoError(t, s.Load(context.Background()))

	pending, verified := svc.payments[0], svc.payments[1]
	assert.True(t, s.CanTransition(pending))
	assert.False(t, s.CanTransition(verified))

	viewer, _ := newPaymentsScreen(svc, viewerSession())
	assert.False(t, viewer.CanTransition(pending))
}

func TestPaymentsVerifySuccess(t *testing.T) {
	svc := &fakePaymentService{payments: samplePayments()}
	s, notify := newPaymentsScreen(svc, adminSession())
	require.NoError(t, s.Load(context.Background()))

	require.NoError(t, s.Verify(context.Background(), 10, "wire confirmed"))

	assert.Equal(t, int32(1), atomic.LoadInt32(&svc.verifyCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&svc.listCalls))
	cur := notify.Current()
	require.NotNil(t, cur)
	assert.Equal(t, SeveritySuccess, cur.Severity)
	assert.Equal(t, "Payment #10 verified successfully.", cur.Message)
}

func TestPaymentsFailSuccess(t *testing.T) {
	svc := &fakePaymentService{payments: samplePayments()}
	s, notify := newPaymentsScreen(svc, adminSession())
	require.NoError(t, s.Load(context.Background()))

	require.NoError(t, s.Fail(context.Background(), 10, "bounced"))

	assert.Equal(t, int32(1), atomic.LoadInt32(&svc.failCalls))
	cur := notify.Current()
	require.NotNil(t, cur)
	assert.Equal(t, SeverityWarning, cur.Severity)
	assert.Equal(t, "Payment #10 marked as failed.", cur.Message)
}

func TestPaymentsVerifyGatedForViewer(t *testing.T) {
	svc := &fakePaymentService{payments: samplePayments()}
	s, _ := newPaymentsScreen(svc, viewerSession())
	require.NoError(t, s.Load(context.Background()))

	require.Error(t, s.Verify(context.Background(), 10, ""))
	assert.Zero(t, atomic.LoadInt32(&svc.verifyCalls))
}

func TestPaymentsVerifyGatedForNonPending(t *testing.T) {
	svc := &fakePaymentService{payments: samplePayments()}
	s, _ := newPaymentsScreen(svc, adminSession())
	require.NoError(t, s.Load(context.Background()))

	require.Error(t, s.Verify(context.Background(), 11, ""))
	require.Error(t, s.Fail(context.Background(), 11, ""))
	assert.Zero(t, atomic.LoadInt32(&svc.verifyCalls))
	assert.Zero(t, atomic.LoadInt32(&svc.failCalls))
}

func TestPaymentsVerifyGatedForUnknownID(t *testing.T) {
	svc := &fakePaymentService{payments: samplePayments()}
	s, _ := newPaymentsScreen(svc, adminSession())
	require.NoError(t, s.Load(context.Background()))

	require.Error(t, s.Verify(context.Background(), 404, ""))
	assert.Zero(t, atomic.LoadInt32(&svc.verifyCalls))
}

func TestPaymentsVerifyFailureKeepsList(t *testing.T) {
	svc := &fakePaymentService{
		payments:  samplePayments(),
		verifyErr: &apierr.StatusError{StatusCode: 403, Detail: "Only administrators can verify payments."},
	}
	s, notify := newPaymentsScreen(svc, adminSession())
	require.NoError(t, s.Load(context.Background()))

	require.Error(t, s.Verify(context.Background(), 10, ""))

	// No refetch; the pending payment stays available for retry.
	assert.Equal(t, int32(1), atomic.LoadInt32(&svc.listCalls))
	assert.Equal(t, models.PaymentPending, s.Payments()[0].PaymentStatus)
	cur := notify.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "Only administrators can verify payments.", cur.Message)
}

func TestPaymentsPreviewMatchesFixedRate(t *testing.T) {
	s, _ := newPaymentsScreen(&fakePaymentService{}, adminSession())

	assert.Equal(t, "KES 129,000", s.Preview("1000", models.USD))
	assert.Equal(t, "$100.00", s.Preview("12900", models.KES))
	assert.Empty(t, s.Preview("not-a-number", models.USD))
	assert.Empty(t, s.Preview("", models.USD))
}

func TestPaymentsOpenCreateSeedsDefaults(t *testing.T) {
	svc := &fakePaymentService{}
	investors := &fakeInvestorLister{investors: []models.Investor{{ID: 1, FullName: "Jane Doe"}}}
	notify := NewNotifier(time.Minute)
	s := NewPaymentsScreen(svc, investors, adminSession(), notify, nil)

	s.OpenCreate(context.Background())
	form := s.Form()
	require.NotNil(t, form)
	assert.Equal(t, string(models.PaymentEntryFee), form.Value("payment_type"))
	assert.Equal(t, string(models.USD), form.Value("currency"))
	assert.Equal(t, string(models.MethodBankTransfer), form.Value("payment_method"))
	assert.Equal(t, time.Now().Format("2006-01-02"), form.Value("payment_date"))

	// The options fetch runs in the background; the dialog does not wait.
	assert.Eventually(t, func() bool { return len(s.InvestorOptions()) == 1 },
		time.Second, 5*time.Millisecond)
	assert.False(t, s.LoadingInvestorOptions())
}

func TestPaymentsSubmitCarriesDraftAndReceipt(t *testing.T) {
	svc := &fakePaymentService{}
	s, notify := newPaymentsScreen(svc, adminSession())

	s.OpenCreate(context.Background())
	s.SetField("investor", "3")
	s.SetField("amount", "1500.00")
	s.SetField("quarter", "Q1-2025")
	s.AttachReceipt("wire.pdf", []byte("%PDF-1.4"))
	require.NoError(t, s.Submit(context.Background()))

	draft := svc.lastDraft
	assert.Equal(t, "3", draft.Investor)
	assert.Equal(t, "1500.00", draft.Amount)
	assert.Equal(t, "Q1-2025", draft.Quarter)
	require.NotNil(t, draft.Receipt)
	assert.Equal(t, "receipt_document", draft.Receipt.Field)
	assert.Equal(t, "wire.pdf", draft.Receipt.Filename)

	assert.Nil(t, s.Form())
	cur := notify.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "Payment has been recorded successfully.", cur.Message)
}

func TestPaymentsCloseDialogDropsReceipt(t *testing.T) {
	svc := &fakePaymentService{}
	s, _ := newPaymentsScreen(svc, adminSession())

	s.OpenCreate(context.Background())
	s.AttachReceipt("wire.pdf", []byte("%PDF-1.4"))
	s.CloseDialog()
	assert.Nil(t, s.Form())

	s.OpenCreate(context.Background())
	require.NoError(t, s.Submit(context.Background()))
	assert.Nil(t, svc.lastDraft.Receipt)
}
