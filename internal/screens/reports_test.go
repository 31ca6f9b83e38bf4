package screens

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevenseas/backoffice/internal/models"
)

type fakeReportService struct {
	statementErr error
	receiptErr   error
}

func (f *fakeReportService) InvestorStatement(ctx context.Context, investorID int64) ([]byte, error) {
	if f.statementErr != nil {
		return nil, f.statementErr
	}
	return []byte("%PDF-1.4 statement"), nil
}

func (f *fakeReportService) PaymentReceipt(ctx context.Context, paymentID int64) ([]byte, error) {
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	return []byte("%PDF-1.4 receipt"), nil
}

type fakePaymentLister struct {
	payments []models.Payment
	err      error
}

func (f *fakePaymentLister) List(ctx context.Context, filters url.Values) ([]models.Payment, error) {
	return f.payments, f.err
}

func newReportsScreen(t *testing.T, reports *fakeReportService) (*ReportsScreen, *Notifier, string) {
	t.Helper()
	dir := t.TempDir()
	notify := NewNotifier(time.Minute)
	investors := &fakeInvestorLister{investors: []models.Investor{
		{ID: 4, FirstName: "Jane", LastName: "Doe", FullName: "Jane Doe"},
	}}
	payments := &fakePaymentLister{payments: []models.Payment{
		{ID: 9, InvestorName: "Jane Doe"},
	}}
	s := NewReportsScreen(reports, investors, payments, dir, notify, nil)
	require.NoError(t, s.Load(context.Background()))
	return s, notify, dir
}

func TestReportsDownloadStatementFilename(t *testing.T) {
	s, notify, dir := newReportsScreen(t, &fakeReportService{})

	path, err := s.DownloadStatement(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "statement_Doe_4.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 statement"), data)

	cur := notify.Current()
	require.NotNil(t, cur)
	assert.Equal(t, SeveritySuccess, cur.Severity)
	assert.False(t, s.DownloadingStatement())
}

func TestReportsDownloadReceiptFilename(t *testing.T) {
	s, _, dir := newReportsScreen(t, &fakeReportService{})

	path, err := s.DownloadReceipt(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "receipt_9_Jane Doe.pdf"), path)

	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.False(t, s.DownloadingReceipt())
}

func TestReportsDownloadStatementFailure(t *testing.T) {
	s, notify, dir := newReportsScreen(t, &fakeReportService{statementErr: errors.New("boom")})

	_, err := s.DownloadStatement(context.Background(), 4)
	require.Error(t, err)

	cur := notify.Current()
	require.NotNil(t, cur)
	assert.Equal(t, SeverityError, cur.Severity)
	assert.Equal(t, "Failed to download statement. Please try again.", cur.Message)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "no file may be written on a failed download")
}

func TestReportsDownloadReceiptFailure(t *testing.T) {
	s, notify, _ := newReportsScreen(t, &fakeReportService{receiptErr: errors.New("boom")})

	_, err := s.DownloadReceipt(context.Background(), 9)
	require.Error(t, err)
	cur := notify.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "Failed to download receipt. Please try again.", cur.Message)
}

func TestReportsUnknownSelection(t *testing.T) {
	s, notify, _ := newReportsScreen(t, &fakeReportService{})

	_, err := s.DownloadStatement(context.Background(), 999)
	require.Error(t, err)
	_, err = s.DownloadReceipt(context.Background(), 999)
	require.Error(t, err)
	assert.Nil(t, notify.Current())
}

func TestReportsLoadIsAllOrNothing(t *testing.T) {
	notify := NewNotifier(time.Minute)
	investors := &fakeInvestorLister{}
	payments := &fakePaymentLister{err: errors.New("boom")}
	s := NewReportsScreen(&fakeReportService{}, investors, payments, t.TempDir(), notify, nil)

	require.Error(t, s.Load(context.Background()))
	assert.Error(t, s.Err())
	assert.Empty(t, s.Investors())
	assert.Empty(t, s.Payments())
}
