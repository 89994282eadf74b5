package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/internal/repository"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
	"github.com/noah-isme/citedocs-api/pkg/storage"
)

type paymentStoreStub struct {
	payments map[int64]*models.Payment
}

func (p *paymentStoreStub) Create(ctx context.Context, payment *models.Payment) error {
	if _, exists := p.payments[payment.RequestID]; exists {
		return repository.ErrDuplicate
	}
	payment.PaymentID = int64(len(p.payments) + 1)
	payment.CreatedAt = fixedNow
	copy := *payment
	p.payments[payment.RequestID] = &copy
	return nil
}

func (p *paymentStoreStub) GetByRequestID(ctx context.Context, requestID int64) (*models.Payment, error) {
	payment, ok := p.payments[requestID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *payment
	return &copy, nil
}

func newPaymentFixture(t *testing.T) (*PaymentService, *paymentStoreStub, *storage.LocalStorage) {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store := &paymentStoreStub{payments: make(map[int64]*models.Payment)}
	requests := newRequestRepoStub(pendingRequest(1, "stu-1"), pendingRequest(2, "stu-2"))
	signer := storage.NewSignedURLSigner("secret", time.Minute)
	svc := NewPaymentService(store, requests, local, signer, &auditStub{}, nil, PaymentServiceConfig{MaxFileSize: 1024, APIPrefix: "/api"})
	svc.now = func() time.Time { return fixedNow }
	return svc, store, local
}

func pngUpload(requestID int64, size int) PaymentUpload {
	body := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, size)...)
	return PaymentUpload{RequestID: requestID, Filename: "../receipt 1.png", Size: int64(len(body)), Content: bytes.NewReader(body)}
}

func TestPaymentServiceUploadAndDownload(t *testing.T) {
	svc, store, _ := newPaymentFixture(t)

	payment, err := svc.Upload(context.Background(), pngUpload(1, 16), student)
	require.NoError(t, err)
	assert.Equal(t, "image/png", payment.ContentType)
	assert.Equal(t, "payments/1715333400000_receipt_1.png", payment.ProofOfPayment)
	assert.True(t, strings.HasPrefix(payment.DownloadURL, "/api/payments/files/"))
	require.Contains(t, store.payments, int64(1))

	token := strings.TrimPrefix(payment.DownloadURL, "/api/payments/files/")
	download, err := svc.Download(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close() //nolint:errcheck
	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Equal(t, payment.SizeBytes, int64(len(content)))
	assert.Equal(t, "receipt_1.png", download.Filename)
}

func TestPaymentServiceUploadRejections(t *testing.T) {
	svc, _, _ := newPaymentFixture(t)

	_, err := svc.Upload(context.Background(), pngUpload(1, 2048), student)
	assert.True(t, errors.Is(err, appErrors.ErrPayloadTooLarge))

	text := PaymentUpload{RequestID: 1, Filename: "notes.txt", Size: 5, Content: strings.NewReader("hello")}
	_, err = svc.Upload(context.Background(), text, student)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Upload(context.Background(), pngUpload(2, 8), student)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Upload(context.Background(), pngUpload(1, 8), registrar)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestPaymentServiceSecondUploadConflicts(t *testing.T) {
	svc, _, _ := newPaymentFixture(t)

	_, err := svc.Upload(context.Background(), pngUpload(1, 8), student)
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow.Add(time.Second) }
	_, err = svc.Upload(context.Background(), pngUpload(1, 8), student)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestPaymentServiceGetByRequest(t *testing.T) {
	svc, _, _ := newPaymentFixture(t)

	_, err := svc.GetByRequest(context.Background(), 1, registrar)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	missing, err := svc.Lookup(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = svc.GetByRequest(context.Background(), 2, student)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestPaymentServiceDownloadRejectsTamperedToken(t *testing.T) {
	svc, _, _ := newPaymentFixture(t)
	_, err := svc.Download(context.Background(), "bogus.token")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}
