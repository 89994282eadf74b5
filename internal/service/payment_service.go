package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/internal/repository"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
	"github.com/noah-isme/citedocs-api/pkg/storage"
)

const paymentsDir = "payments"

type paymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByRequestID(ctx context.Context, requestID int64) (*models.Payment, error)
}

type requestGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Request, error)
}

type fileStorage interface {
	SaveStream(filename string, r io.Reader) (int64, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type urlSigner interface {
	Generate(subject, relPath string) (string, time.Time, error)
	Parse(token string) (subject, relPath string, expiresAt time.Time, err error)
}

// PaymentUpload carries the multipart proof of payment.
type PaymentUpload struct {
	RequestID int64
	Filename  string
	Size      int64
	MimeType  string
	Content   io.ReadSeeker
	Remarks   string
}

// PaymentDownload bundles an opened proof file for streaming.
type PaymentDownload struct {
	File      *os.File
	Filename  string
	MimeType  string
	SizeBytes int64
	ExpiresAt time.Time
}

// PaymentServiceConfig bounds uploads and builds download links.
type PaymentServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	APIPrefix    string
}

// PaymentService stores and serves proof of payment files.
type PaymentService struct {
	payments paymentStore
	requests requestGetter
	storage  fileStorage
	signer   urlSigner
	audit    auditLogger
	logger   *zap.Logger
	cfg      PaymentServiceConfig
	mimeSet  map[string]struct{}
	now      func() time.Time
}

// NewPaymentService constructs the service.
func NewPaymentService(payments paymentStore, requests requestGetter, store fileStorage, signer urlSigner, audit auditLogger, logger *zap.Logger, cfg PaymentServiceConfig) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png", "application/pdf"}
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mime := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(strings.TrimSpace(mime))] = struct{}{}
	}
	return &PaymentService{
		payments: payments,
		requests: requests,
		storage:  store,
		signer:   signer,
		audit:    audit,
		logger:   logger,
		cfg:      cfg,
		mimeSet:  mimeSet,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Upload attaches the single proof of payment of a student's request.
func (s *PaymentService) Upload(ctx context.Context, upload PaymentUpload, actor *models.JWTClaims) (*models.Payment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can upload proof of payment")
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "proofFile is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	mimeType, err := detectMime(upload.Content, upload.MimeType)
	if err != nil {
		return nil, err
	}
	if _, allowed := s.mimeSet[strings.ToLower(mimeType)]; !allowed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file type not allowed")
	}

	req, err := s.requests.GetByID(ctx, upload.RequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if req.UserID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}

	original := storage.SanitizeFilename(upload.Filename)
	relPath := fmt.Sprintf("%s/%d_%s", paymentsDir, s.now().UnixMilli(), original)
	written, err := s.storage.SaveStream(relPath, upload.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store proof of payment")
	}

	payment := &models.Payment{
		RequestID:      req.RequestID,
		ProofOfPayment: relPath,
		OriginalName:   original,
		ContentType:    mimeType,
		SizeBytes:      written,
		Remarks:        optionalString(upload.Remarks),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		_ = s.storage.Delete(relPath)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "proof of payment already uploaded")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	s.attachURL(payment)

	if s.audit != nil {
		resourceID := strconv.FormatInt(payment.RequestID, 10)
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			ID:         uuid.NewString(),
			UserID:     &actor.UserID,
			Action:     models.AuditActionPaymentUpload,
			Resource:   "payment",
			ResourceID: &resourceID,
			NewValues:  []byte(fmt.Sprintf(`{"file":%q,"size":%d}`, payment.OriginalName, payment.SizeBytes)),
			IPAddress:  "system",
			UserAgent:  "payment-service",
			CreatedAt:  s.now(),
		}); err != nil {
			s.logger.Warn("failed to persist audit log", zap.Error(err))
		}
	}
	return payment, nil
}

// GetByRequest returns the payment of a request visible to actor.
func (s *PaymentService) GetByRequest(ctx context.Context, requestID int64, actor *models.JWTClaims) (*models.Payment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if !actor.IsRegistrar() && req.UserID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return s.lookup(ctx, requestID)
}

// Lookup returns the payment of a request without a visibility check, or nil when none was uploaded.
func (s *PaymentService) Lookup(ctx context.Context, requestID int64) (*models.Payment, error) {
	payment, err := s.lookup(ctx, requestID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}

// Download resolves a signed download token to the stored file.
func (s *PaymentService) Download(ctx context.Context, token string) (*PaymentDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	subject, relPath, expiresAt, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	requestID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid token subject")
	}
	payment, err := s.lookup(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if payment.ProofOfPayment != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open proof of payment")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read proof of payment")
	}
	return &PaymentDownload{
		File:      file,
		Filename:  payment.OriginalName,
		MimeType:  payment.ContentType,
		SizeBytes: info.Size(),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *PaymentService) lookup(ctx context.Context, requestID int64) (*models.Payment, error) {
	payment, err := s.payments.GetByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no proof of payment for request")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	s.attachURL(payment)
	return payment, nil
}

func (s *PaymentService) attachURL(payment *models.Payment) {
	if s.signer == nil || payment == nil {
		return
	}
	token, _, err := s.signer.Generate(strconv.FormatInt(payment.RequestID, 10), payment.ProofOfPayment)
	if err != nil {
		s.logger.Warn("failed to sign payment download", zap.Int64("request_id", payment.RequestID), zap.Error(err))
		return
	}
	payment.DownloadURL = strings.TrimRight(s.cfg.APIPrefix, "/") + "/payments/files/" + token
}

func detectMime(content io.ReadSeeker, declared string) (string, error) {
	if declared = strings.TrimSpace(declared); declared != "" {
		if idx := strings.Index(declared, ";"); idx >= 0 {
			declared = strings.TrimSpace(declared[:idx])
		}
		return declared, nil
	}
	header := make([]byte, 512)
	n, err := content.Read(header)
	if err != nil && err != io.EOF {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect file")
	}
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	if n == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "empty file")
	}
	mime := http.DetectContentType(header[:n])
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = mime[:idx]
	}
	return mime, nil
}
