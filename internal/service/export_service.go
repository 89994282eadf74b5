package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/citedocs-api/internal/dto"
	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/internal/workflow"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
	"github.com/noah-isme/citedocs-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var registerHeaders = []string{"Request ID", "Student ID", "Student Name", "Document", "Copies", "Date Needed", "Status", "Date Ready", "Submitted"}

type requestLister interface {
	List(ctx context.Context, query dto.RequestListQuery, actor *models.JWTClaims) ([]models.Request, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the registrar's request register.
type ExportService struct {
	requests requestLister
	csv      csvRenderer
	pdf      pdfRenderer
	audit    auditLogger
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(requests requestLister, csv csvRenderer, pdf pdfRenderer, audit auditLogger, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{requests: requests, csv: csv, pdf: pdf, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Register renders the projected request list in the requested format.
func (s *ExportService) Register(ctx context.Context, query dto.ExportQuery, actor *models.JWTClaims) (*ExportFile, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.IsRegistrar() {
		return nil, appErrors.ErrForbidden
	}
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	rows, err := s.requests.List(ctx, query.RequestListQuery, actor)
	if err != nil {
		return nil, err
	}
	dataset := buildRegisterDataset(rows)
	stamp := s.now().Format("20060102_150405")

	var file ExportFile
	switch format {
	case ExportFormatPDF:
		body, err := s.pdf.Render(dataset, "Document Request Register")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		file = ExportFile{Filename: fmt.Sprintf("requests_%s.pdf", stamp), ContentType: "application/pdf", Body: body}
	default:
		body, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		file = ExportFile{Filename: fmt.Sprintf("requests_%s.csv", stamp), ContentType: "text/csv", Body: body}
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:    &actor.UserID,
			Action:    models.AuditActionExport,
			Resource:  "request",
			NewValues: []byte(fmt.Sprintf(`{"format":%q,"rows":%d}`, format, len(rows))),
			IPAddress: "system",
			UserAgent: "export-service",
			CreatedAt: s.now(),
		}); err != nil {
			s.logger.Warn("failed to persist audit log", zap.Error(err))
		}
	}
	return &file, nil
}

func buildRegisterDataset(rows []models.Request) export.Dataset {
	data := export.Dataset{Headers: registerHeaders, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		dateReady := ""
		if row.DateReady != nil {
			dateReady = row.DateReady.String()
		}
		data.Rows = append(data.Rows, map[string]string{
			"Request ID":   workflow.FormatRequestID(row.RequestID),
			"Student ID":   row.StudentID,
			"Student Name": row.StudentName,
			"Document":     row.DocumentType.Name,
			"Copies":       strconv.Itoa(row.Copies),
			"Date Needed":  row.DateNeeded.String(),
			"Status":       string(row.Status),
			"Date Ready":   dateReady,
			"Submitted":    row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return data
}
