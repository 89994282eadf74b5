package client

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/citedocs-api/internal/dto"
	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/internal/workflow"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
)

// lookupConcurrency bounds parallel payment lookups of one refresh.
const lookupConcurrency = 8

// ErrStale is returned when a result belongs to a superseded refresh or a closed session.
var ErrStale = appErrors.New("STALE_RESULT", 0, "result discarded")

// Row pairs a request with its proof of payment, nil when none was uploaded.
type Row struct {
	Request models.Request  `json:"request"`
	Payment *models.Payment `json:"payment,omitempty"`
}

type api interface {
	ListRequests(ctx context.Context, query dto.RequestListQuery) ([]models.Request, error)
	PaymentByRequest(ctx context.Context, requestID int64) (*models.Payment, error)
	UpdateStatus(ctx context.Context, id int64, payload dto.UpdateStatusPayload) (*models.Request, error)
}

// Session holds the registrar's working copy of the request list.
type Session struct {
	api    api
	logger *zap.Logger

	mu         sync.Mutex
	generation uint64
	closed     bool
	rows       []Row
	updating   map[int64]struct{}
}

// NewSession starts an empty session on top of c.
func NewSession(c api, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{api: c, logger: logger, updating: make(map[int64]struct{})}
}

// Refresh reloads the list and the payments of every row. Rows are delivered only once all
// lookups finished; a refresh overtaken by a newer one or by Close returns ErrStale.
func (s *Session) Refresh(ctx context.Context, query dto.RequestListQuery) ([]Row, error) {
	gen, err := s.begin()
	if err != nil {
		return nil, err
	}

	requests, err := s.api.ListRequests(ctx, query)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i := range requests {
		rows[i].Request = requests[i]
		g.Go(func() error {
			payment, err := s.api.PaymentByRequest(gctx, requests[i].RequestID)
			if err != nil {
				return err
			}
			rows[i].Payment = payment
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.generation {
		s.logger.Debug("discarding stale refresh", zap.Uint64("generation", gen))
		return nil, ErrStale
	}
	s.rows = rows
	return cloneRows(rows), nil
}

// Rows returns a copy of the last delivered rows.
func (s *Session) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRows(s.rows)
}

// Updating reports whether a status change for id is in flight.
func (s *Session) Updating(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.updating[id]
	return busy
}

// UpdateStatus validates the change against the local row, then submits it with the local status
// as the expected status. Failures leave local state unchanged.
func (s *Session) UpdateStatus(ctx context.Context, id int64, payload dto.UpdateStatusPayload) (*models.Request, error) {
	next, ok := models.ParseRequestStatus(payload.Status)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status")
	}
	payload.Status = string(next)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStale
	}
	if _, busy := s.updating[id]; busy {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrValidation, "an update for this request is already in progress")
	}
	if row := s.find(id); row != nil {
		current := row.Request.Status
		if parsed, ok := models.ParseRequestStatus(string(current)); ok {
			current = parsed
		}
		if err := workflow.ValidateTransition(current, next); err != nil {
			s.mu.Unlock()
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, err.Error())
		}
		if payload.ExpectedStatus == "" {
			payload.ExpectedStatus = string(current)
		}
	}
	s.updating[id] = struct{}{}
	s.mu.Unlock()

	updated, err := s.api.UpdateStatus(ctx, id, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.updating, id)
	if err != nil {
		return nil, err
	}
	if s.closed {
		return nil, ErrStale
	}
	if row := s.find(id); row != nil && updated != nil {
		row.Request = *updated
	}
	return updated, nil
}

// Close dismisses the session. Results still in flight are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.generation++
	s.rows = nil
}

func (s *Session) begin() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStale
	}
	s.generation++
	return s.generation, nil
}

func (s *Session) find(id int64) *Row {
	for i := range s.rows {
		if s.rows[i].Request.RequestID == id {
			return &s.rows[i]
		}
	}
	return nil
}

func cloneRows(rows []Row) []Row {
	if rows == nil {
		return []Row{}
	}
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}
