package customorder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

// Service defines custom order business logic.
type Service interface {
	// Submit records a storefront request in PENDING.
	Submit(ctx context.Context, req SubmitRequest) (*CustomOrder, error)

	Get(ctx context.Context, id uuid.UUID) (*CustomOrder, error)

	// List returns every custom order, or only those in status when it is set.
	List(ctx context.Context, status Status) ([]*CustomOrder, error)

	// UpdateStatus moves an order along the lifecycle, rejecting transitions it does not allow.
	UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*CustomOrder, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	log  logrus.FieldLogger
	now  func() time.Time
}

// NewService creates a new custom order service.
func NewService(repo Repository, log logrus.FieldLogger) Service {
	return &service{repo: repo, log: log.WithField("module", "customorder"), now: time.Now}
}

// validTransitions defines the allowed status state machine.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusReviewing, StatusCancelled},
	StatusReviewing: {StatusQuoted, StatusCancelled},
	StatusQuoted:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition reports whether an order in from may move to to.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s *service) Submit(ctx context.Context, req SubmitRequest) (*CustomOrder, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	if req.Budget != nil && req.Budget.IsNegative() {
		return nil, httpx.FieldError("budget", "must be at least 0")
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	o := &CustomOrder{
		ID:              uuid.New(),
		Number:          s.generateNumber(),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		Phone:           strings.TrimSpace(req.Phone),
		Email:           strings.TrimSpace(req.Email),
		City:            strings.TrimSpace(req.City),
		VehicleMake:     strings.TrimSpace(req.VehicleMake),
		VehicleModel:    strings.TrimSpace(req.VehicleModel),
		VehicleYear:     req.VehicleYear,
		PartDescription: strings.TrimSpace(req.PartDescription),
		Quantity:        qty,
		Budget:          req.Budget,
		Notes:           req.Notes,
		Status:          StatusPending,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"number": o.Number, "city": o.City}).Info("custom order submitted")
	return o, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CustomOrder, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, status Status) ([]*CustomOrder, error) {
	status = Status(strings.ToUpper(string(status)))
	if _, known := validTransitions[status]; status != "" && !known {
		return nil, httpx.FieldError("status", "is not a known status")
	}
	return s.repo.List(ctx, status)
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*CustomOrder, error) {
	req.Status = Status(strings.ToUpper(string(req.Status)))
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	if _, known := validTransitions[req.Status]; !known {
		return nil, httpx.FieldError("status", "is not a known status")
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, req.Status) {
		return nil, fmt.Errorf("%w: cannot move custom order from %s to %s", httpx.ErrConflict, o.Status, req.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status, req.AdminNotes); err != nil {
		return nil, err
	}
	o.Status = req.Status
	o.AdminNotes = req.AdminNotes
	return o, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// generateNumber creates a human-readable number: CO-YYYYMMDD-XXXX
func (s *service) generateNumber() string {
	date := s.now().UTC().Format("20060102")
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("CO-%s-%s", date, suffix)
}
