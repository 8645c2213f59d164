package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/activity"
	"github.com/hms/hms/internal/platform/db"
)

const entityInvoice = "invoice"

type Service struct {
	invoices InvoiceRepository
	numbers  *NumberGenerator
	audit    activity.Auditor
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(invoices InvoiceRepository, audit activity.Auditor, logger zerolog.Logger) *Service {
	log := logger.With().Str("component", "billing").Logger()
	return &Service{
		invoices: invoices,
		numbers:  NewNumberGenerator(invoices, log),
		audit:    audit,
		log:      log,
		now:      time.Now,
	}
}

// NextInvoiceNumber proposes a number for a new invoice without reserving it.
func (s *Service) NextInvoiceNumber(ctx context.Context) string {
	return s.numbers.Generate(ctx)
}

func (s *Service) CreateInvoice(ctx context.Context, inv *Invoice) (*Invoice, error) {
	if inv.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id is required", db.ErrInvalid)
	}
	if inv.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", db.ErrInvalid)
	}
	if inv.Status == "" {
		inv.Status = StatusPending
	}
	if !ValidStatus(inv.Status) {
		return nil, fmt.Errorf("%w: invalid status %q", db.ErrInvalid, inv.Status)
	}
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = s.numbers.Generate(ctx)
	}
	if inv.Status == StatusPaid && inv.PaidAt == nil {
		paidAt := s.now().UTC()
		inv.PaidAt = &paidAt
	}

	if err := s.invoices.Create(ctx, inv); err != nil {
		s.log.Error().Err(err).Str("invoice_number", inv.InvoiceNumber).Msg("Error creating invoice")
		return nil, err
	}

	s.audit.Log(ctx, activity.ActionCreate,
		activity.EntityDetails(entityInvoice, inv.ID, "Created invoice: "+inv.InvoiceNumber))
	return inv, nil
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.log.Error().Err(err).Str("id", id.String()).Msg("Error fetching invoice")
		}
		return nil, err
	}
	return inv, nil
}

func (s *Service) UpdateInvoice(ctx context.Context, id uuid.UUID, upd *InvoiceUpdate) (*Invoice, error) {
	if upd == nil {
		upd = &InvoiceUpdate{}
	}
	if upd.Status != nil && !ValidStatus(*upd.Status) {
		return nil, fmt.Errorf("%w: invalid status %q", db.ErrInvalid, *upd.Status)
	}
	if upd.Amount != nil && upd.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", db.ErrInvalid)
	}

	fields := upd.Fields()
	if upd.Status != nil {
		if *upd.Status == StatusPaid {
			fields["paid_at"] = s.now().UTC()
		} else {
			fields["paid_at"] = nil
		}
	}

	inv, err := s.invoices.Update(ctx, id, fields)
	if err != nil {
		s.log.Error().Err(err).Str("id", id.String()).Msg("Error updating invoice")
		return nil, err
	}

	description := "Updated invoice: ID: " + id.String()
	if upd.InvoiceNumber != nil {
		description = "Updated invoice: " + *upd.InvoiceNumber
	}
	s.audit.Log(ctx, activity.ActionUpdate, activity.EntityDetails(entityInvoice, id, description))
	return inv, nil
}

// MarkInvoicePaid sets the status to paid and stamps paid_at.
func (s *Service) MarkInvoicePaid(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.invoices.Update(ctx, id, map[string]interface{}{
		"status":  StatusPaid,
		"paid_at": s.now().UTC(),
	})
	if err != nil {
		s.log.Error().Err(err).Str("id", id.String()).Msg("Error marking invoice as paid")
		return nil, err
	}

	s.audit.Log(ctx, activity.ActionUpdate,
		activity.EntityDetails(entityInvoice, id, "Marked invoice as paid: "+inv.InvoiceNumber))
	return inv, nil
}

// DeleteInvoice is a no-op when the invoice does not exist.
func (s *Service) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	inv, err := s.invoices.Delete(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id.String()).Msg("Error deleting invoice")
		return err
	}
	if inv == nil {
		return nil
	}

	s.audit.Log(ctx, activity.ActionDelete,
		activity.EntityDetails(entityInvoice, id, "Deleted invoice: "+inv.InvoiceNumber))
	return nil
}

func (s *Service) SearchInvoices(ctx context.Context, params map[string]string, limit, offset int) ([]*Invoice, int, error) {
	items, total, err := s.invoices.Search(ctx, params, limit, offset)
	if err != nil && !errors.Is(err, db.ErrInvalid) {
		s.log.Error().Err(err).Msg("Error fetching invoices")
	}
	return items, total, err
}
