package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/activity"
	"github.com/hms/hms/internal/platform/db"
)

const entityPatient = "patient"

type Service struct {
	patients PatientRepository
	audit    activity.Auditor
	log      zerolog.Logger
}

func NewService(patients PatientRepository, audit activity.Auditor, logger zerolog.Logger) *Service {
	return &Service{
		patients: patients,
		audit:    audit,
		log:      logger.With().Str("component", "patient").Logger(),
	}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" || p.LastName == "" {
		return nil, fmt.Errorf("%w: first_name and last_name are required", db.ErrInvalid)
	}

	if err := s.patients.Create(ctx, p); err != nil {
		s.log.Error().Err(err).Msg("Error creating patient")
		return nil, err
	}

	s.audit.Log(ctx, activity.ActionCreate,
		activity.EntityDetails(entityPatient, p.ID, "Created patient: "+p.FullName()))
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.log.Error().Err(err).Str("id", id.String()).Msg("Error fetching patient")
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, upd *PatientUpdate) (*Patient, error) {
	p, err := s.patients.Update(ctx, id, upd.Fields())
	if err != nil {
		s.log.Error().Err(err).Str("id", id.String()).Msg("Error updating patient")
		return nil, err
	}

	description := "Updated patient: ID: " + id.String()
	if upd.HasName() {
		description = "Updated patient: " + p.FullName()
	}
	s.audit.Log(ctx, activity.ActionUpdate, activity.EntityDetails(entityPatient, id, description))
	return p, nil
}

// DeletePatient is a no-op when the patient does not exist.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	p, err := s.patients.Delete(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id.String()).Msg("Error deleting patient")
		return err
	}
	if p == nil {
		return nil
	}

	s.audit.Log(ctx, activity.ActionDelete,
		activity.EntityDetails(entityPatient, id, "Deleted patient: "+p.FullName()))
	return nil
}

func (s *Service) TogglePatientStatus(ctx context.Context, id uuid.UUID, current bool) (*Patient, error) {
	p, err := s.patients.Update(ctx, id, map[string]interface{}{"active": !current})
	if err != nil {
		s.log.Error().Err(err).Str("id", id.String()).Msg("Error toggling patient status")
		return nil, err
	}

	verb := "Deactivated"
	if p.Active {
		verb = "Activated"
	}
	s.audit.Log(ctx, activity.ActionUpdate,
		activity.EntityDetails(entityPatient, id, verb+" patient: "+p.FullName()))
	return p, nil
}

func (s *Service) SearchPatients(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	items, total, err := s.patients.Search(ctx, params, limit, offset)
	if err != nil && !errors.Is(err, db.ErrInvalid) {
		s.log.Error().Err(err).Msg("Error fetching patients")
	}
	return items, total, err
}
