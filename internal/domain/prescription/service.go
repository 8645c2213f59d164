package prescription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/activity"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
)

const entityPrescription = "prescription"

type Service struct {
	prescriptions PrescriptionRepository
	users         auth.UserResolver
	audit         activity.Auditor
	log           zerolog.Logger
}

func NewService(prescriptions PrescriptionRepository, users auth.UserResolver, audit activity.Auditor, logger zerolog.Logger) *Service {
	return &Service{
		prescriptions: prescriptions,
		users:         users,
		audit:         audit,
		log:           logger.With().Str("component", "prescription").Logger(),
	}
}

// CreatePrescription attributes the prescription to the acting user unless a
// prescriber is given.
func (s *Service) CreatePrescription(ctx context.Context, rx *Prescription) (*Prescription, error) {
	rx.MedicationName = strings.TrimSpace(rx.MedicationName)
	switch {
	case rx.PatientID == uuid.Nil:
		return nil, fmt.Errorf("%w: patient_id is required", db.ErrInvalid)
	case rx.MedicationName == "":
		return nil, fmt.Errorf("%w: medication_name is required", db.ErrInvalid)
	case rx.Dosage == "" || rx.Frequency == "":
		return nil, fmt.Errorf("%w: dosage and frequency are required", db.ErrInvalid)
	}
	if rx.PrescribedBy == nil {
		if uid, err := s.users.CurrentUserID(ctx); err == nil && uid != "" {
			rx.PrescribedBy = &uid
		}
	}

	if err := s.prescriptions.Create(ctx, rx); err != nil {
		s.log.Error().Err(err).Msg("Error creating prescription")
		return nil, err
	}

	s.audit.Log(ctx, activity.ActionCreate,
		activity.EntityDetails(entityPrescription, rx.ID, "Created prescription: "+rx.MedicationName))
	return rx, nil
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	rx, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.log.Error().Err(err).Str("id", id.String()).Msg("Error fetching prescription")
		}
		return nil, err
	}
	return rx, nil
}

func (s *Service) UpdatePrescription(ctx context.Context, id uuid.UUID, upd *PrescriptionUpdate) (*Prescription, error) {
	rx, err := s.prescriptions.Update(ctx, id, upd.Fields())
	if err != nil {
		s.log.Error().Err(err).Str("id", id.String()).Msg("Error updating prescription")
		return nil, err
	}

	description := "Updated prescription: ID: " + id.String()
	if upd != nil && upd.MedicationName != nil {
		description = "Updated prescription: " + *upd.MedicationName
	}
	s.audit.Log(ctx, activity.ActionUpdate, activity.EntityDetails(entityPrescription, id, description))
	return rx, nil
}

// DeletePrescription is a no-op when the prescription does not exist.
func (s *Service) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	rx, err := s.prescriptions.Delete(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id.String()).Msg("Error deleting prescription")
		return err
	}
	if rx == nil {
		return nil
	}

	s.audit.Log(ctx, activity.ActionDelete,
		activity.EntityDetails(entityPrescription, id, "Deleted prescription: "+rx.MedicationName))
	return nil
}

func (s *Service) TogglePrescriptionStatus(ctx context.Context, id uuid.UUID, current bool) (*Prescription, error) {
	rx, err := s.prescriptions.Update(ctx, id, map[string]interface{}{"active": !current})
	if err != nil {
		s.log.Error().Err(err).Str("id", id.String()).Msg("Error toggling prescription status")
		return nil, err
	}

	verb := "Deactivated"
	if rx.Active {
		verb = "Activated"
	}
	s.audit.Log(ctx, activity.ActionUpdate,
		activity.EntityDetails(entityPrescription, id, verb+" prescription: "+rx.MedicationName))
	return rx, nil
}

func (s *Service) SearchPrescriptions(ctx context.Context, params map[string]string, limit, offset int) ([]*Prescription, int, error) {
	items, total, err := s.prescriptions.Search(ctx, params, limit, offset)
	if err != nil && !errors.Is(err, db.ErrInvalid) {
		s.log.Error().Err(err).Msg("Error fetching prescriptions")
	}
	return items, total, err
}
