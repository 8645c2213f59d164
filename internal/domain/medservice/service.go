package medservice

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

const entityMedicalService = "medical_service"

type Service struct {
	services MedicalServiceRepository
	audit    activity.Auditor
	log      zerolog.Logger
}

func NewService(services MedicalServiceRepository, audit activity.Auditor, logger zerolog.Logger) *Service {
	return &Service{
		services: services,
		audit:    audit,
		log:      logger.With().Str("component", "medservice").Logger(),
	}
}

func (s *Service) CreateMedicalService(ctx context.Context, ms *MedicalService) (*MedicalService, error) {
	ms.Name = strings.TrimSpace(ms.Name)
	if ms.Name == "" {
		return nil, fmt.Errorf("%w: name is required", db.ErrInvalid)
	}
	if ms.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", db.ErrInvalid)
	}

	if err := s.services.Create(ctx, ms); err != nil {
		s.log.Error().Err(err).Msg("Error creating medical service")
		return nil, err
	}

	s.audit.Log(ctx, activity.ActionCreate,
		activity.EntityDetails(entityMedicalService, ms.ID, "Created medical service: "+ms.Name))
	return ms, nil
}

func (s *Service) GetMedicalService(ctx context.Context, id uuid.UUID) (*MedicalService, error) {
	ms, err := s.services.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.log.Error().Err(err).Str("id", id.String()).Msg("Error fetching medical service")
		}
		return nil, err
	}
	return ms, nil
}

func (s *Service) UpdateMedicalService(ctx context.Context, id uuid.UUID, upd *MedicalServiceUpdate) (*MedicalService, error) {
	if upd != nil && upd.Price != nil && upd.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", db.ErrInvalid)
	}

	ms, err := s.services.Update(ctx, id, upd.Fields())
	if err != nil {
		s.log.Error().Err(err).Str("id", id.String()).Msg("Error updating medical service")
		return nil, err
	}

	description := "Updated medical service: ID: " + id.String()
	if upd != nil && upd.Name != nil {
		description = "Updated medical service: " + *upd.Name
	}
	s.audit.Log(ctx, activity.ActionUpdate, activity.EntityDetails(entityMedicalService, id, description))
	return ms, nil
}

// DeleteMedicalService is a no-op when the service does not exist.
func (s *Service) DeleteMedicalService(ctx context.Context, id uuid.UUID) error {
	ms, err := s.services.Delete(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id.String()).Msg("Error deleting medical service")
		return err
	}
	if ms == nil {
		return nil
	}

	s.audit.Log(ctx, activity.ActionDelete,
		activity.EntityDetails(entityMedicalService, id, "Deleted medical service: "+ms.Name))
	return nil
}

// ToggleMedicalServiceStatus stores the negation of current, as last seen by
// the caller.
func (s *Service) ToggleMedicalServiceStatus(ctx context.Context, id uuid.UUID, current bool) (*MedicalService, error) {
	ms, err := s.services.Update(ctx, id, map[string]interface{}{"active": !current})
	if err != nil {
		s.log.Error().Err(err).Str("id", id.String()).Msg("Error toggling medical service status")
		return nil, err
	}

	verb := "Deactivated"
	if ms.Active {
		verb = "Activated"
	}
	s.audit.Log(ctx, activity.ActionUpdate,
		activity.EntityDetails(entityMedicalService, id, verb+" medical service: "+ms.Name))
	return ms, nil
}

func (s *Service) SearchMedicalServices(ctx context.Context, params map[string]string, limit, offset int) ([]*MedicalService, int, error) {
	items, total, err := s.services.Search(ctx, params, limit, offset)
	if err != nil && !errors.Is(err, db.ErrInvalid) {
		s.log.Error().Err(err).Msg("Error fetching medical services")
	}
	return items, total, err
}
