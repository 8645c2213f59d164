package sandbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/medservice"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/domain/prescription"
	"github.com/hms/hms/internal/platform/db"
)

// SeedConfig controls the volume of generated data.
type SeedConfig struct {
	MedicalServices         int   `json:"medicalServices"`
	Patients                int   `json:"patients"`
	PrescriptionsPerPatient int   `json:"prescriptionsPerPatient"`
	InvoicesPerPatient      int   `json:"invoicesPerPatient"`
	Seed                    int64 `json:"seed"`
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		MedicalServices:         len(serviceCatalogue),
		Patients:                25,
		PrescriptionsPerPatient: 2,
		InvoicesPerPatient:      2,
	}
}

// SeedResult summarizes a seed run.
type SeedResult struct {
	MedicalServices int           `json:"medicalServices"`
	Patients        int           `json:"patients"`
	Prescriptions   int           `json:"prescriptions"`
	Invoices        int           `json:"invoices"`
	Duration        time.Duration `json:"duration"`
}

type PatientCreator interface {
	CreatePatient(ctx context.Context, p *patient.Patient) (*patient.Patient, error)
}

type MedicalServiceCreator interface {
	CreateMedicalService(ctx context.Context, ms *medservice.MedicalService) (*medservice.MedicalService, error)
}

type PrescriptionCreator interface {
	CreatePrescription(ctx context.Context, rx *prescription.Prescription) (*prescription.Prescription, error)
}

type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, inv *billing.Invoice) (*billing.Invoice, error)
}

// Seeder writes generated records through the domain services.
type Seeder struct {
	Patients        PatientCreator
	MedicalServices MedicalServiceCreator
	Prescriptions   PrescriptionCreator
	Invoices        InvoiceCreator

	log zerolog.Logger
	now func() time.Time
}

func NewSeeder(patients PatientCreator, services MedicalServiceCreator, rx PrescriptionCreator, invoices InvoiceCreator, logger zerolog.Logger) *Seeder {
	return &Seeder{
		Patients:        patients,
		MedicalServices: services,
		Prescriptions:   rx,
		Invoices:        invoices,
		log:             logger.With().Str("component", "sandbox").Logger(),
		now:             time.Now,
	}
}

// Seed creates the configured volume of data and stops at the first store
// error. The partial result is returned alongside the error.
func (s *Seeder) Seed(ctx context.Context, cfg SeedConfig) (*SeedResult, error) {
	start := s.now()
	gen := NewDataGenerator(cfg.Seed, start)
	res := &SeedResult{}

	services := make([]*medservice.MedicalService, 0, cfg.MedicalServices)
	for i := 0; i < cfg.MedicalServices; i++ {
		ms, err := s.MedicalServices.CreateMedicalService(ctx, gen.GenerateMedicalService(i))
		if err != nil {
			return res, fmt.Errorf("seed medical service %d: %w", i+1, err)
		}
		services = append(services, ms)
		res.MedicalServices++
	}

	for i := 0; i < cfg.Patients; i++ {
		p, err := s.Patients.CreatePatient(ctx, gen.GeneratePatient())
		if err != nil {
			return res, fmt.Errorf("seed patient %d: %w", i+1, err)
		}
		res.Patients++

		for j := 0; j < cfg.PrescriptionsPerPatient; j++ {
			if _, err := s.Prescriptions.CreatePrescription(ctx, gen.GeneratePrescription(p.ID)); err != nil {
				return res, fmt.Errorf("seed prescription for %s: %w", p.FullName(), err)
			}
			res.Prescriptions++
		}

		for j := 0; j < cfg.InvoicesPerPatient; j++ {
			if err := s.createInvoice(ctx, gen.GenerateInvoice(p.ID, services)); err != nil {
				return res, fmt.Errorf("seed invoice for %s: %w", p.FullName(), err)
			}
			res.Invoices++
		}
	}

	res.Duration = s.now().Sub(start)
	s.log.Info().
		Int("medical_services", res.MedicalServices).
		Int("patients", res.Patients).
		Int("prescriptions", res.Prescriptions).
		Int("invoices", res.Invoices).
		Dur("duration", res.Duration).
		Msg("Sandbox data seeded")
	return res, nil
}

// createInvoice retries once when the generated number is already taken.
func (s *Seeder) createInvoice(ctx context.Context, inv *billing.Invoice) error {
	_, err := s.Invoices.CreateInvoice(ctx, inv)
	if errors.Is(err, db.ErrConflict) {
		s.log.Debug().Str("invoice_number", inv.InvoiceNumber).Msg("Invoice number taken, retrying")
		inv.InvoiceNumber = ""
		_, err = s.Invoices.CreateInvoice(ctx, inv)
	}
	return err
}
