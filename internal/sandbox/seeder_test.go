package sandbox

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/medservice"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/domain/prescription"
	"github.com/hms/hms/internal/platform/db"
)

var fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

type store struct {
	services      []*medservice.MedicalService
	patients      []*patient.Patient
	prescriptions []*prescription.Prescription
	invoices      []*billing.Invoice

	invoiceErrs []error
	patientErr  error
	numbers     int
}

func (s *store) CreateMedicalService(_ context.Context, ms *medservice.MedicalService) (*medservice.MedicalService, error) {
	ms.ID = uuid.New()
	s.services = append(s.services, ms)
	return ms, nil
}

func (s *store) CreatePatient(_ context.Context, p *patient.Patient) (*patient.Patient, error) {
	if s.patientErr != nil {
		return nil, s.patientErr
	}
	p.ID = uuid.New()
	s.patients = append(s.patients, p)
	return p, nil
}

func (s *store) CreatePrescription(_ context.Context, rx *prescription.Prescription) (*prescription.Prescription, error) {
	rx.ID = uuid.New()
	s.prescriptions = append(s.prescriptions, rx)
	return rx, nil
}

func (s *store) CreateInvoice(_ context.Context, inv *billing.Invoice) (*billing.Invoice, error) {
	if inv.InvoiceNumber == "" {
		s.numbers++
		inv.InvoiceNumber = fmt.Sprintf("INV-%06d", s.numbers)
	}
	if len(s.invoiceErrs) > 0 {
		err := s.invoiceErrs[0]
		s.invoiceErrs = s.invoiceErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	inv.ID = uuid.New()
	s.invoices = append(s.invoices, inv)
	return inv, nil
}

func newTestSeeder(st *store) *Seeder {
	s := NewSeeder(st, st, st, st, zerolog.Nop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestSeeder_CreatesConfiguredVolume(t *testing.T) {
	st := &store{}
	res, err := newTestSeeder(st).Seed(context.Background(), SeedConfig{
		MedicalServices: 4, Patients: 3, PrescriptionsPerPatient: 2, InvoicesPerPatient: 1, Seed: 7,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, res.MedicalServices)
	assert.Equal(t, 3, res.Patients)
	assert.Equal(t, 6, res.Prescriptions)
	assert.Equal(t, 3, res.Invoices)
	assert.Len(t, st.invoices, 3)

	patientIDs := map[uuid.UUID]bool{}
	for _, p := range st.patients {
		patientIDs[p.ID] = true
	}
	for _, rx := range st.prescriptions {
		assert.True(t, patientIDs[rx.PatientID])
	}
	for _, inv := range st.invoices {
		assert.True(t, patientIDs[inv.PatientID])
		assert.True(t, billing.ValidStatus(inv.Status))
		assert.True(t, inv.Amount.IsPositive())
	}
}

func TestSeeder_RetriesTakenInvoiceNumber(t *testing.T) {
	st := &store{invoiceErrs: []error{fmt.Errorf("insert invoice: %w", db.ErrConflict)}}
	res, err := newTestSeeder(st).Seed(context.Background(), SeedConfig{
		MedicalServices: 1, Patients: 1, InvoicesPerPatient: 1, Seed: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Invoices)
	require.Len(t, st.invoices, 1)
	assert.Equal(t, "INV-000002", st.invoices[0].InvoiceNumber)
}

func TestSeeder_GivesUpAfterSecondConflict(t *testing.T) {
	st := &store{invoiceErrs: []error{db.ErrConflict, db.ErrConflict}}
	res, err := newTestSeeder(st).Seed(context.Background(), SeedConfig{
		MedicalServices: 1, Patients: 1, InvoicesPerPatient: 1, Seed: 1,
	})

	require.ErrorIs(t, err, db.ErrConflict)
	assert.Equal(t, 0, res.Invoices)
}

func TestSeeder_StopsOnStoreError(t *testing.T) {
	st := &store{patientErr: errors.New("connection reset")}
	res, err := newTestSeeder(st).Seed(context.Background(), SeedConfig{
		MedicalServices: 2, Patients: 5, Seed: 1,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed patient 1")
	assert.Equal(t, 2, res.MedicalServices)
	assert.Equal(t, 0, res.Patients)
}

func TestDataGenerator_Deterministic(t *testing.T) {
	a := NewDataGenerator(42, fixedNow)
	b := NewDataGenerator(42, fixedNow)

	for i := 0; i < 5; i++ {
		pa, pb := a.GeneratePatient(), b.GeneratePatient()
		assert.Equal(t, pa.FullName(), pb.FullName())
		assert.Equal(t, *pa.Email, *pb.Email)
		assert.Equal(t, *pa.DateOfBirth, *pb.DateOfBirth)
	}
}

func TestDataGenerator_Patient(t *testing.T) {
	g := NewDataGenerator(3, fixedNow)
	phone := regexp.MustCompile(`^\(\d{3}\) \d{3}-\d{4}$`)

	for i := 0; i < 20; i++ {
		p := g.GeneratePatient()
		assert.NotEmpty(t, p.FirstName)
		assert.NotEmpty(t, p.LastName)
		assert.Contains(t, []string{"male", "female"}, *p.Gender)
		assert.Contains(t, bloodGroups, *p.BloodGroup)
		assert.Regexp(t, phone, *p.Phone)
		assert.True(t, p.DateOfBirth.Before(fixedNow))
	}
}

func TestDataGenerator_MedicalServiceNamesWrap(t *testing.T) {
	g := NewDataGenerator(1, fixedNow)
	first := g.GenerateMedicalService(0)
	wrapped := g.GenerateMedicalService(len(serviceCatalogue))

	assert.Equal(t, "General Consultation", first.Name)
	assert.Equal(t, "General Consultation 2", wrapped.Name)
	assert.True(t, first.Price.Equal(decimal.RequireFromString("50.00")))
}

func TestDataGenerator_InvoiceAmountMatchesServices(t *testing.T) {
	g := NewDataGenerator(9, fixedNow)
	svc := &medservice.MedicalService{Name: "ECG", Price: decimal.RequireFromString("45.00")}

	for i := 0; i < 20; i++ {
		inv := g.GenerateInvoice(uuid.New(), []*medservice.MedicalService{svc})
		assert.Empty(t, inv.InvoiceNumber)
		assert.True(t, inv.Amount.Mod(svc.Price).IsZero())
		assert.True(t, inv.Amount.GreaterThanOrEqual(svc.Price))
		require.NotNil(t, inv.DueDate)
		if inv.Status == billing.StatusOverdue {
			assert.True(t, inv.DueDate.Before(fixedNow))
		}
	}
}
