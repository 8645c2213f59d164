// Package sandbox fills a development database with reproducible demo data.
// Records are created through the domain services, so every row also lands
// in the activity log.
package sandbox

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/medservice"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/domain/prescription"
)

var (
	firstNamesMale   = []string{"James", "Robert", "John", "Michael", "David", "William", "Richard", "Joseph", "Thomas", "Daniel", "Omar", "Ravi"}
	firstNamesFemale = []string{"Mary", "Patricia", "Jennifer", "Linda", "Elizabeth", "Barbara", "Susan", "Jessica", "Sarah", "Karen", "Amina", "Priya"}
	lastNames        = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez", "Okafor", "Sharma", "Nguyen", "Kowalski"}
	streets          = []string{"123 Main St", "456 Oak Ave", "789 Pine Rd", "321 Elm St", "654 Maple Dr", "987 Cedar Ln", "147 Birch Way", "258 Walnut Ct"}
	cities           = []string{"Springfield", "Riverside", "Franklin", "Greenville", "Fairview", "Madison", "Georgetown", "Clinton"}
	bloodGroups      = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
)

type serviceDef struct {
	Name     string
	Category string
	Price    string
	Minutes  int
}

var serviceCatalogue = []serviceDef{
	{"General Consultation", "Consultation", "50.00", 20},
	{"Specialist Consultation", "Consultation", "120.00", 30},
	{"Complete Blood Count", "Laboratory", "25.00", 15},
	{"Lipid Panel", "Laboratory", "40.00", 15},
	{"Chest X-Ray", "Radiology", "85.00", 20},
	{"Abdominal Ultrasound", "Radiology", "150.00", 40},
	{"MRI Brain", "Radiology", "650.00", 60},
	{"ECG", "Cardiology", "45.00", 15},
	{"Physiotherapy Session", "Rehabilitation", "70.00", 45},
	{"Wound Dressing", "Nursing", "20.00", 15},
	{"Vaccination", "Preventive", "30.00", 10},
	{"Dental Cleaning", "Dental", "90.00", 45},
}

type medicationDef struct {
	Name      string
	Dosage    string
	Frequency string
	Days      int
}

var medications = []medicationDef{
	{"Amoxicillin", "500 mg", "three times daily", 7},
	{"Lisinopril", "10 mg", "once daily", 90},
	{"Metformin", "850 mg", "twice daily", 90},
	{"Atorvastatin", "20 mg", "once daily at night", 90},
	{"Ibuprofen", "400 mg", "every 8 hours as needed", 5},
	{"Omeprazole", "20 mg", "once daily before breakfast", 28},
	{"Salbutamol inhaler", "100 mcg", "two puffs as needed", 30},
	{"Paracetamol", "1 g", "every 6 hours as needed", 3},
	{"Cetirizine", "10 mg", "once daily", 14},
}

var instructions = []string{"Take with food.", "Avoid alcohol.", "Complete the full course.", "Stop if a rash develops."}

// DataGenerator produces deterministic demo records.
type DataGenerator struct {
	rng *rand.Rand
	now time.Time
}

// NewDataGenerator returns a generator seeded for reproducibility. A zero
// seed picks a time-based one.
func NewDataGenerator(seed int64, now time.Time) *DataGenerator {
	if seed == 0 {
		seed = now.UnixNano()
	}
	return &DataGenerator{
		rng: rand.New(rand.NewPCG(uint64(seed), 0x5eed)),
		now: now,
	}
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.IntN(len(pool))]
}

func (g *DataGenerator) randomDate(minYear, maxYear int) time.Time {
	y := minYear + g.rng.IntN(maxYear-minYear+1)
	m := time.Month(1 + g.rng.IntN(12))
	d := 1 + g.rng.IntN(28)
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (g *DataGenerator) randomPhone() string {
	return fmt.Sprintf("(%03d) %03d-%04d", 200+g.rng.IntN(800), 200+g.rng.IntN(800), g.rng.IntN(10000))
}

func (g *DataGenerator) GeneratePatient() *patient.Patient {
	gender := "female"
	first := g.pick(firstNamesFemale)
	if g.rng.IntN(2) == 0 {
		gender = "male"
		first = g.pick(firstNamesMale)
	}
	last := g.pick(lastNames)
	dob := g.randomDate(1940, 2015)
	phone := g.randomPhone()
	email := strings.ToLower(fmt.Sprintf("%s.%s%d@example.com", first, last, g.rng.IntN(1000)))
	address := fmt.Sprintf("%s, %s", g.pick(streets), g.pick(cities))
	blood := g.pick(bloodGroups)

	return &patient.Patient{
		FirstName:   first,
		LastName:    last,
		DateOfBirth: &dob,
		Gender:      &gender,
		Phone:       &phone,
		Email:       &email,
		Address:     &address,
		BloodGroup:  &blood,
		Active:      g.rng.IntN(10) > 0,
	}
}

// GenerateMedicalService returns the i-th catalogue entry, wrapping around.
func (g *DataGenerator) GenerateMedicalService(i int) *medservice.MedicalService {
	def := serviceCatalogue[i%len(serviceCatalogue)]
	name := def.Name
	if i >= len(serviceCatalogue) {
		name = fmt.Sprintf("%s %d", def.Name, i/len(serviceCatalogue)+1)
	}
	category := def.Category
	minutes := def.Minutes
	desc := fmt.Sprintf("%s (%d min)", def.Name, def.Minutes)
	return &medservice.MedicalService{
		Name:            name,
		Description:     &desc,
		Category:        &category,
		Price:           decimal.RequireFromString(def.Price),
		DurationMinutes: &minutes,
		Active:          true,
	}
}

func (g *DataGenerator) GeneratePrescription(patientID uuid.UUID) *prescription.Prescription {
	med := medications[g.rng.IntN(len(medications))]
	days := med.Days
	note := g.pick(instructions)
	return &prescription.Prescription{
		PatientID:      patientID,
		MedicationName: med.Name,
		Dosage:         med.Dosage,
		Frequency:      med.Frequency,
		DurationDays:   &days,
		Instructions:   &note,
		Active:         g.rng.IntN(4) > 0,
	}
}

// GenerateInvoice bills one to three of the given services. The invoice
// number is left empty for the billing service to assign.
func (g *DataGenerator) GenerateInvoice(patientID uuid.UUID, services []*medservice.MedicalService) *billing.Invoice {
	amount := decimal.Zero
	var lines []string
	for n := 1 + g.rng.IntN(3); n > 0 && len(services) > 0; n-- {
		s := services[g.rng.IntN(len(services))]
		amount = amount.Add(s.Price)
		lines = append(lines, s.Name)
	}

	status := billing.StatusPending
	due := g.now.AddDate(0, 0, 30)
	switch r := g.rng.IntN(10); {
	case r < 5:
		status = billing.StatusPaid
	case r < 7:
		status = billing.StatusOverdue
		due = g.now.AddDate(0, 0, -g.rng.IntN(60)-1)
	case r < 8:
		status = billing.StatusCancelled
	}
	due = due.Truncate(24 * time.Hour)

	inv := &billing.Invoice{
		PatientID: patientID,
		Amount:    amount,
		Status:    status,
		DueDate:   &due,
	}
	if len(lines) > 0 {
		notes := strings.Join(lines, ", ")
		inv.Notes = &notes
	}
	return inv
}
