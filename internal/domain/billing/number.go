package billing

import (
	"context"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const invoicePrefix = "INV-"

// NumberLookup reports whether an invoice number is already taken.
type NumberLookup interface {
	InvoiceNumberExists(ctx context.Context, number string) (bool, error)
}

// NumberGenerator produces invoice numbers of the form INV-<digits>.
//
// A six digit candidate is derived from the clock and a random suffix and
// checked against the store. When it is taken, or the check fails, a ten
// digit number is returned without a second check; the UNIQUE constraint on
// invoices.invoice_number rejects the rare collision.
type NumberGenerator struct {
	lookup NumberLookup
	log    zerolog.Logger
	now    func() time.Time
	intN   func(n int) int
}

func NewNumberGenerator(lookup NumberLookup, logger zerolog.Logger) *NumberGenerator {
	return &NumberGenerator{
		lookup: lookup,
		log:    logger,
		now:    time.Now,
		intN:   rand.IntN,
	}
}

// Generate never fails; store errors only select the fallback form.
func (g *NumberGenerator) Generate(ctx context.Context) string {
	candidate := invoicePrefix + lastDigits(g.seed(1000), 6)

	exists, err := g.lookup.InvoiceNumberExists(ctx, candidate)
	if err != nil {
		g.log.Warn().Err(err).Str("candidate", candidate).Msg("Error checking invoice number uniqueness")
	} else if !exists {
		return candidate
	}

	return invoicePrefix + lastDigits(g.seed(10000), 10)
}

func (g *NumberGenerator) seed(n int) string {
	return strconv.FormatInt(g.now().UnixMilli(), 10) + strconv.Itoa(g.intN(n))
}

func lastDigits(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
