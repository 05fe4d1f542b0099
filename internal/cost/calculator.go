// Package cost computes and tracks provider credit usage for contact reveals.
package cost

import "sync"

// Rates holds per-reveal credit pricing.
type Rates struct {
	EmailCredit int `yaml:"email_credit" mapstructure:"email_credit"`
	PhoneCredit int `yaml:"phone_credit" mapstructure:"phone_credit"`
}

// DefaultRates returns the default credit pricing.
func DefaultRates() Rates {
	return Rates{EmailCredit: 1, PhoneCredit: 1}
}

// Calculator computes credit costs for reveal calls.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Reveal returns the credits charged for a reveal. Only values actually
// returned are charged.
func (c *Calculator) Reveal(emailReturned, phoneReturned bool) int {
	credits := 0
	if emailReturned {
		credits += c.rates.EmailCredit
	}
	if phoneReturned {
		credits += c.rates.PhoneCredit
	}
	return credits
}

// Ledger accumulates credits per session. Safe for concurrent use.
type Ledger struct {
	calc *Calculator

	mu     sync.Mutex
	totals map[string]int
}

// NewLedger creates an empty Ledger priced by calc.
func NewLedger(calc *Calculator) *Ledger {
	return &Ledger{calc: calc, totals: make(map[string]int)}
}

// ChargeReveal records a reveal for session and returns the credits used by
// this reveal and the session's running total.
func (l *Ledger) ChargeReveal(session string, emailReturned, phoneReturned bool) (used, total int) {
	used = l.calc.Reveal(emailReturned, phoneReturned)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.totals[session] += used
	return used, l.totals[session]
}

// Total returns the credits used so far by session.
func (l *Ledger) Total(session string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals[session]
}
