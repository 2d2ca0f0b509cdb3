// Package policy is the deterministic eligibility and discount engine. Every
// function is pure: no I/O, no randomness, no dependence on conversation
// state. Rules are ordered condition tables; the reason of an ineligible
// decision names the first failing condition in table order.
package policy

import (
	"fmt"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
)

const (
	planAmountLimit = contractx.Cents(100_000) // €1000.00
	planDaysLimit   = 30
	planRiskLimit   = 0.65

	discountDaysLimit = 15
	discountRiskLimit = 0.30
	discountPercent   = 5
)

// Decision is the certified output of one policy call. It is newly
// constructed per call and never mutated afterwards.
type Decision struct {
	Eligible bool           `json:"eligible"`
	Reason   string         `json:"reason"`
	Plan     *PlanTerms     `json:"plan,omitempty"`
	Discount *DiscountTerms `json:"discount,omitempty"`
}

type PlanTerms struct {
	Installments      int             `json:"installments"`
	InstallmentAmount contractx.Cents `json:"installment_amount"`
	FinalInstallment  contractx.Cents `json:"final_installment"`
	TotalAmount       contractx.Cents `json:"total_amount"`
}

type DiscountTerms struct {
	OriginalAmount  contractx.Cents `json:"original_amount"`
	DiscountPercent int             `json:"discount_percent"`
	DiscountedTotal contractx.Cents `json:"discounted_total"`
	Savings         contractx.Cents `json:"savings"`
}

type rule struct {
	failed func(contractx.CustomerRecord) bool
	reason func(contractx.CustomerRecord) string
}

var planRules = []rule{
	{
		failed: func(r contractx.CustomerRecord) bool { return r.AmountDue > planAmountLimit },
		reason: func(r contractx.CustomerRecord) string {
			return fmt.Sprintf("balance exceeds %s (current: %s)", planAmountLimit, r.AmountDue)
		},
	},
	{
		failed: func(r contractx.CustomerRecord) bool { return r.DaysOverdue > planDaysLimit },
		reason: func(r contractx.CustomerRecord) string {
			return fmt.Sprintf("payment is overdue by more than %d days (current: %d days)", planDaysLimit, r.DaysOverdue)
		},
	},
	{
		failed: func(r contractx.CustomerRecord) bool { return r.PaymentHistory == contractx.HistoryPoor },
		reason: func(contractx.CustomerRecord) string {
			return "payment history is classified as poor"
		},
	},
	{
		failed: func(r contractx.CustomerRecord) bool { return r.RiskScore > planRiskLimit },
		reason: func(r contractx.CustomerRecord) string {
			return fmt.Sprintf("risk score is too high (current: %.2f)", r.RiskScore)
		},
	},
}

var discountRules = []rule{
	{
		failed: func(r contractx.CustomerRecord) bool { return r.DaysOverdue > discountDaysLimit },
		reason: func(r contractx.CustomerRecord) string {
			return fmt.Sprintf("payment is overdue by more than %d days (current: %d days)", discountDaysLimit, r.DaysOverdue)
		},
	},
	{
		failed: func(r contractx.CustomerRecord) bool { return r.PaymentHistory != contractx.HistoryGood },
		reason: func(contractx.CustomerRecord) string {
			return "payment history must be good"
		},
	},
	{
		failed: func(r contractx.CustomerRecord) bool { return r.RiskScore > discountRiskLimit },
		reason: func(r contractx.CustomerRecord) string {
			return fmt.Sprintf("risk score exceeds %.2f (current: %.2f)", discountRiskLimit, r.RiskScore)
		},
	},
}

// planBands maps balance tiers to installment counts: smaller balances get
// fewer installments, 3 to 6 in total. The table is data so that tiers can
// change without touching decision logic.
var planBands = []struct {
	limit        contractx.Cents
	installments int
}{
	{30_000, 3},
	{60_000, 4},
	{90_000, 5},
	{planAmountLimit, 6},
}

func firstFailure(rules []rule, rec contractx.CustomerRecord) (string, bool) {
	for _, ru := range rules {
		if ru.failed(rec) {
			return ru.reason(rec), true
		}
	}
	return "", false
}

// CheckPaymentPlanEligibility reports whether the customer qualifies for an
// installment plan.
func CheckPaymentPlanEligibility(rec contractx.CustomerRecord) (Decision, error) {
	if err := rec.Validate(); err != nil {
		return Decision{}, err
	}
	if reason, failed := firstFailure(planRules, rec); failed {
		return Decision{Eligible: false, Reason: reason}, nil
	}
	return Decision{Eligible: true, Reason: "all payment plan eligibility criteria are met"}, nil
}

// GetPaymentPlanDetails computes the installment terms for an eligible
// customer. For an ineligible customer it returns the same ineligible
// decision the eligibility check would.
func GetPaymentPlanDetails(rec contractx.CustomerRecord) (Decision, error) {
	d, err := CheckPaymentPlanEligibility(rec)
	if err != nil || !d.Eligible {
		return d, err
	}

	installments := planBands[len(planBands)-1].installments
	for _, band := range planBands {
		if rec.AmountDue <= band.limit {
			installments = band.installments
			break
		}
	}

	per, last := rec.AmountDue.SplitEven(installments)
	d.Plan = &PlanTerms{
		Installments:      installments,
		InstallmentAmount: per,
		FinalInstallment:  last,
		TotalAmount:       rec.AmountDue,
	}
	return d, nil
}

// GetSettlementDiscountDetails computes the immediate settlement offer: a 5%
// discount on the full balance for low-risk customers in good standing.
func GetSettlementDiscountDetails(rec contractx.CustomerRecord) (Decision, error) {
	if err := rec.Validate(); err != nil {
		return Decision{}, err
	}
	if reason, failed := firstFailure(discountRules, rec); failed {
		return Decision{Eligible: false, Reason: reason}, nil
	}

	discounted := rec.AmountDue.Percent(100 - discountPercent)
	return Decision{
		Eligible: true,
		Reason:   "all settlement discount criteria are met",
		Discount: &DiscountTerms{
			OriginalAmount:  rec.AmountDue,
			DiscountPercent: discountPercent,
			DiscountedTotal: discounted,
			Savings:         rec.AmountDue - discounted,
		},
	}, nil
}

// CertifiedAmounts lists every euro figure the decision vouches for. The
// orchestrator uses this to refuse agent utterances quoting figures no
// decision produced.
func (d Decision) CertifiedAmounts() []contractx.Cents {
	var out []contractx.Cents
	if d.Plan != nil {
		out = append(out, d.Plan.InstallmentAmount, d.Plan.FinalInstallment, d.Plan.TotalAmount)
	}
	if d.Discount != nil {
		out = append(out, d.Discount.OriginalAmount, d.Discount.DiscountedTotal, d.Discount.Savings)
	}
	return out
}
