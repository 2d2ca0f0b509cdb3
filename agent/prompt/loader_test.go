package prompt

import (
	"strings"
	"testing"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
)

func TestSystemRendersCustomerProfile(t *testing.T) {
	t.Parallel()

	rec := contractx.CustomerRecord{
		ID:             "CUST-001",
		Name:           "Sarah",
		AmountDue:      contractx.FromEuros(120),
		DaysOverdue:    5,
		PaymentHistory: contractx.HistoryGood,
		RiskScore:      0.10,
	}

	got, err := System(rec)
	if err != nil {
		t.Fatalf("System() error = %v", err)
	}

	for _, want := range []string{
		"Sarah",
		"CUST-001",
		"€120.00",
		"Days Overdue: 5 days",
		"Risk Score: 0.10",
		"check_payment_plan_eligibility",
		"get_payment_plan_details",
		"get_settlement_discount_details",
		"escalate_to_human",
		"log_customer_question",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, got)
		}
	}
}
