package orchestrator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
)

// euroFigure matches euro amounts quoted in a reply, with an optional
// thousands separator and up to two decimals: €40, €1,000.00, € 114.00.
var euroFigure = regexp.MustCompile(`€\s?([0-9][0-9,]*)(?:\.([0-9]{1,2}))?`)

// guardReply refuses replies quoting euro figures that no policy decision in
// this session certified. Certified figures are the plan and discount terms,
// any amount embedded in a decision's reason string (explaining a decision
// with its own reason must never terminate the session), and the customer's
// balance, which appears in the greeting before any tool runs.
func (o *Orchestrator) guardReply(ts *turnState) {
	if ts.escalateReason != "" || ts.Reply == "" {
		return
	}

	certified := o.certifiedAmounts()
	for _, amount := range extractEuroFigures(ts.Reply) {
		if _, ok := certified[amount]; !ok {
			ts.escalate(fmt.Sprintf("reply quotes uncertified amount %s", amount))
			return
		}
	}
}

func (o *Orchestrator) certifiedAmounts() map[contractx.Cents]struct{} {
	certified := map[contractx.Cents]struct{}{
		o.session.Record.AmountDue: {},
	}
	for _, rd := range o.session.Decisions {
		for _, amount := range rd.Decision.CertifiedAmounts() {
			certified[amount] = struct{}{}
		}
		for _, amount := range extractEuroFigures(rd.Decision.Reason) {
			certified[amount] = struct{}{}
		}
	}
	return certified
}

func extractEuroFigures(text string) []contractx.Cents {
	matches := euroFigure.FindAllStringSubmatch(text, -1)
	out := make([]contractx.Cents, 0, len(matches))
	for _, m := range matches {
		whole, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
		if err != nil {
			continue
		}
		var frac int64
		if m[2] != "" {
			padded := m[2] + strings.Repeat("0", 2-len(m[2]))
			frac, _ = strconv.ParseInt(padded, 10, 64)
		}
		out = append(out, contractx.Cents(whole*100+frac))
	}
	return out
}
