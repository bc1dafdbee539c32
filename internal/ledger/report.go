package ledger

import (
	"fmt"
	"strings"

	"budgetbook/internal/core"
)

// ReportPrompt renders s as the plain-text request for a written spending
// report.
func ReportPrompt(s core.Summary) string {
	var b strings.Builder
	b.WriteString("Write a short personal finance report for the ledger below. ")
	b.WriteString("Point out the largest spending categories, any week that stands out, and one concrete saving suggestion.\n\n")

	fmt.Fprintf(&b, "Transactions: %d\n", s.Count)
	fmt.Fprintf(&b, "Total income: %s\n", core.FormatAmount(s.TotalIncome))
	fmt.Fprintf(&b, "Total expenses: %s\n", core.FormatAmount(s.TotalExpense))
	fmt.Fprintf(&b, "Balance: %s\n", core.FormatAmount(s.Balance))

	b.WriteString("\nExpenses by category:\n")
	if len(s.ByCategory) == 0 {
		b.WriteString("- none\n")
	}
	for _, c := range s.ByCategory {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, core.FormatAmount(c.Amount))
	}

	b.WriteString("\nExpenses by week:\n")
	if len(s.ByWeek) == 0 {
		b.WriteString("- none\n")
	}
	for _, w := range s.ByWeek {
		fmt.Fprintf(&b, "- %s: %s\n", w.Week, core.FormatAmount(w.Amount))
	}
	return b.String()
}
