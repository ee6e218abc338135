package statement

import (
	"strings"

	"github.com/dvloznov/statement-sync/internal/bank"
	"github.com/dvloznov/statement-sync/internal/domain"
)

// buildStatementPrompt asks for a strict JSON array of card transactions
// whose categories come from names.
func buildStatementPrompt(id domain.BankID, names []string) string {
	issuer := "an Indian credit card issuer"
	if is, ok := bank.Lookup(id); ok {
		issuer = is.Name
	}

	var b strings.Builder
	b.WriteString("You are a financial statement parser for " + issuer + " credit card statements.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Parse ALL transactions in the attached statement.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a JSON array of objects.\n\n")
	b.WriteString("Each object must have these fields:\n")
	b.WriteString("- \"date\": string, ISO format \"YYYY-MM-DD\"\n")
	b.WriteString("- \"description\": string\n")
	b.WriteString("- \"amount\": number (negative for purchases and fees, positive for payments and refunds)\n")
	b.WriteString("- \"category\": string (one of the categories below)\n\n")

	b.WriteString("Use ONLY the following categories:\n")
	for _, n := range names {
		b.WriteString("  - " + n + "\n")
	}
	b.WriteString("\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Amounts are in INR; drop currency symbols and digit grouping.\n")
	b.WriteString("- Skip opening balance, closing balance and summary rows.\n")
	b.WriteString("- If you are unsure of the category, use \"Uncategorized\".\n\n")
	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"[\" and end with \"]\".\n")
	return b.String()
}
