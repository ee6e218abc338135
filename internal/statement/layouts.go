package statement

import (
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/statement-sync/internal/domain"
)

// amountPattern matches an unsigned statement amount with an optional
// currency prefix. The amount itself is the only capture group.
const amountPattern = `(?:(?:₹|Rs\.?|INR)\s*)?([\d,]+\.\d{2})`

// layout describes how one issuer prints a transaction line. Every pattern
// captures date, description, amount and an optional credit/debit marker,
// in that order.
type layout struct {
	bank        domain.BankID
	re          *regexp.Regexp
	dateFormats []string
	isCredit    func(marker string) bool
}

var layouts = []layout{
	{
		// 15 Jan 24  AMAZON PAY INDIA  1,299.00 D
		bank:        domain.BankSBI,
		re:          regexp.MustCompile(`^(\d{2} [A-Za-z]{3} \d{2})\s+(.+?)\s+` + amountPattern + `\s*([CD])$`),
		dateFormats: []string{"02 Jan 06"},
		isCredit:    func(m string) bool { return m == "C" },
	},
	{
		// 15/01/2024 [12:34:56]  FLIPKART INTERNET  2,150.00 [Cr]
		bank:        domain.BankHDFC,
		re:          regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})(?:\s+\d{2}:\d{2}:\d{2})?\s+(.+?)\s+` + amountPattern + `(\s*Cr)?$`),
		dateFormats: []string{"02/01/2006"},
		isCredit:    func(m string) bool { return strings.TrimSpace(m) != "" },
	},
	{
		// 15/01/2024  MYNTRA DESIGNS  APPAREL  1,850.75 Dr
		bank:        domain.BankAxis,
		re:          regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(.+?)\s+` + amountPattern + `\s+(Dr|Cr)$`),
		dateFormats: []string{"02/01/2006"},
		isCredit:    func(m string) bool { return m == "Cr" },
	},
	{
		// 15 Jan 2024 [16 Jan 2024]  UBER TRIP  280.30 [CR]
		bank:        domain.BankSCB,
		re:          regexp.MustCompile(`^(\d{2} [A-Za-z]{3} \d{4})\s+(?:\d{2} [A-Za-z]{3} \d{4}\s+)?(.+?)\s+` + amountPattern + `(\s*CR)?$`),
		dateFormats: []string{"02 Jan 2006"},
		isCredit:    func(m string) bool { return strings.TrimSpace(m) != "" },
	},
}

// layoutsFor returns the layouts to try for bank. Unknown banks try all.
func layoutsFor(bank domain.BankID) []layout {
	for _, l := range layouts {
		if l.bank == bank {
			return []layout{l}
		}
	}
	return layouts
}

// line is one matched statement line before categorization.
type line struct {
	date        civil.Date
	description string
	amount      string
	credit      bool
}

// match applies the layout to a single text line.
func (l layout) match(text string) (line, bool) {
	m := l.re.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return line{}, false
	}

	date, ok := parseDate(m[1], l.dateFormats)
	if !ok {
		return line{}, false
	}

	desc := strings.Join(strings.Fields(m[2]), " ")
	if desc == "" {
		return line{}, false
	}

	marker := ""
	if len(m) > 4 {
		marker = m[4]
	}
	return line{date: date, description: desc, amount: m[3], credit: l.isCredit(marker)}, true
}

func parseDate(s string, formats []string) (civil.Date, bool) {
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}
