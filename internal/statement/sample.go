package statement

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-sync/internal/category"
	"github.com/dvloznov/statement-sync/internal/domain"
	"github.com/dvloznov/statement-sync/internal/logger"
)

type sample struct {
	desc     string
	amount   string
	category string
}

var samples = map[domain.BankID][]sample{
	domain.BankSBI: {
		{"AMAZON PAY INDIA", "-1299.00", category.Shopping},
		{"SWIGGY BANGALORE", "-485.50", category.FoodAndDining},
		{"PAYMENT THANK YOU", "5000.00", category.Payment},
	},
	domain.BankHDFC: {
		{"FLIPKART INTERNET", "-2150.00", category.Shopping},
		{"UBER TRIP", "-280.30", category.Transportation},
		{"AUTO PAYMENT", "8000.00", category.Payment},
	},
	domain.BankAxis: {
		{"MYNTRA DESIGNS", "-1850.75", category.Shopping},
		{"ZOMATO LTD", "-340.60", category.FoodAndDining},
		{"SALARY CREDIT", "12000.00", category.Income},
	},
}

// SampleParser ignores the PDF contents and returns a fixed set of
// transactions per bank, dated from 30 days ago in 3-day steps. Banks
// without samples get the SBI set.
type SampleParser struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

func (p *SampleParser) Parse(ctx context.Context, _ []byte, bank domain.BankID, filename string) ([]domain.Transaction, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	base := civil.DateOf(now().AddDate(0, 0, -30))

	set, ok := samples[bank]
	if !ok {
		set = samples[domain.BankSBI]
	}

	txs := make([]domain.Transaction, 0, len(set))
	for i, s := range set {
		txs = append(txs, domain.NewTransaction(
			base.AddDays(i*3),
			s.desc,
			decimal.RequireFromString(s.amount),
			s.category,
			bank,
			filename,
		))
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("count", len(txs)).
		Str("bank", string(bank)).
		Msg("Parsed sample transactions")
	return txs, nil
}
