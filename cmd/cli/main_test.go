package main

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-sync/internal/domain"
)

func TestFilterTransactions(t *testing.T) {
	tx := func(day int, bank domain.BankID) domain.Transaction {
		return domain.NewTransaction(civil.Date{Year: 2024, Month: 2, Day: day}, "X", decimal.NewFromInt(-1), "Shopping", bank, "f.pdf")
	}
	txs := []domain.Transaction{
		tx(1, domain.BankSBI),
		tx(9, domain.BankHDFC),
		tx(5, domain.BankSBI),
		tx(7, domain.BankSBI),
	}

	tests := []struct {
		name     string
		bank     string
		limit    int
		wantDays []int
	}{
		{"all newest first", "", 0, []int{9, 7, 5, 1}},
		{"bank filter", "sbi", 0, []int{7, 5, 1}},
		{"limit", "SBI", 2, []int{7, 5}},
		{"unmatched bank", "AXIS", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterTransactions(txs, tt.bank, tt.limit)
			if len(got) != len(tt.wantDays) {
				t.Fatalf("got %d transactions, want %d", len(got), len(tt.wantDays))
			}
			for i, d := range tt.wantDays {
				if got[i].Date.Day != d {
					t.Errorf("position %d: day %d, want %d", i, got[i].Date.Day, d)
				}
			}
		})
	}
}
