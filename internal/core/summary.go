package core

import "github.com/shopspring/decimal"

// Sum adds up the amount of every record.
func Sum(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// SumCategory adds up the amount of the records with exactly the given category.
func SumCategory(records []Record, category string) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if r.Category == category {
			total = total.Add(r.Amount)
		}
	}
	return total
}
