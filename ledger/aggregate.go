/*
aggregate.go - Summary and running-balance calculation

PURPOSE:
  Computes the ledger summary from an ordered row set and the carry setting.
  Nothing here is persisted: the summary is recomputed on every request.

FORMULAS:
  Income  = Σ row.Income
  Expense = Σ row.Expense
  Balance = carry.PrevCarry + Income - Expense

  TargetYear = carry.PrevYear + 1, and the same three totals are computed
  again over rows dated in TargetYear only, seeded by the same PrevCarry.
  Rows without a resolvable date count in the overall totals but never in
  the target-year totals.

EXAMPLE:
  carry = {PrevYear: 2023, PrevCarry: 500}
  rows  = [03-01 +1000, 03-01 -200, 03-02 -100]   (all 2024)

  Income 1000, Expense 300, Balance 1200
  Running balances: 1500, 1300, 1200

SEE ALSO:
  - segment.go: Row grouping for the same ordered rows
  - workbook/render.go: Consumes Summary and RunningBalances
*/
package ledger

import "github.com/shopspring/decimal"

// Aggregate computes the summary for rows. Row order does not change the
// totals; it only matters for RunningBalances.
func Aggregate(rows []Transaction, carry CarrySetting) Summary {
	income, expense := totals(rows, func(Transaction) bool { return true })

	target := carry.TargetYear()
	yIncome, yExpense := totals(rows, func(t Transaction) bool {
		return t.Date.Year() == target
	})

	return Summary{
		Income:  income,
		Expense: expense,
		Balance: carry.PrevCarry.Add(income).Sub(expense),
		Detail: SummaryDetail{
			PrevYear:          carry.PrevYear,
			TargetYear:        target,
			PrevCarry:         carry.PrevCarry,
			TargetYearIncome:  yIncome,
			TargetYearExpense: yExpense,
			TargetYearBalance: carry.PrevCarry.Add(yIncome).Sub(yExpense),
		},
	}
}

func totals(rows []Transaction, keep func(Transaction) bool) (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	for _, r := range rows {
		if !keep(r) {
			continue
		}
		income = income.Add(r.Income)
		expense = expense.Add(r.Expense)
	}
	return income, expense
}

// RunningBalances returns, for each row, seed plus the net of every row up
// to and including it. The last value equals Aggregate(rows, carry).Balance
// when seed is carry.PrevCarry.
func RunningBalances(rows []Transaction, seed decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(rows))
	running := seed
	for i, r := range rows {
		running = running.Add(r.Net())
		out[i] = running
	}
	return out
}
