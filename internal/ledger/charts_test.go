package ledger

import (
	"testing"

	"myrupee/internal/core"
)

func TestMonthlyBalances(t *testing.T) {
	list := []core.Transaction{
		{Amount: 200, Type: core.Expense, Date: "2024-02-10"},
		{Amount: 1000, Type: core.Income, Date: "2024-01-01"},
		{Amount: 50, Type: core.Expense, Date: "2024-01-05"},
		{Amount: 300, Type: core.Income, Date: "2023-12-31"},
		{Amount: 1, Type: core.Income, Date: "not-a-date"},
	}
	got := MonthlyBalances(list)
	want := []MonthBalance{
		{Month: "Dec 2023", Balance: 300},
		{Month: "Jan 2024", Balance: 950},
		{Month: "Feb 2024", Balance: -200},
	}
	if len(got) != len(want) {
		t.Fatalf("MonthlyBalances() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSpendingByTag(t *testing.T) {
	list := []core.Transaction{
		{Amount: 50, Type: core.Expense, Tag: "food"},
		{Amount: 1000, Type: core.Income, Tag: "salary"},
		{Amount: 30, Type: core.Expense, Tag: "office"},
		{Amount: 25, Type: core.Expense, Tag: "food"},
	}
	got := SpendingByTag(list)
	want := []TagAmount{{Category: "Food", Value: 75}, {Category: "Office", Value: 30}}
	if len(got) != len(want) {
		t.Fatalf("SpendingByTag() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slice %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSpendingByTagNoExpenses(t *testing.T) {
	if got := SpendingByTag([]core.Transaction{{Amount: 1, Type: core.Income, Tag: "salary"}}); len(got) != 0 {
		t.Fatalf("expected empty breakdown, got %+v", got)
	}
}
