package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"12.50", 12.5, true},
		{"12,50", 12.5, true},
		{" 0.01 ", 0.01, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestTruncateAmount(t *testing.T) {
	cases := []struct {
		in string
		n  float64
		ok bool
	}{
		{"1000", 1000, true},
		{"12.75", 12, true},
		{"7abc", 7, true},
		{" 42 ", 42, true},
		{"-5", -5, true},
		{"abc", 0, false},
		{".5", 0, false},
		{"18446744073709551617", 18446744073709551617, true},
		{"99999999999999999999", 1e20, true},
		{"-99999999999999999999", -1e20, true},
	}
	for _, tc := range cases {
		n, ok := TruncateAmount(tc.in)
		if n != tc.n || ok != tc.ok {
			t.Fatalf("%q expected (%g,%v), got (%g,%v)", tc.in, tc.n, tc.ok, n, ok)
		}
	}
}

func TestNewTransactionValidate(t *testing.T) {
	good := NewTransaction{Name: "Coffee", Amount: 50, Date: "2024-01-05", Type: Expense, Tag: "food"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		tx  NewTransaction
		err error
	}{
		{NewTransaction{Name: " ", Amount: 1, Date: "2024-01-05", Type: Expense, Tag: "food"}, ErrEmptyName},
		{NewTransaction{Name: "a", Amount: 0, Date: "2024-01-05", Type: Expense, Tag: "food"}, ErrInvalidAmount},
		{NewTransaction{Name: "a", Amount: -1, Date: "2024-01-05", Type: Expense, Tag: "food"}, ErrInvalidAmount},
		{NewTransaction{Name: "a", Amount: 1, Date: "05/01/2024", Type: Expense, Tag: "food"}, ErrInvalidDate},
		{NewTransaction{Name: "a", Amount: 1, Date: "2024-01-05", Type: "refund", Tag: "food"}, ErrInvalidType},
		{NewTransaction{Name: "a", Amount: 1, Date: "2024-01-05", Type: Income, Tag: ""}, ErrEmptyTag},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); !errors.Is(err, tc.err) {
			t.Fatalf("case %d expected %v, got %v", i, tc.err, err)
		}
	}
}

func TestMaterialize(t *testing.T) {
	n := NewTransaction{Name: "Salary", Amount: 1000, Date: "2024-01-01", Type: Income, Tag: "salary"}
	at := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	tx := n.Materialize("doc-1", "user-1", at)
	if tx.ID != "doc-1" || tx.UserID != "user-1" || tx.Name != "Salary" || tx.Amount != 1000 {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if tx.CreatedAt != "2024-01-01T09:30:00Z" {
		t.Fatalf("unexpected createdAt %q", tx.CreatedAt)
	}
}

func TestDraftValidate(t *testing.T) {
	n, err := Draft{Name: " Salary ", Amount: "1000", Date: "2024-01-01", Tag: "salary", Type: Income}.Validate()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if n.Name != "Salary" || n.Amount != 1000 || n.Type != Income {
		t.Fatalf("unexpected intent: %+v", n)
	}

	_, err = Draft{Type: Expense}.Validate()
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}
	for _, field := range []string{"name", "amount", "date", "tag"} {
		if fe[field] == "" {
			t.Errorf("expected message for %s, got %v", field, fe)
		}
	}
	if fe["name"] != "Expense name is required" {
		t.Errorf("unexpected name message %q", fe["name"])
	}

	_, err = Draft{Name: "x", Amount: "-2", Date: "2024-01-01", Tag: "food", Type: Expense}.Validate()
	if !errors.As(err, &fe) || fe["amount"] != "Amount must be a positive number" {
		t.Fatalf("expected amount error, got %v", err)
	}

	// Tag must belong to the type's option set.
	_, err = Draft{Name: "x", Amount: "2", Date: "2024-01-01", Tag: "salary", Type: Expense}.Validate()
	if !errors.As(err, &fe) || fe["tag"] == "" {
		t.Fatalf("expected tag error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "invalid form:") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}
