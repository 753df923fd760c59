package filter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"myrupee/internal/core"
)

type recorder struct {
	rows   []core.NewTransaction
	failAt int
}

func (r *recorder) add(_ context.Context, n core.NewTransaction) error {
	if r.failAt > 0 && len(r.rows)+1 == r.failAt {
		return errors.New("store unavailable")
	}
	r.rows = append(r.rows, n)
	return nil
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	if got := ExportFilename(now); got != "transactions_2024-03-09.csv" {
		t.Fatalf("unexpected filename %q", got)
	}
	if got := ExportXLSXFilename(now); got != "transactions_2024-03-09.xlsx" {
		t.Fatalf("unexpected filename %q", got)
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	list := []core.Transaction{
		{Name: "Salary", Type: core.Income, Date: "2024-01-01", Amount: 1000, Tag: "salary"},
		{Name: "Coffee, large", Type: core.Expense, Date: "2024-01-05", Amount: 4.5, Tag: "food"},
	}
	if err := ExportCSV(&buf, list); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	want := "name,type,date,amount,tag\n" +
		"Salary,income,2024-01-01,1000,salary\n" +
		"\"Coffee, large\",expense,2024-01-05,4.5,food\n"
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	list := []core.Transaction{
		{Name: "Salary", Type: core.Income, Date: "2024-01-01", Amount: 1000, Tag: "salary"},
		{Name: "Coffee", Type: core.Expense, Date: "2024-01-05", Amount: 50, Tag: "food"},
	}
	var buf bytes.Buffer
	if err := ExportCSV(&buf, list); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	rec := &recorder{}
	n, err := ImportCSV(context.Background(), &buf, rec.add)
	if err != nil || n != 2 {
		t.Fatalf("ImportCSV = %d, %v", n, err)
	}
	for i, tx := range list {
		got := rec.rows[i]
		if got.Name != tx.Name || got.Type != tx.Type || got.Date != tx.Date || got.Amount != tx.Amount || got.Tag != tx.Tag {
			t.Errorf("row %d: got %+v, want %+v", i, got, tx)
		}
	}
}

func TestImportCSVSkipsIncompleteRows(t *testing.T) {
	in := "name,type,date,amount,tag\n" +
		"Rent,expense,2024-01-01,900,office\n" +
		"Lunch,expense,2024-01-02,,food\n" +
		"Gig,income,2024-01-03,250,\n" +
		"Bonus,income,2024-01-04,300,salary\n"

	rec := &recorder{}
	n, err := ImportCSV(context.Background(), strings.NewReader(in), rec.add)
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if n != 2 || len(rec.rows) != 2 {
		t.Fatalf("expected 2 adds, got %d", n)
	}
	if rec.rows[0].Name != "Rent" || rec.rows[1].Name != "Bonus" {
		t.Fatalf("unexpected rows %+v", rec.rows)
	}
}

func TestImportCSVTruncatesAmounts(t *testing.T) {
	in := "tag,amount,name,date,type,extra\n" +
		"food,12.75,Snack,2024-01-01,expense,x\n" +
		"food,7abc,Tea,2024-01-01,expense\n" +
		"food,abc,Junk,2024-01-01,expense,y\n"

	rec := &recorder{}
	if _, err := ImportCSV(context.Background(), strings.NewReader(in), rec.add); err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	want := []float64{12, 7, 0}
	if len(rec.rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rec.rows))
	}
	for i, amt := range want {
		if rec.rows[i].Amount != amt {
			t.Errorf("row %d amount = %v, want %v", i, rec.rows[i].Amount, amt)
		}
	}
}

func TestImportCSVMissingColumn(t *testing.T) {
	in := "name,type,date,amount\nRent,expense,2024-01-01,900\n"
	rec := &recorder{}
	n, err := ImportCSV(context.Background(), strings.NewReader(in), rec.add)
	if err != nil || n != 0 {
		t.Fatalf("expected no rows and no error, got %d, %v", n, err)
	}
}

func TestImportCSVMalformed(t *testing.T) {
	in := "name,type,date,amount,tag\n\"Rent,expense,2024-01-01,900,office\n"
	_, err := ImportCSV(context.Background(), strings.NewReader(in), (&recorder{}).add)
	if !errors.Is(err, ErrMalformedCSV) {
		t.Fatalf("expected ErrMalformedCSV, got %v", err)
	}
}

func TestImportCSVAddErrorStops(t *testing.T) {
	in := "name,type,date,amount,tag\n" +
		"A,expense,2024-01-01,1,food\n" +
		"B,expense,2024-01-01,2,food\n" +
		"C,expense,2024-01-01,3,food\n"
	rec := &recorder{failAt: 2}
	n, err := ImportCSV(context.Background(), strings.NewReader(in), rec.add)
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 1 || len(rec.rows) != 1 || rec.rows[0].Name != "A" {
		t.Fatalf("expected first row kept, got %d rows %+v", n, rec.rows)
	}
}

func TestImportCSVEmpty(t *testing.T) {
	n, err := ImportCSV(context.Background(), strings.NewReader(""), (&recorder{}).add)
	if err != nil || n != 0 {
		t.Fatalf("expected 0, nil; got %d, %v", n, err)
	}
}
