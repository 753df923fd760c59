package filter

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"myrupee/internal/core"
)

// Columns is the header written by ExportCSV and required by ImportCSV.
var Columns = []string{"name", "type", "date", "amount", "tag"}

// ErrMalformedCSV is returned when the file cannot be parsed at all.
var ErrMalformedCSV = errors.New("malformed csv")

// AddFunc receives one import row. Returning an error stops the import.
type AddFunc func(ctx context.Context, n core.NewTransaction) error

// ExportFilename returns the download name for a CSV export made at now.
func ExportFilename(now time.Time) string {
	return "transactions_" + now.Format(core.DateLayout) + ".csv"
}

// ExportCSV writes list with the name,type,date,amount,tag header.
func ExportCSV(w io.Writer, list []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range list {
		rec := []string{
			tx.Name,
			string(tx.Type),
			tx.Date,
			strconv.FormatFloat(tx.Amount, 'f', -1, 64),
			tx.Tag,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportCSV reads a header-driven CSV and calls add for every row whose
// five fields are all present and non-empty. Other rows are skipped. The
// amount is taken as its leading integer, so "12.75" becomes 12 and a
// value with no leading digits becomes 0.
//
// Rows added before an add error stay added; the error is returned with
// the count of rows that succeeded.
func ImportCSV(ctx context.Context, r io.Reader, add AddFunc) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}
	index := map[string]int{}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	added := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return added, nil
		}
		if err != nil {
			return added, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		if err := ctx.Err(); err != nil {
			return added, err
		}

		row, ok := rowFields(index, rec)
		if !ok {
			continue
		}
		amount, _ := core.TruncateAmount(row["amount"])
		n := core.NewTransaction{
			Name:   row["name"],
			Amount: amount,
			Date:   row["date"],
			Type:   core.TxType(row["type"]),
			Tag:    row["tag"],
		}
		if err := add(ctx, n); err != nil {
			return added, err
		}
		added++
	}
}

func rowFields(index map[string]int, rec []string) (map[string]string, bool) {
	row := make(map[string]string, len(Columns))
	for _, col := range Columns {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return nil, false
		}
		v := strings.TrimSpace(rec[i])
		if v == "" {
			return nil, false
		}
		row[col] = v
	}
	return row, true
}
