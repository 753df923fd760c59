package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// DateLayout is the ISO calendar date form used for Transaction.Date.
const DateLayout = "2006-01-02"

type (
	TxType string

	// Transaction is the only persistent entity. ID is assigned by the
	// document store, never by the client.
	Transaction struct {
		ID        string  `json:"id"`
		Name      string  `json:"name"`
		Amount    float64 `json:"amount"`
		Date      string  `json:"date"`
		Type      TxType  `json:"type"`
		Tag       string  `json:"tag"`
		UserID    string  `json:"userId"`
		CreatedAt string  `json:"createdAt"`
	}

	// NewTransaction is an add intent: everything but the store-assigned
	// fields (id, userId, createdAt).
	NewTransaction struct {
		Name   string  `json:"name"`
		Amount float64 `json:"amount"`
		Date   string  `json:"date"`
		Type   TxType  `json:"type"`
		Tag    string  `json:"tag"`
	}

	// Draft carries raw form input before validation.
	Draft struct {
		Name   string `json:"name"`
		Amount string `json:"amount"`
		Date   string `json:"date"`
		Tag    string `json:"tag"`
		Type   TxType `json:"type"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyName     = errors.New("empty name")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyTag      = errors.New("empty tag")
	ErrInvalidType   = errors.New("invalid transaction type")
)

// Tags lists the category options offered for each transaction type.
var Tags = map[TxType][]string{
	Income:  {"salary", "freelance", "investment"},
	Expense: {"food", "education", "office"},
}

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func (t TxType) String() string {
	return string(t)
}

// Label returns the capitalised type name used in notifications.
func (t TxType) Label() string {
	if t == Income {
		return "Income"
	}
	return "Expense"
}

// HasTag reports whether tag is one of the options for t.
func (t TxType) HasTag(tag string) bool {
	for _, v := range Tags[t] {
		if v == tag {
			return true
		}
	}
	return false
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// Validate checks the invariants a NewTransaction must hold before it is
// written to the store.
func (n NewTransaction) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return ErrEmptyName
	}
	if !(n.Amount > 0) {
		return ErrInvalidAmount
	}
	if _, err := ParseDate(n.Date); err != nil {
		return err
	}
	if !n.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(n.Tag) == "" {
		return ErrEmptyTag
	}
	return nil
}

// Materialize builds the stored form of n.
func (n NewTransaction) Materialize(id, userID string, createdAt time.Time) Transaction {
	return Transaction{
		ID:        id,
		Name:      n.Name,
		Amount:    n.Amount,
		Date:      n.Date,
		Type:      n.Type,
		Tag:       n.Tag,
		UserID:    userID,
		CreatedAt: createdAt.UTC().Format(time.RFC3339Nano),
	}
}

// FieldErrors maps a form field to its inline message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Validate checks a form draft field by field and returns the typed intent.
// All failing fields are reported at once.
func (d Draft) Validate() (NewTransaction, error) {
	errs := FieldErrors{}
	label := d.Type.Label()

	name := strings.TrimSpace(d.Name)
	if name == "" {
		errs["name"] = label + " name is required"
	}

	var amount float64
	if strings.TrimSpace(d.Amount) == "" {
		errs["amount"] = "Amount is required"
	} else if v, err := ParseAmount(d.Amount); err != nil {
		errs["amount"] = "Amount must be a positive number"
	} else {
		amount = v
	}

	if strings.TrimSpace(d.Date) == "" {
		errs["date"] = "Date is required"
	} else if _, err := ParseDate(d.Date); err != nil {
		errs["date"] = "Date must be in YYYY-MM-DD form"
	}

	tag := strings.TrimSpace(d.Tag)
	switch {
	case !d.Type.Valid():
		errs["type"] = "Type must be income or expense"
	case tag == "":
		errs["tag"] = "Please select a category"
	case !d.Type.HasTag(tag):
		errs["tag"] = "Please select a category"
	}

	if len(errs) > 0 {
		return NewTransaction{}, errs
	}
	return NewTransaction{
		Name:   name,
		Amount: amount,
		Date:   strings.TrimSpace(d.Date),
		Type:   d.Type,
		Tag:    tag,
	}, nil
}
