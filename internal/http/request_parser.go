package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"myrupee/internal/core"
)

var errEmptyBody = errors.New("empty request body")

// RequestBodyParser reads a JSON object or a form-encoded body once and
// exposes its fields as strings.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads at most limit bytes of r's body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request, limit int64) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	return p
}

func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.err = errEmptyBody
		return p.err
	}

	if strings.HasPrefix(trimmed, "{") {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal(p.body, &p.jsonData)
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a trimmed field value with control characters removed.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetRaw returns a field without trimming, for passwords.
func (p *RequestBodyParser) GetRaw(key string) string {
	if p.jsonData != nil {
		if s, ok := p.jsonData[key].(string); ok {
			return s
		}
		return ""
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// Draft collects the transaction form fields.
func (p *RequestBodyParser) Draft() core.Draft {
	return core.Draft{
		Name:   p.Get("name"),
		Amount: p.Get("amount"),
		Date:   p.Get("date"),
		Tag:    p.Get("tag"),
		Type:   core.TxType(strings.ToLower(p.Get("type"))),
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput trims s and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
