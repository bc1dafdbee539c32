package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budgetbook/internal/core"
)

const maxBodyBytes = 64 << 10

var errMissingField = errors.New("missing field")

// RequestBodyParser reads a JSON object or a form-encoded body once and
// exposes its fields as strings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads up to maxBodyBytes of the request body.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body: JSON if it starts with '{', form values otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal([]byte(body), &p.jsonData)
		return p.err
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns the sanitized string value of key, or "".
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

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
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

// transactionFields are the user-supplied fields of a transaction.
type transactionFields struct {
	Date        string
	Description string
	Amount      float64
	Type        core.TransactionType
}

// parseTransactionFields reads date, description, amount and type. Amount
// may be a JSON number or text with either decimal separator. Type defaults
// to Expense.
func parseTransactionFields(p *RequestBodyParser) (transactionFields, error) {
	var f transactionFields
	if err := p.Parse(); err != nil {
		return f, fmt.Errorf("invalid request body: %w", err)
	}

	f.Date = p.Get("date")
	f.Description = p.Get("description")
	if f.Date == "" {
		return f, fmt.Errorf("%w: date", errMissingField)
	}
	if f.Description == "" {
		return f, fmt.Errorf("%w: description", errMissingField)
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return f, err
	}
	f.Amount = amount

	f.Type = core.Expense
	if v := p.Get("type"); v != "" {
		if f.Type, err = core.ParseTransactionType(v); err != nil {
			return f, err
		}
	}
	return f, nil
}

type credentialFields struct {
	Username string
	Password string
}

func parseCredentialFields(p *RequestBodyParser) (credentialFields, error) {
	if err := p.Parse(); err != nil {
		return credentialFields{}, fmt.Errorf("invalid request body: %w", err)
	}
	c := credentialFields{Username: p.Get("username"), Password: p.Get("password")}
	if c.Username == "" || c.Password == "" {
		return c, fmt.Errorf("%w: username and password are required", errMissingField)
	}
	return c, nil
}
