package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"budgetbook/internal/core"
)

// ErrMalformedRecord marks a decrypted line that does not parse as a record.
var ErrMalformedRecord = errors.New("malformed record")

// Skip reasons reported through Options.OnSkip.
const (
	SkipDecrypt   = "decrypt"
	SkipMalformed = "malformed"
)

const (
	recordFields       = 5 // date,description,amount,type,category
	legacyRecordFields = 3 // description,amount,category
)

// formatRecordAmount is the persisted amount text: the shortest decimal that
// parses back to the identical float64.
func formatRecordAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// encodeRecord renders tx as a single CSV record without the trailing newline.
func encodeRecord(tx core.Transaction) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	// Writing to a strings.Builder cannot fail.
	_ = w.Write([]string{
		tx.Date,
		tx.Description,
		formatRecordAmount(tx.Amount),
		string(tx.Type),
		tx.Category,
	})
	w.Flush()
	return strings.TrimSuffix(sb.String(), "\n")
}

// decodeRecord parses a decrypted line. Five fields is the current format;
// three fields is the legacy description,amount,category form, loaded as an
// undated Expense. The stored category is kept verbatim.
func decodeRecord(line string) (core.Transaction, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if _, err := r.Read(); err != io.EOF {
		return core.Transaction{}, fmt.Errorf("%w: trailing data", ErrMalformedRecord)
	}

	var tx core.Transaction
	var amountText string
	switch len(fields) {
	case recordFields:
		typ, err := core.ParseTransactionType(fields[3])
		if err != nil {
			return core.Transaction{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		tx = core.Transaction{Date: fields[0], Description: fields[1], Type: typ, Category: fields[4]}
		amountText = fields[2]
	case legacyRecordFields:
		tx = core.Transaction{Description: fields[0], Type: core.Expense, Category: fields[2]}
		amountText = fields[1]
	default:
		return core.Transaction{}, fmt.Errorf("%w: %d fields", ErrMalformedRecord, len(fields))
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(amountText), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return core.Transaction{}, fmt.Errorf("%w: amount %q", ErrMalformedRecord, amountText)
	}
	tx.Amount = amount
	if tx.Category == "" {
		tx.Category = core.DefaultCategory
	}
	return tx, nil
}
