package storage

import (
	"context"
	"errors"
	"fmt"

	"budgetbook/internal/core"
)

// FileRecordStore keeps the ledger in a text file holding one encrypted
// record per line. Every Save rewrites the whole file.
type FileRecordStore struct {
	path string
	opts Options
}

func NewFileRecordStore(path string, opts Options) (*FileRecordStore, error) {
	if path == "" {
		return nil, errors.New("record store: empty path")
	}
	if opts.Cipher == nil {
		return nil, errors.New("record store: nil cipher")
	}
	return &FileRecordStore{path: path, opts: opts}, nil
}

// Load returns every record that decrypts and parses, in file order. Lines
// that do not are skipped and reported through Options.OnSkip. A read
// failure part way through returns the records recovered so far together
// with the error.
func (s *FileRecordStore) Load(ctx context.Context) ([]core.Transaction, error) {
	d := recordDecoder{opts: s.opts}
	err := readLines(s.path, d.oversized, func(line string) error {
		d.add(line)
		return nil
	})
	d.log(ctx, s.path)
	if err != nil {
		return d.records, fmt.Errorf("load records: %w", err)
	}
	return d.records, nil
}

// Save encrypts and writes txs, replacing the previous file contents.
func (s *FileRecordStore) Save(ctx context.Context, txs []core.Transaction) error {
	lines := make([]string, len(txs))
	for i, tx := range txs {
		lines[i] = s.opts.Cipher.Encrypt(encodeRecord(tx))
	}
	if err := writeLinesAtomic(s.path, lines); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	s.opts.logger().DebugContext(ctx, "Ledger records saved", "file", s.path, "count", len(txs))
	return nil
}

// recordDecoder turns encrypted payloads into transactions, counting skips.
type recordDecoder struct {
	opts             Options
	records          []core.Transaction
	decryptFailures  int
	malformedRecords int
}

func (d *recordDecoder) add(payload string) {
	plain, err := d.opts.Cipher.Decrypt(payload)
	if err != nil {
		d.decryptFailures++
		d.opts.skip(SkipDecrypt)
		return
	}
	tx, err := decodeRecord(plain)
	if err != nil {
		d.malformedRecords++
		d.opts.skip(SkipMalformed)
		return
	}
	d.records = append(d.records, tx)
}

// oversized counts a line too long to be a record.
func (d *recordDecoder) oversized() {
	d.malformedRecords++
	d.opts.skip(SkipMalformed)
}

func (d *recordDecoder) log(ctx context.Context, source string) {
	if d.decryptFailures+d.malformedRecords > 0 {
		d.opts.logger().WarnContext(ctx, "Skipped unreadable ledger records",
			"file", source,
			"loaded", len(d.records),
			"decrypt_failures", d.decryptFailures,
			"malformed", d.malformedRecords)
		return
	}
	d.opts.logger().DebugContext(ctx, "Ledger records loaded", "file", source, "count", len(d.records))
}
