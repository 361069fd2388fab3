package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/transactly/transactly/internal/common"
	"github.com/transactly/transactly/internal/model"
)

// corpusColumns are the required CSV columns, in write order.
var corpusColumns = []string{"transaction_id", "description", "amount", "category"}

// LoadCorpus reads a training corpus CSV. A missing required column is a
// schema error. Category labels are normalized to the canonical set.
func LoadCorpus(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading corpus header: %v", common.ErrSchema, err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range corpusColumns {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%w: corpus %s is missing required column %q", common.ErrSchema, path, required)
		}
	}

	var rows []model.Transaction
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: corpus %s line %d: %v", common.ErrSchema, path, line, err)
		}

		amount, err := strconv.ParseFloat(record[col["amount"]], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: corpus %s line %d: invalid amount %q", common.ErrSchema, path, line, record[col["amount"]])
		}

		rows = append(rows, model.Transaction{
			ID:          record[col["transaction_id"]],
			Description: record[col["description"]],
			Amount:      amount,
			Category:    model.NormalizeLabel(record[col["category"]]),
		})
	}
	return rows, nil
}

// SaveCorpus writes rows as a corpus CSV via temp-file-then-rename.
func SaveCorpus(path string, rows []model.Transaction) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating corpus directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary corpus file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(corpusColumns); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing corpus header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.ID,
			row.Description,
			strconv.FormatFloat(row.Amount, 'f', 2, 64),
			row.Category,
		}
		if err := w.Write(record); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("writing corpus row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flushing corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary corpus file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing corpus: %w", err)
	}
	return nil
}
