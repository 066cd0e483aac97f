// Package transfer moves whole entity tables in and out as CSV.
//
// Import is two-pass: every row is checked first and errors are collected; rows are written
// only when the whole file is clean, in one transaction and without history rows.
package transfer

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "it-inventory/internal/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Report summarises an import. Rows are only written when Errors is empty.
type Report struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors,omitempty"`
}

func (r Report) OK() bool { return len(r.Errors) == 0 }

func (r *Report) addf(line int, format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf("row %d: ", line)+fmt.Sprintf(format, args...))
}

// Export writes the header and one row per record ordered by id.
func Export[T any](ctx context.Context, w io.Writer, db *gorm.DB, codec Codec[T]) error {
	var records []T
	if err := db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "load "+codec.Table, err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(codec.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range records {
		row := append([]string{strconv.FormatUint(uint64(codec.ID(&records[i])), 10)}, codec.Encode(&records[i])...)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s row: %w", codec.Table, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type parsedRow[T any] struct {
	line int
	id   uint
	rec  *T
}

// Import reads a CSV file in the codec's layout and upserts every row by id. Problems with the
// file are reported in the Report; the error return is reserved for storage failures.
func Import[T any](ctx context.Context, db *gorm.DB, r io.Reader, codec Codec[T]) (Report, error) {
	db = db.WithContext(ctx)

	var report Report
	rows, err := readRows(r)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report, nil
	}

	parsed := check(db, rows, codec, &report)
	if !report.OK() || len(parsed) == 0 {
		return report, nil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		upsert := clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(append(append([]string{}, codec.Columns...), "updated_at")),
		}
		if err := releaseUnique(tx, codec, parsed); err != nil {
			return err
		}

		var maxID uint
		for _, p := range parsed {
			codec.SetID(p.rec, p.id)
			if err := tx.Omit(clause.Associations).Clauses(upsert).Create(p.rec).Error; err != nil {
				if stderrors.Is(err, gorm.ErrDuplicatedKey) {
					return apperrors.Wrap(apperrors.ErrDuplicate, fmt.Sprintf("row %d conflicts with a stored %s", p.line, codec.Table), err)
				}
				return apperrors.Wrap(apperrors.ErrInternal, fmt.Sprintf("import row %d", p.line), err)
			}
			maxID = max(maxID, p.id)
		}
		return advanceSequence(tx, codec.Table, maxID)
	})
	if err != nil {
		return report, err
	}

	report.Imported = len(parsed)
	return report, nil
}

func readRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err == io.EOF {
		return nil, stderrors.New("file is empty, expected a header row")
	} else if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, row)
	}
}

// check is the first pass. It never writes.
func check[T any](db *gorm.DB, rows [][]string, codec Codec[T], report *Report) []parsedRow[T] {
	fileIDs := idsInFile(rows, len(codec.Header))
	seenIDs := map[uint]int{}
	seenUnique := make([]map[string]int, len(codec.Unique))
	for i := range seenUnique {
		seenUnique[i] = map[string]int{}
	}

	var parsed []parsedRow[T]
	for i, row := range rows {
		line := i + 2 // header is line 1

		if len(row) != len(codec.Header) {
			report.addf(line, "expected %d columns, got %d", len(codec.Header), len(row))
			continue
		}

		raw := strings.TrimSpace(row[0])
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || n == 0 {
			report.addf(line, "invalid ID: %q", raw)
			continue
		}
		id := uint(n)
		if first, dup := seenIDs[id]; dup {
			report.addf(line, "duplicate ID %d, first seen on row %d", id, first)
			continue
		}
		seenIDs[id] = line

		fields := row[1:]
		for u, col := range codec.Unique {
			value := strings.TrimSpace(fields[col.Index])
			if value == "" {
				continue
			}
			if first, dup := seenUnique[u][value]; dup {
				report.addf(line, "duplicate %s %q, first seen on row %d", col.Label, value, first)
				continue
			}
			seenUnique[u][value] = line

			// A stored owner that this file also overwrites gives the value up, and
			// seenUnique catches it if the file keeps it there.
			var owners []uint
			err := db.Table(codec.Table).
				Where(clause.Eq{Column: clause.Column{Name: col.Column}, Value: value}).
				Where("id <> ?", id).
				Pluck("id", &owners).Error
			if err != nil {
				report.addf(line, "check %s: %v", col.Label, err)
				continue
			}
			for _, owner := range owners {
				if !fileIDs[owner] {
					report.addf(line, "%s %q already belongs to another record", col.Label, value)
					break
				}
			}
		}

		rec, problems := codec.Decode(fields)
		for _, p := range problems {
			report.addf(line, "%s", p)
		}
		if len(problems) > 0 {
			continue
		}

		if codec.Check != nil {
			if err := codec.Check(db, rec); err != nil {
				report.addf(line, "%s", message(err))
				continue
			}
		}

		parsed = append(parsed, parsedRow[T]{line: line, id: id, rec: rec})
	}
	return parsed
}

// idsInFile collects the ids of well-formed rows.
func idsInFile(rows [][]string, width int) map[uint]bool {
	ids := map[uint]bool{}
	for _, row := range rows {
		if len(row) != width {
			continue
		}
		if n, err := strconv.ParseUint(strings.TrimSpace(row[0]), 10, 32); err == nil && n > 0 {
			ids[uint(n)] = true
		}
	}
	return ids
}

// releaseUnique parks the unique values of stored rows the import overwrites, so values can
// move between those rows without tripping the unique indexes mid-transaction.
func releaseUnique[T any](tx *gorm.DB, codec Codec[T], parsed []parsedRow[T]) error {
	if len(codec.Unique) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(parsed))
	for _, p := range parsed {
		ids = append(ids, p.id)
	}
	parked := map[string]any{}
	for _, col := range codec.Unique {
		parked[col.Column] = gorm.Expr("'~import~' || CAST(id AS TEXT)")
	}
	if err := tx.Table(codec.Table).Where("id IN ?", ids).Updates(parked).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "release "+codec.Table+" unique values", err)
	}
	return nil
}

// advanceSequence moves the Postgres id sequence past explicitly inserted ids.
func advanceSequence(tx *gorm.DB, table string, maxID uint) error {
	if tx.Dialector.Name() != "postgres" || maxID == 0 {
		return nil
	}
	err := tx.Exec(
		"SELECT setval(pg_get_serial_sequence(?, 'id'), GREATEST((SELECT COALESCE(MAX(id), 0) FROM "+table+"), ?))",
		table, maxID,
	).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "advance "+table+" id sequence", err)
	}
	return nil
}

func message(err error) string {
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
