// Package repository implements audit-logged CRUD for the inventory entities.
//
// One generic Repository serves every entity type; the differences between types live in a
// Resource descriptor (diff fields, search and sort columns, uniqueness, references).
package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"it-inventory/internal/audit"
	"it-inventory/internal/diff"
	apperrors "it-inventory/internal/errors"
	"it-inventory/internal/models"
	"it-inventory/internal/validation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Query filters and orders a List call. Zero values mean no filter and the default order.
type Query struct {
	Search string
	Status string
	SortBy string
}

// Unique declares a column that must not repeat across records.
type Unique[T any] struct {
	Column string
	Label  string
	Get    func(*T) string
}

// Resource describes how one entity type is stored, searched and compared.
type Resource[T any] struct {
	Entity models.EntityType
	Label  string

	Fields []diff.Field[T]

	SearchColumns []string
	// SortColumns maps accepted sort keys to column names. Keys outside the map are rejected.
	SortColumns  map[string]string
	DefaultSort  string
	StatusColumn string

	Unique []Unique[T]

	ID func(*T) uint

	// Validate reports field problems on a full record. Optional.
	Validate func(*T) validation.Violations
	// CheckReferences verifies foreign references inside the write transaction. Optional.
	CheckReferences func(tx *gorm.DB, rec *T) error
	// BeforeDelete runs inside the delete transaction before the row is removed. Optional.
	BeforeDelete func(tx *gorm.DB, id uint) error
}

type Repository[T any] struct {
	db     *gorm.DB
	audit  *audit.Writer
	config Resource[T]
}

func New[T any](db *gorm.DB, w *audit.Writer, res Resource[T]) *Repository[T] {
	return &Repository[T]{db: db, audit: w, config: res}
}

func (r *Repository[T]) Resource() Resource[T] {
	return r.config
}

// Create inserts rec and returns its id.
func (r *Repository[T]) Create(ctx context.Context, rec *T) (uint, error) {
	if err := r.validate(rec); err != nil {
		return 0, err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.checkWrite(tx, rec, 0); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(rec).Error; err != nil {
			return r.storageError("create", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return r.config.ID(rec), nil
}

func (r *Repository[T]) Get(ctx context.Context, id uint) (*T, error) {
	return r.load(r.db.WithContext(ctx), id)
}

// List returns the records matching q, ordered by the requested sort key and then by id.
func (r *Repository[T]) List(ctx context.Context, q Query) ([]T, error) {
	sortKey := strings.TrimSpace(q.SortBy)
	if sortKey == "" {
		sortKey = r.config.DefaultSort
	}
	column, ok := r.config.SortColumns[sortKey]
	if !ok {
		return nil, apperrors.Validation("invalid sort key", map[string]string{"sort_by": "invalid_choice"})
	}

	tx := r.db.WithContext(ctx).Model(new(T))

	if search := strings.TrimSpace(q.Search); search != "" && len(r.config.SearchColumns) > 0 {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		conds := make([]string, len(r.config.SearchColumns))
		args := make([]any, len(r.config.SearchColumns))
		for i, col := range r.config.SearchColumns {
			conds[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
			args[i] = pattern
		}
		tx = tx.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	if status := strings.TrimSpace(q.Status); status != "" {
		if r.config.StatusColumn == "" {
			return nil, apperrors.Validation(r.config.Label+" has no status", map[string]string{"status": "unsupported"})
		}
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: r.config.StatusColumn}, Value: status})
	}

	tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: column}})
	if column != "id" {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}

	var out []T
	if err := tx.Find(&out).Error; err != nil {
		return nil, r.storageError("list", err)
	}
	return out, nil
}

// Update diffs snapshot against the stored record, saves the result and appends one history
// row per change, all in one transaction. Concurrent updates are last-write-wins.
func (r *Repository[T]) Update(ctx context.Context, id uint, snapshot *T, actor audit.Actor) ([]string, error) {
	if err := r.validate(snapshot); err != nil {
		return nil, err
	}

	var changes []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		working, err := r.load(tx, id)
		if err != nil {
			return err
		}

		changes = diff.Apply(working, snapshot, r.config.Fields)
		if len(changes) == 0 {
			return nil
		}

		if err := r.checkWrite(tx, working, id); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(working).Error; err != nil {
			return r.storageError("update", err)
		}
		return r.audit.Record(tx, r.config.Entity, id, changes, actor)
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// Delete removes the record together with its history.
func (r *Repository[T]) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.load(tx, id); err != nil {
			return err
		}
		if r.config.BeforeDelete != nil {
			if err := r.config.BeforeDelete(tx, id); err != nil {
				return err
			}
		}
		if err := audit.DeleteFor(tx, r.config.Entity, id); err != nil {
			return err
		}
		if err := tx.Delete(new(T), id).Error; err != nil {
			return r.storageError("delete", err)
		}
		return nil
	})
}

// History returns the change log of an existing record in chronological order.
func (r *Repository[T]) History(ctx context.Context, id uint) ([]models.LogEntry, error) {
	db := r.db.WithContext(ctx)
	if _, err := r.load(db, id); err != nil {
		return nil, err
	}
	return audit.History(db, r.config.Entity, id)
}

func (r *Repository[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(new(T)).Count(&n).Error; err != nil {
		return 0, r.storageError("count", err)
	}
	return n, nil
}

func (r *Repository[T]) load(db *gorm.DB, id uint) (*T, error) {
	rec := new(T)
	if err := db.First(rec, id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(r.config.Label)
		}
		return nil, r.storageError("load", err)
	}
	return rec, nil
}

func (r *Repository[T]) validate(rec *T) error {
	if r.config.Validate == nil {
		return nil
	}
	if v := r.config.Validate(rec); !v.Empty() {
		return apperrors.Validation("invalid "+r.config.Label, v)
	}
	return nil
}

// checkWrite runs the reference and uniqueness checks. excludeID is the record being updated.
func (r *Repository[T]) checkWrite(tx *gorm.DB, rec *T, excludeID uint) error {
	if r.config.CheckReferences != nil {
		if err := r.config.CheckReferences(tx, rec); err != nil {
			return err
		}
	}

	for _, u := range r.config.Unique {
		value := u.Get(rec)
		if value == "" {
			continue
		}
		var count int64
		q := tx.Model(new(T)).Where(clause.Eq{Column: clause.Column{Name: u.Column}, Value: value})
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&count).Error; err != nil {
			return r.storageError("check "+u.Column, err)
		}
		if count > 0 {
			return &apperrors.AppError{
				Code:    apperrors.ErrDuplicate,
				Message: fmt.Sprintf("%s %q already exists", u.Label, value),
				Fields:  map[string]string{u.Column: "duplicate"},
			}
		}
	}
	return nil
}

func (r *Repository[T]) storageError(op string, err error) error {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Wrap(apperrors.ErrDuplicate, r.config.Label+" already exists", err)
	}
	return apperrors.Wrap(apperrors.ErrInternal, fmt.Sprintf("%s %s", op, r.config.Label), err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
