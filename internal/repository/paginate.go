package repository

import (
	"context"
	"database/sql"
	"strings"

	"vidnest/internal/models"

	"gorm.io/gorm"
)

// DefaultPageLimit applies when the caller asks for no particular window size.
const DefaultPageLimit = 10

// PageRequest is a 1-indexed window with the configured ceiling for its size.
type PageRequest struct {
	Page     int
	Limit    int
	MaxLimit int
}

// Normalize clamps the request: page below 1 becomes 1, limit defaults to
// DefaultPageLimit and never exceeds MaxLimit.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit <= 0 {
		r.Limit = DefaultPageLimit
	}
	if r.MaxLimit > 0 && r.Limit > r.MaxLimit {
		r.Limit = r.MaxLimit
	}
	return r
}

// Offset is the number of rows preceding the window.
func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

// PageQuery is one filtered, ordered listing. The count and the item query
// share Filter, so totals always describe the same predicate as the items.
type PageQuery struct {
	Filter  func(*gorm.DB) *gorm.DB
	Order   []string
	Preload []string
}

// Paginate returns one window of T. The primary key is appended to the ordering
// so consecutive pages are disjoint over a stable dataset. A page past the end
// yields an empty item list.
func Paginate[T any](ctx context.Context, db *gorm.DB, q PageQuery, req PageRequest) (models.Page[*T], error) {
	req = req.Normalize()
	out := models.Page[*T]{
		Items: make([]*T, 0),
		Page:  req.Page,
		Limit: req.Limit,
	}

	table := tableOf[T](db)
	run := func(tx *gorm.DB) error {
		scoped := func() *gorm.DB {
			stmt := tx.WithContext(ctx).Model(new(T))
			if q.Filter != nil {
				stmt = q.Filter(stmt)
			}
			return stmt
		}

		if err := scoped().Count(&out.TotalItems).Error; err != nil {
			return err
		}
		out.TotalPages = int((out.TotalItems + int64(req.Limit) - 1) / int64(req.Limit))
		if out.TotalItems == 0 || req.Page > out.TotalPages {
			return nil
		}

		stmt := scoped()
		for _, assoc := range q.Preload {
			stmt = stmt.Preload(assoc)
		}
		for _, term := range withTieBreaker(q.Order, table) {
			stmt = stmt.Order(term)
		}
		return stmt.Offset(req.Offset()).Limit(req.Limit).Find(&out.Items).Error
	}

	var err error
	if db.Dialector.Name() == "postgres" {
		err = db.WithContext(ctx).Transaction(run, &sql.TxOptions{
			Isolation: sql.LevelRepeatableRead,
			ReadOnly:  true,
		})
	} else {
		err = run(db)
	}
	if err != nil {
		return models.Page[*T]{}, models.NewInternalError(err)
	}
	return out, nil
}

func withTieBreaker(order []string, table string) []string {
	key := "id"
	if table != "" {
		key = table + ".id"
	}
	for _, term := range order {
		fields := strings.Fields(strings.ToLower(term))
		if len(fields) > 0 && (fields[0] == "id" || fields[0] == key) {
			return order
		}
	}
	return append(append(make([]string, 0, len(order)+1), order...), key+" DESC")
}

func tableOf[T any](db *gorm.DB) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		return ""
	}
	return stmt.Schema.Table
}
