package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"laporan/internal/model"
	"laporan/internal/repository"
)

const reportColumns = `id, photo_url, original_name, stored_name, substation, fault, repair,
		fault_at, resolved_at, status, author, uploaded_at`

// ReportPostgres is a PostgreSQL implementation of repository.ReportRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ReportPostgres struct {
	db *sql.DB
}

// NewReportPostgres creates a new ReportPostgres repository.
func NewReportPostgres(db *sql.DB) *ReportPostgres {
	return &ReportPostgres{db: db}
}

var _ repository.ReportRepository = (*ReportPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

// scanReport reads one row in reportColumns order. Zero timestamps are stored as NULL.
func scanReport(s rowScanner) (*model.Report, error) {
	var (
		r          model.Report
		status     string
		faultAt    sql.NullTime
		resolvedAt sql.NullTime
	)
	if err := s.Scan(
		&r.ID,
		&r.PhotoURL,
		&r.OriginalName,
		&r.StoredName,
		&r.Substation,
		&r.Fault,
		&r.Repair,
		&faultAt,
		&resolvedAt,
		&status,
		&r.Author,
		&r.UploadedAt,
	); err != nil {
		return nil, err
	}
	r.Status = model.Status(status)
	if faultAt.Valid {
		r.FaultAt = faultAt.Time
	}
	if resolvedAt.Valid {
		r.ResolvedAt = resolvedAt.Time
	}
	return &r, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// Create inserts a new report row and returns the stored record.
func (r *ReportPostgres) Create(ctx context.Context, rep *model.Report) (*model.Report, error) {
	q := `
		INSERT INTO reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + reportColumns
	row := r.db.QueryRowContext(ctx, q,
		rep.ID,
		rep.PhotoURL,
		rep.OriginalName,
		rep.StoredName,
		rep.Substation,
		rep.Fault,
		rep.Repair,
		nullTime(rep.FaultAt),
		nullTime(rep.ResolvedAt),
		string(rep.Status),
		rep.Author,
		rep.UploadedAt,
	)
	return scanReport(row)
}

// List returns every report in upload order.
func (r *ReportPostgres) List(ctx context.Context) ([]model.Report, error) {
	q := `SELECT ` + reportColumns + ` FROM reports ORDER BY uploaded_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID fetches a single report by its ID.
func (r *ReportPostgres) FindByID(ctx context.Context, id string) (*model.Report, error) {
	q := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	rep, err := scanReport(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rep, nil
}

// Update sets only the columns present in u.
func (r *ReportPostgres) Update(ctx context.Context, id string, u model.ReportUpdate) (*model.Report, error) {
	if u.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.Substation != nil {
		add("substation", *u.Substation)
	}
	if u.Fault != nil {
		add("fault", *u.Fault)
	}
	if u.Repair != nil {
		add("repair", *u.Repair)
	}
	if u.FaultAt != nil {
		add("fault_at", nullTime(*u.FaultAt))
	}
	if u.ResolvedAt != nil {
		add("resolved_at", nullTime(*u.ResolvedAt))
	}
	if u.Status != nil {
		add("status", string(*u.Status))
	}
	if u.Author != nil {
		add("author", *u.Author)
	}
	args = append(args, id)

	q := fmt.Sprintf(`UPDATE reports SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), reportColumns)
	rep, err := scanReport(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rep, nil
}

// Delete removes a report by ID. A missing row yields repository.ErrNotFound.
func (r *ReportPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM reports WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
