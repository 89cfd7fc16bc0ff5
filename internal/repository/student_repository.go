package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/studenthub/outreach-api/internal/model"
	"github.com/studenthub/outreach-api/internal/utils"
)

// dateOnly is the storage layout of the students.date_of_birth column.
const dateOnly = "2006-01-02"

// StudentRepo persists student accounts.
type StudentRepo struct{ DB *sql.DB }

func NewStudentRepo(db *sql.DB) *StudentRepo { return &StudentRepo{DB: db} }

// Create inserts a student and returns its ID.  Eligibility is computed
// here, at creation time, from the date of birth.  Duplicate emails are
// detected via MySQL error 1062 and surfaced as ErrEmailExists.
func (r *StudentRepo) Create(ctx context.Context, fullName, email string, dob time.Time, password string, role model.Role, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	eligible := model.IsEligibleAge(model.ComputeAge(dob, time.Now().UTC()))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO students (full_name, email, date_of_birth, password_hash, role, is_eligible) VALUES (?,?,?,?,?,?)",
		fullName, email, dob.Format(dateOnly), hash, role.String(), eligible)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const studentCols = "id,full_name,email,date_of_birth,password_hash,role,is_eligible,created_at,updated_at"

func scanStudent(row rowScanner) (model.Student, error) {
	var (
		s    model.Student
		role string
	)
	err := row.Scan(&s.ID, &s.FullName, &s.Email, &s.DateOfBirth, &s.PasswordHash, &role, &s.IsEligible, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	if parsed, ok := model.ParseRole(role); ok {
		s.Role = parsed
	} else {
		// Unknown role values fall back to the least privileged role.
		s.Role = model.RoleStudent
	}
	return s, nil
}

// GetByEmail fetches a student by normalized email.
func (r *StudentRepo) GetByEmail(ctx context.Context, email string) (model.Student, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanStudent(r.DB.QueryRowContext(ctx,
		"SELECT "+studentCols+" FROM students WHERE email=? LIMIT 1", email))
}

// GetByID fetches a student by id.
func (r *StudentRepo) GetByID(ctx context.Context, id uint64) (model.Student, error) {
	return scanStudent(r.DB.QueryRowContext(ctx,
		"SELECT "+studentCols+" FROM students WHERE id=? LIMIT 1", id))
}

// UpdateProfile writes mutable account fields from s.  Eligibility is
// recomputed from the date of birth in the same statement's values, so
// a changed date of birth can never leave a stale eligibility flag.
// An email collision with another account surfaces as ErrEmailExists.
func (r *StudentRepo) UpdateProfile(ctx context.Context, s *model.Student) error {
	eligible := model.IsEligibleAge(model.ComputeAge(s.DateOfBirth, time.Now().UTC()))
	res, err := r.DB.ExecContext(ctx,
		"UPDATE students SET full_name=?, email=?, date_of_birth=?, role=?, is_eligible=? WHERE id=?",
		s.FullName, s.Email, s.DateOfBirth.Format(dateOnly), s.Role.String(), eligible, s.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either missing or unchanged; distinguish by existence.
		if _, err := r.GetByID(ctx, s.ID); err == sql.ErrNoRows {
			return ErrStudentNotFound
		}
	}
	s.IsEligible = eligible
	return nil
}

// UpdatePassword replaces the stored hash.
func (r *StudentRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE students SET password_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// SetEligibility sets the eligibility flag directly, bypassing the age
// computation.  The override holds only until the next automatic
// recomputation against the date of birth.
func (r *StudentRepo) SetEligibility(ctx context.Context, id uint64, eligible bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE students SET is_eligible=? WHERE id=?", eligible, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err == sql.ErrNoRows {
			return ErrStudentNotFound
		}
	}
	return nil
}

// Delete removes a student row.
func (r *StudentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM students WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// StudentFilter narrows List results.  Eligible is tri-state: nil means
// no eligibility filter.
type StudentFilter struct {
	Search   string
	Role     model.Role
	Eligible *bool
	Page     int
	Limit    int
}

// List returns a filtered, paginated page of accounts plus the total
// row count for the filter, newest first.
func (r *StudentRepo) List(ctx context.Context, f StudentFilter) ([]model.Student, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.Eligible != nil {
		where = append(where, "is_eligible = ?")
		args = append(args, *f.Eligible)
	}
	if f.Role != "" {
		where = append(where, "role = ?")
		args = append(args, f.Role.String())
	}
	if f.Search != "" {
		where = append(where, "(full_name LIKE ? OR email LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM students WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+studentCols+" FROM students WHERE "+cond+" ORDER BY created_at DESC LIMIT ? OFFSET ?",
		append(args, f.Limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// StudentStats aggregates account counts for the admin dashboard.
type StudentStats struct {
	TotalUsers          int
	EligibleUsers       int
	IneligibleUsers     int
	AdminUsers          int
	StudentUsers        int
	RecentRegistrations int // accounts created in the last 30 days
}

// Stats computes the aggregate counts in a single query.
func (r *StudentRepo) Stats(ctx context.Context) (StudentStats, error) {
	var s StudentStats
	err := r.DB.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(is_eligible), 0),
		COALESCE(SUM(NOT is_eligible), 0),
		COALESCE(SUM(role = 'admin'), 0),
		COALESCE(SUM(role = 'student'), 0),
		COALESCE(SUM(created_at >= NOW() - INTERVAL 30 DAY), 0)
		FROM students`).Scan(&s.TotalUsers, &s.EligibleUsers, &s.IneligibleUsers,
		&s.AdminUsers, &s.StudentUsers, &s.RecentRegistrations)
	return s, err
}

// RefreshEligibility recomputes and persists is_eligible for a student.
// Eligibility decays naturally with time, so reads that matter call
// this instead of trusting the cached column.
func (r *StudentRepo) RefreshEligibility(ctx context.Context, id uint64) (model.Student, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return s, ErrStudentNotFound
		}
		return s, err
	}
	eligible := s.CheckEligibility(time.Now().UTC())
	if eligible != s.IsEligible {
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE students SET is_eligible=? WHERE id=?", eligible, id); err != nil {
			return s, err
		}
		s.IsEligible = eligible
	}
	return s, nil
}

// EnsureAdmin creates the admin account from startup configuration when
// it does not exist yet.  Idempotent: a second boot with the same email
// is a no-op.
func (r *StudentRepo) EnsureAdmin(ctx context.Context, fullName, email, password string, cost int) error {
	email = strings.ToLower(strings.TrimSpace(email))
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM students WHERE email=? LIMIT 1", email).Scan(&id)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}
	// Admins are outside the student age band; date of birth is stored
	// but eligibility stays false.
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO students (full_name, email, date_of_birth, password_hash, role, is_eligible) VALUES (?,?,?,?,?,false)",
		fullName, email, "1970-01-01", hash, model.RoleAdmin.String())
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return nil // raced another instance; account exists
	}
	return err
}
