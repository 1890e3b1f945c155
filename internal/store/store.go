package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("duplicate")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

const mysqlErrDupEntry = 1062

const profileColumns = "user_id, email, role, name, company, location, tech_stack, github, portfolio, bio, avatar_url, resume_url, created_at, updated_at"

const jobColumns = "id, user_id, title, company, location, tech_stack, description, created_at"

// Store is the data-access layer. The DSN must set parseTime=true.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// queryer lets read helpers run inside or outside a transaction.
type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

func (s *Store) q(tx *sqlx.Tx) queryer {
	if tx != nil {
		return tx
	}
	return s.db
}

// CreateUser inserts the account and its empty profile row in one transaction.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string, role Role) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("role %q: %w", role, ErrInvalidInput)
	}
	email = strings.ToLower(strings.TrimSpace(email))

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx, "INSERT INTO users (id, email, password_hash, role) VALUES (?, ?, ?, ?)", id, email, passwordHash, role); err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO profiles (user_id, email, role, bio) VALUES (?, ?, ?, '')", id, email, role); err != nil {
		return nil, err
	}

	var u User
	if err := tx.GetContext(ctx, &u, "SELECT id, email, password_hash, role, created_at FROM users WHERE id = ?", id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.fetchUser(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	return s.fetchUser(ctx, "id = ?", id)
}

func (s *Store) fetchUser(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, "SELECT id, email, password_hash, role, created_at FROM users WHERE "+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	return s.getProfile(ctx, nil, userID)
}

func (s *Store) getProfile(ctx context.Context, tx *sqlx.Tx, userID string) (*Profile, error) {
	var p Profile
	err := s.q(tx).GetContext(ctx, &p, "SELECT "+profileColumns+" FROM profiles WHERE user_id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListDevelopers returns every developer profile ordered by name.
func (s *Store) ListDevelopers(ctx context.Context) ([]Profile, error) {
	var rows []Profile
	err := s.db.SelectContext(ctx, &rows, "SELECT "+profileColumns+" FROM profiles WHERE role = ? ORDER BY name, user_id", RoleDeveloper)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) UpdateDeveloperProfile(ctx context.Context, userID string, in DeveloperProfileInput) (*Profile, error) {
	return s.updateProfile(ctx, userID, RoleDeveloper,
		"name = ?, location = ?, tech_stack = ?, github = ?, portfolio = ?, bio = ?",
		strings.TrimSpace(in.Name), strings.TrimSpace(in.Location), strings.TrimSpace(in.TechStack),
		strings.TrimSpace(in.GitHub), strings.TrimSpace(in.Portfolio), in.Bio,
	)
}

func (s *Store) UpdateEmployerProfile(ctx context.Context, userID string, in EmployerProfileInput) (*Profile, error) {
	return s.updateProfile(ctx, userID, RoleEmployer,
		"name = ?, company = ?, location = ?, bio = ?",
		strings.TrimSpace(in.Name), strings.TrimSpace(in.Company), strings.TrimSpace(in.Location), in.Bio,
	)
}

func (s *Store) updateProfile(ctx context.Context, userID string, role Role, set string, args ...any) (*Profile, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := s.getProfile(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if current.Role != role {
		return nil, ErrForbidden
	}

	args = append(args, userID)
	if _, err := tx.ExecContext(ctx, "UPDATE profiles SET "+set+", updated_at = NOW() WHERE user_id = ?", args...); err != nil {
		return nil, err
	}

	updated, err := s.getProfile(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) SetAvatarURL(ctx context.Context, userID, url string) (*Profile, error) {
	return s.setProfileColumn(ctx, userID, "avatar_url", url)
}

func (s *Store) SetResumeURL(ctx context.Context, userID, url string) (*Profile, error) {
	return s.setProfileColumn(ctx, userID, "resume_url", url)
}

func (s *Store) setProfileColumn(ctx context.Context, userID, column, value string) (*Profile, error) {
	if _, err := s.getProfile(ctx, nil, userID); err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE profiles SET "+column+" = ?, updated_at = NOW() WHERE user_id = ?", value, userID); err != nil {
		return nil, err
	}
	return s.getProfile(ctx, nil, userID)
}

func (s *Store) CreateJob(ctx context.Context, ownerID string, in JobInput) (*Job, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO jobs (id, user_id, title, company, location, tech_stack, description) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, ownerID, strings.TrimSpace(in.Title), strings.TrimSpace(in.Company), strings.TrimSpace(in.Location),
		strings.TrimSpace(in.TechStack), in.Description,
	)
	if err != nil {
		return nil, err
	}
	return s.GetJob(ctx, id)
}

func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	var j Job
	err := s.db.GetContext(ctx, &j, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// ListJobs returns every job, newest first.
func (s *Store) ListJobs(ctx context.Context) ([]Job, error) {
	var rows []Job
	if err := s.db.SelectContext(ctx, &rows, "SELECT "+jobColumns+" FROM jobs ORDER BY created_at DESC, id"); err != nil {
		return nil, err
	}
	return rows, nil
}

// Apply records a pending application. A user may apply to a job once.
func (s *Store) Apply(ctx context.Context, userID, jobID string) (*Application, error) {
	if _, err := s.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, "INSERT INTO applications (id, user_id, job_id, status) VALUES (?, ?, ?, ?)", id, userID, jobID, StatusPending)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return s.getApplication(ctx, nil, id)
}

func (s *Store) getApplication(ctx context.Context, tx *sqlx.Tx, id string) (*Application, error) {
	var a Application
	err := s.q(tx).GetContext(ctx, &a, "SELECT id, user_id, job_id, status, created_at, status_updated_at FROM applications WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) HasApplied(ctx context.Context, userID, jobID string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM applications WHERE user_id = ? AND job_id = ?", userID, jobID); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) ListApplicationsByUser(ctx context.Context, userID string) ([]DeveloperApplication, error) {
	query := `SELECT a.id, a.user_id, a.job_id, a.status, a.created_at, a.status_updated_at,
	j.title AS job_title, j.company AS job_company, j.location AS job_location
	FROM applications a JOIN jobs j ON j.id = a.job_id
	WHERE a.user_id = ? ORDER BY a.created_at DESC, a.id`
	var rows []DeveloperApplication
	if err := s.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	return rows, nil
}

// DecideApplication moves a pending application to accepted or rejected. Only
// the employer who owns the job may decide, and only once.
func (s *Store) DecideApplication(ctx context.Context, employerID, applicationID string, decision ApplicationStatus) (*Application, error) {
	if decision != StatusAccepted && decision != StatusRejected {
		return nil, fmt.Errorf("decision %q: %w", decision, ErrInvalidInput)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var row struct {
		Status  ApplicationStatus `db:"status"`
		OwnerID string            `db:"owner_id"`
	}
	err = tx.GetContext(ctx, &row, "SELECT a.status, j.user_id AS owner_id FROM applications a JOIN jobs j ON j.id = a.job_id WHERE a.id = ? FOR UPDATE", applicationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if row.OwnerID != employerID {
		return nil, ErrForbidden
	}
	if row.Status != StatusPending {
		return nil, fmt.Errorf("application already %s: %w", row.Status, ErrConflict)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE applications SET status = ?, status_updated_at = NOW() WHERE id = ?", decision, applicationID); err != nil {
		return nil, err
	}
	app, err := s.getApplication(ctx, tx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return app, nil
}

// RecordJobView logs a view of the job. viewerID is nil for anonymous visitors.
func (s *Store) RecordJobView(ctx context.Context, jobID string, viewerID *string) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO job_views (job_id, viewer_id) VALUES (?, ?)", jobID, viewerID)
	return err
}

// ListEmployerJobs returns the employer's jobs, newest first, each with its
// view count and applicants.
func (s *Store) ListEmployerJobs(ctx context.Context, ownerID string) ([]EmployerJob, error) {
	query := `SELECT j.id, j.user_id, j.title, j.company, j.location, j.tech_stack, j.description, j.created_at,
	(SELECT COUNT(*) FROM job_views v WHERE v.job_id = j.id) AS view_count
	FROM jobs j WHERE j.user_id = ? ORDER BY j.created_at DESC, j.id`
	var rows []EmployerJob
	if err := s.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, err
	}
	jobs := make([]*EmployerJob, len(rows))
	for i := range rows {
		jobs[i] = &rows[i]
	}
	if err := s.attachApplicants(ctx, jobs); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) attachApplicants(ctx context.Context, jobs []*EmployerJob) error {
	if len(jobs) == 0 {
		return nil
	}
	ids := make([]string, len(jobs))
	index := make(map[string]*EmployerJob, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
		index[j.ID] = j
		j.Applicants = []Applicant{}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `SELECT a.id, a.job_id, a.user_id, a.status, a.status_updated_at,
	COALESCE(p.name, '') AS name, COALESCE(p.resume_url, '') AS resume_url
	FROM applications a LEFT JOIN profiles p ON p.user_id = a.user_id
	WHERE a.job_id IN (` + placeholders + `) ORDER BY a.created_at, a.id`
	var applicants []Applicant
	if err := s.db.SelectContext(ctx, &applicants, query, toAny(ids)...); err != nil {
		return err
	}
	for _, a := range applicants {
		if j, ok := index[a.JobID]; ok {
			j.Applicants = append(j.Applicants, a)
		}
	}
	return nil
}

func toAny[T comparable](vals []T) []any {
	res := make([]any, len(vals))
	for i, v := range vals {
		res[i] = v
	}
	return res
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrDupEntry
	}
	return false
}
