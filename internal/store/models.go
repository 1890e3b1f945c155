package store

import "time"

type Role string

const (
	RoleDeveloper Role = "developer"
	RoleEmployer  Role = "employer"
)

func (r Role) Valid() bool {
	return r == RoleDeveloper || r == RoleEmployer
}

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusAccepted ApplicationStatus = "accepted"
	StatusRejected ApplicationStatus = "rejected"
)

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         Role      `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

// Profile is the stored row for both roles. Which fields are meaningful
// depends on Role; writes go through DeveloperProfileInput or
// EmployerProfileInput.
type Profile struct {
	UserID    string    `db:"user_id"`
	Email     string    `db:"email"`
	Role      Role      `db:"role"`
	Name      string    `db:"name"`
	Company   string    `db:"company"`
	Location  string    `db:"location"`
	TechStack string    `db:"tech_stack"`
	GitHub    string    `db:"github"`
	Portfolio string    `db:"portfolio"`
	Bio       string    `db:"bio"`
	AvatarURL string    `db:"avatar_url"`
	ResumeURL string    `db:"resume_url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DisplayName is the company for employers and the person's name otherwise.
func (p *Profile) DisplayName() string {
	if p.Role == RoleEmployer && p.Company != "" {
		return p.Company
	}
	return p.Name
}

func (p Profile) SearchFields() []string { return []string{p.Name, p.TechStack} }

func (p Profile) Stack() string { return p.TechStack }

type DeveloperProfileInput struct {
	Name      string
	Location  string
	TechStack string
	GitHub    string
	Portfolio string
	Bio       string
}

type EmployerProfileInput struct {
	Name     string
	Company  string
	Location string
	Bio      string
}

type Job struct {
	ID          string    `db:"id"`
	OwnerID     string    `db:"user_id"`
	Title       string    `db:"title"`
	Company     string    `db:"company"`
	Location    string    `db:"location"`
	TechStack   string    `db:"tech_stack"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

func (j Job) SearchFields() []string { return []string{j.Title, j.Company, j.TechStack} }

func (j Job) Stack() string { return j.TechStack }

type JobInput struct {
	Title       string
	Company     string
	Location    string
	TechStack   string
	Description string
}

type Application struct {
	ID              string            `db:"id"`
	UserID          string            `db:"user_id"`
	JobID           string            `db:"job_id"`
	Status          ApplicationStatus `db:"status"`
	CreatedAt       time.Time         `db:"created_at"`
	StatusUpdatedAt *time.Time        `db:"status_updated_at"`
}

// DeveloperApplication is an application as listed on the developer's
// dashboard, carrying the job it targets.
type DeveloperApplication struct {
	Application
	JobTitle    string `db:"job_title"`
	JobCompany  string `db:"job_company"`
	JobLocation string `db:"job_location"`
}

// Applicant is an application as seen by the employer who owns the job.
type Applicant struct {
	ApplicationID   string            `db:"id"`
	JobID           string            `db:"job_id"`
	UserID          string            `db:"user_id"`
	Status          ApplicationStatus `db:"status"`
	StatusUpdatedAt *time.Time        `db:"status_updated_at"`
	Name            string            `db:"name"`
	ResumeURL       string            `db:"resume_url"`
}

// EmployerJob is a posted job with its traffic and applicants.
type EmployerJob struct {
	Job
	ViewCount  int         `db:"view_count"`
	Applicants []Applicant `db:"-"`
}
