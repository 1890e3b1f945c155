package httpapi

import (
	"time"

	"github.com/arawak/devboard/internal/session"
	"github.com/arawak/devboard/internal/store"
)

type Error struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details *map[string]any `json:"details,omitempty"`
}

type Health struct {
	Status string `json:"status"`
}

const Ok = "ok"

// request payloads

type SignupRequest struct {
	Email    string     `json:"email" validate:"required,email,max=255"`
	Password string     `json:"password" validate:"required,min=6,max=72"`
	Role     store.Role `json:"role" validate:"required,oneof=developer employer"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type DeveloperProfileRequest struct {
	Name      string `json:"name" validate:"max=255"`
	Location  string `json:"location" validate:"max=255"`
	TechStack string `json:"techStack" validate:"max=1024"`
	GitHub    string `json:"github" validate:"omitempty,url,max=512"`
	Portfolio string `json:"portfolio" validate:"omitempty,url,max=512"`
	Bio       string `json:"bio" validate:"max=5000"`
}

type EmployerProfileRequest struct {
	Name     string `json:"name" validate:"max=255"`
	Company  string `json:"company" validate:"max=255"`
	Location string `json:"location" validate:"max=255"`
	Bio      string `json:"bio" validate:"max=5000"`
}

type JobRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Company     string `json:"company" validate:"max=255"`
	Location    string `json:"location" validate:"max=255"`
	TechStack   string `json:"techStack" validate:"max=1024"`
	Description string `json:"description" validate:"max=20000"`
}

type DecisionRequest struct {
	Decision store.ApplicationStatus `json:"decision" validate:"required,oneof=accepted rejected"`
}

// responses

type AuthResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	Session   *session.Session  `json:"session"`
	Home      string            `json:"home"`
	Nav       []session.NavLink `json:"nav"`
}

type SessionResponse struct {
	Session *session.Session  `json:"session"`
	Nav     []session.NavLink `json:"nav"`
}

// TagChip is one entry of a listing's tag index. Next is the tag selection
// that clicking the chip produces: the tag itself, or "" when it is already
// selected.
type TagChip struct {
	Tag    string `json:"tag"`
	Next   string `json:"next"`
	Active bool   `json:"active"`
}

type DeveloperSummary struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	TechStack string `json:"techStack"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type DeveloperListResponse struct {
	Items       []DeveloperSummary `json:"items"`
	Tags        []TagChip          `json:"tags"`
	Query       string             `json:"q"`
	SelectedTag string             `json:"selectedTag"`
	Total       int                `json:"total"`
}

type Profile struct {
	UserID    string     `json:"userId"`
	Role      store.Role `json:"role"`
	Email     string     `json:"email,omitempty"`
	Name      string     `json:"name"`
	Company   string     `json:"company,omitempty"`
	Location  string     `json:"location"`
	TechStack string     `json:"techStack,omitempty"`
	GitHub    string     `json:"github,omitempty"`
	Portfolio string     `json:"portfolio,omitempty"`
	Bio       string     `json:"bio"`
	AvatarURL string     `json:"avatarUrl,omitempty"`
	ResumeURL string     `json:"resumeUrl,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	TechStack   string    `json:"techStack"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type JobListResponse struct {
	Items       []Job     `json:"items"`
	Tags        []TagChip `json:"tags"`
	Query       string    `json:"q"`
	SelectedTag string    `json:"selectedTag"`
	Total       int       `json:"total"`
}

type JobDetailResponse struct {
	Job        Job  `json:"job"`
	HasApplied bool `json:"hasApplied"`
	CanApply   bool `json:"canApply"`
}

type Application struct {
	ID              string                  `json:"id"`
	JobID           string                  `json:"jobId"`
	UserID          string                  `json:"userId"`
	Status          store.ApplicationStatus `json:"status"`
	CreatedAt       time.Time               `json:"createdAt"`
	StatusUpdatedAt *time.Time              `json:"statusUpdatedAt,omitempty"`
}

type MyApplication struct {
	ID              string                  `json:"id"`
	Status          store.ApplicationStatus `json:"status"`
	CreatedAt       time.Time               `json:"createdAt"`
	StatusUpdatedAt *time.Time              `json:"statusUpdatedAt,omitempty"`
	Job             JobRef                  `json:"job"`
}

type JobRef struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
}

type Applicant struct {
	ApplicationID   string                  `json:"applicationId"`
	UserID          string                  `json:"userId"`
	Name            string                  `json:"name"`
	ProfilePath     string                  `json:"profilePath"`
	ResumeURL       string                  `json:"resumeUrl,omitempty"`
	Status          store.ApplicationStatus `json:"status"`
	StatusUpdatedAt *time.Time              `json:"statusUpdatedAt,omitempty"`
}

type EmployerJob struct {
	Job
	ViewCount        int         `json:"viewCount"`
	ApplicationCount int         `json:"applicationCount"`
	Applicants       []Applicant `json:"applicants"`
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
}
