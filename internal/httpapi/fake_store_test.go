package httpapi

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arawak/devboard/internal/store"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	mu       sync.Mutex
	seq      int
	users    map[string]*store.User
	profiles map[string]*store.Profile
	jobs     []*store.Job
	apps     []*store.Application
	views    map[string]int
	pingErr  error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*store.User{},
		profiles: map[string]*store.Profile{},
		views:    map[string]int{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// addUser seeds a user with a ready-made profile.
func (m *memStore) addUser(role store.Role, p store.Profile) *store.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID(string(role))
	m.users[id] = &store.User{ID: id, Email: id + "@test", Role: role}
	p.UserID, p.Email, p.Role = id, id+"@test", role
	m.profiles[id] = &p
	return &p
}

func (m *memStore) addJob(ownerID string, in store.JobInput) *store.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertJob(ownerID, in)
}

func (m *memStore) insertJob(ownerID string, in store.JobInput) *store.Job {
	j := &store.Job{
		ID:          m.nextID("job"),
		OwnerID:     ownerID,
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		TechStack:   in.TechStack,
		Description: in.Description,
		CreatedAt:   time.Now(),
	}
	m.jobs = append(m.jobs, j)
	return j
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) CreateUser(_ context.Context, email, hash string, role store.Role) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email {
			return nil, store.ErrDuplicate
		}
	}
	id := m.nextID("user")
	u := &store.User{ID: id, Email: email, PasswordHash: hash, Role: role, CreatedAt: time.Now()}
	m.users[id] = u
	m.profiles[id] = &store.Profile{UserID: id, Email: email, Role: role}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetProfile(_ context.Context, userID string) (*store.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) ListDevelopers(context.Context) ([]store.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Profile
	for _, p := range m.profiles {
		if p.Role == store.RoleDeveloper {
			out = append(out, *p)
		}
	}
	// match the store's ORDER BY name
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Name < out[j-1].Name; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (m *memStore) update(userID string, role store.Role, apply func(p *store.Profile)) (*store.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.Role != role {
		return nil, store.ErrForbidden
	}
	apply(p)
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (m *memStore) UpdateDeveloperProfile(_ context.Context, userID string, in store.DeveloperProfileInput) (*store.Profile, error) {
	return m.update(userID, store.RoleDeveloper, func(p *store.Profile) {
		p.Name, p.Location, p.TechStack = in.Name, in.Location, in.TechStack
		p.GitHub, p.Portfolio, p.Bio = in.GitHub, in.Portfolio, in.Bio
	})
}

func (m *memStore) UpdateEmployerProfile(_ context.Context, userID string, in store.EmployerProfileInput) (*store.Profile, error) {
	return m.update(userID, store.RoleEmployer, func(p *store.Profile) {
		p.Name, p.Company, p.Location, p.Bio = in.Name, in.Company, in.Location, in.Bio
	})
}

func (m *memStore) SetAvatarURL(_ context.Context, userID, url string) (*store.Profile, error) {
	m.mu.Lock()
	role := m.profiles[userID].Role
	m.mu.Unlock()
	return m.update(userID, role, func(p *store.Profile) { p.AvatarURL = url })
}

func (m *memStore) SetResumeURL(_ context.Context, userID, url string) (*store.Profile, error) {
	return m.update(userID, store.RoleDeveloper, func(p *store.Profile) { p.ResumeURL = url })
}

func (m *memStore) CreateJob(_ context.Context, ownerID string, in store.JobInput) (*store.Job, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, store.ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.insertJob(ownerID, in)
	return &cp, nil
}

func (m *memStore) GetJob(_ context.Context, id string) (*store.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.ID == id {
			cp := *j
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

// ListJobs returns newest first.
func (m *memStore) ListJobs(context.Context) ([]store.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.Job, 0, len(m.jobs))
	for i := len(m.jobs) - 1; i >= 0; i-- {
		out = append(out, *m.jobs[i])
	}
	return out, nil
}

func (m *memStore) Apply(ctx context.Context, userID, jobID string) (*store.Application, error) {
	if _, err := m.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.UserID == userID && a.JobID == jobID {
			return nil, store.ErrDuplicate
		}
	}
	a := &store.Application{ID: m.nextID("app"), UserID: userID, JobID: jobID, Status: store.StatusPending, CreatedAt: time.Now()}
	m.apps = append(m.apps, a)
	cp := *a
	return &cp, nil
}

func (m *memStore) HasApplied(_ context.Context, userID, jobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.UserID == userID && a.JobID == jobID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListApplicationsByUser(_ context.Context, userID string) ([]store.DeveloperApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.DeveloperApplication
	for _, a := range m.apps {
		if a.UserID != userID {
			continue
		}
		da := store.DeveloperApplication{Application: *a}
		for _, j := range m.jobs {
			if j.ID == a.JobID {
				da.JobTitle, da.JobCompany, da.JobLocation = j.Title, j.Company, j.Location
			}
		}
		out = append(out, da)
	}
	return out, nil
}

func (m *memStore) DecideApplication(_ context.Context, employerID, applicationID string, decision store.ApplicationStatus) (*store.Application, error) {
	if decision != store.StatusAccepted && decision != store.StatusRejected {
		return nil, store.ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.ID != applicationID {
			continue
		}
		for _, j := range m.jobs {
			if j.ID == a.JobID && j.OwnerID != employerID {
				return nil, store.ErrForbidden
			}
		}
		if a.Status != store.StatusPending {
			return nil, fmt.Errorf("%w: application already %s", store.ErrConflict, a.Status)
		}
		now := time.Now()
		a.Status, a.StatusUpdatedAt = decision, &now
		cp := *a
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (m *memStore) RecordJobView(_ context.Context, jobID string, _ *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[jobID]++
	return nil
}

func (m *memStore) ListEmployerJobs(_ context.Context, ownerID string) ([]store.EmployerJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.EmployerJob
	for i := len(m.jobs) - 1; i >= 0; i-- {
		j := m.jobs[i]
		if j.OwnerID != ownerID {
			continue
		}
		ej := store.EmployerJob{Job: *j, ViewCount: m.views[j.ID]}
		for _, a := range m.apps {
			if a.JobID != j.ID {
				continue
			}
			p := m.profiles[a.UserID]
			ej.Applicants = append(ej.Applicants, store.Applicant{
				ApplicationID:   a.ID,
				JobID:           a.JobID,
				UserID:          a.UserID,
				Status:          a.Status,
				StatusUpdatedAt: a.StatusUpdatedAt,
				Name:            p.Name,
				ResumeURL:       p.ResumeURL,
			})
		}
		out = append(out, ej)
	}
	return out, nil
}
