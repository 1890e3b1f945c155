package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/arawak/devboard/internal/directory"
	"github.com/arawak/devboard/internal/media"
	"github.com/arawak/devboard/internal/session"
	"github.com/arawak/devboard/internal/store"
)

// ListDevelopers returns the developer directory. Tags come from the whole
// directory so the chips stay put while the user narrows the list.
func (s *Server) ListDevelopers(w http.ResponseWriter, r *http.Request) {
	params, err := bindListingParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	all, err := s.store.ListDevelopers(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err, "developers")
		return
	}
	matched := directory.Filter(all, params.Query, params.Tag)
	s.metrics.ObserveDirectory("developers", len(matched))

	resp := DeveloperListResponse{
		Items:       make([]DeveloperSummary, 0, len(matched)),
		Tags:        tagChips(directory.BuildTagIndex(all), params.Tag),
		Query:       params.Query,
		SelectedTag: params.Tag,
		Total:       len(matched),
	}
	for _, p := range matched {
		resp.Items = append(resp.Items, DeveloperSummary{UserID: p.UserID, Name: p.Name, TechStack: p.TechStack, AvatarURL: p.AvatarURL})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) GetDeveloper(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	p, err := s.store.GetProfile(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, "developer")
		return
	}
	if p.Role != store.RoleDeveloper {
		writeError(w, http.StatusNotFound, "not_found", "developer not found", nil)
		return
	}
	out := toAPIProfile(p)
	out.Email = ""
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	p, err := s.store.GetProfile(r.Context(), sess.UserID)
	if err != nil {
		s.writeStoreError(w, r, err, "profile")
		return
	}
	writeJSON(w, http.StatusOK, toAPIProfile(p))
}

// UpdateProfile accepts the developer or employer form depending on the
// caller's role.
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	var (
		p   *store.Profile
		err error
	)
	switch sess.Role {
	case store.RoleDeveloper:
		var req DeveloperProfileRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		p, err = s.store.UpdateDeveloperProfile(r.Context(), sess.UserID, store.DeveloperProfileInput{
			Name:      req.Name,
			Location:  req.Location,
			TechStack: req.TechStack,
			GitHub:    req.GitHub,
			Portfolio: req.Portfolio,
			Bio:       req.Bio,
		})
	case store.RoleEmployer:
		var req EmployerProfileRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		p, err = s.store.UpdateEmployerProfile(r.Context(), sess.UserID, store.EmployerProfileInput{
			Name:     req.Name,
			Company:  req.Company,
			Location: req.Location,
			Bio:      req.Bio,
		})
	default:
		writeError(w, http.StatusForbidden, "forbidden", "unknown role", nil)
		return
	}
	if err != nil {
		s.writeStoreError(w, r, err, "profile")
		return
	}
	writeJSON(w, http.StatusOK, toAPIProfile(p))
}

func (s *Server) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, "avatar", s.uploads.SaveAvatar, s.store.SetAvatarURL)
}

func (s *Server) UploadResume(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, "resume", s.uploads.SaveResume, s.store.SetResumeURL)
}

type (
	saveFunc   func(ctx context.Context, userID string, r io.Reader) (*media.SaveResult, error)
	setURLFunc func(ctx context.Context, userID, url string) (*store.Profile, error)
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, kind string, save saveFunc, setURL setURLFunc) {
	sess, _ := session.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+64*1024)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.metrics.ObserveUpload(kind, media.ErrTooLarge)
			writeError(w, http.StatusRequestEntityTooLarge, "upload_failed", media.ErrTooLarge.Error(), nil)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "failed to parse multipart", map[string]any{"error": err.Error()})
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "file is required", nil)
		return
	}
	defer file.Close()

	res, err := save(r.Context(), sess.UserID, file)
	s.metrics.ObserveUpload(kind, err)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "upload_failed", err.Error(), nil)
		case errors.Is(err, media.ErrInvalidImage), errors.Is(err, media.ErrInvalidResume), errors.Is(err, media.ErrEmpty):
			writeError(w, http.StatusBadRequest, "upload_failed", err.Error(), nil)
		default:
			s.logger.Error("upload failed", "kind", kind, "user_id", sess.UserID, "error", err)
			writeError(w, http.StatusInternalServerError, "upload_failed", "could not store "+kind, nil)
		}
		return
	}

	p, err := setURL(r.Context(), sess.UserID, res.URL)
	if err != nil {
		s.writeStoreError(w, r, err, "profile")
		return
	}
	s.logger.Info("upload stored", "kind", kind, "user_id", sess.UserID, "key", res.Key, "bytes", res.Bytes)
	writeJSON(w, http.StatusOK, toAPIProfile(p))
}

func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	params, err := bindListingParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	all, err := s.store.ListJobs(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err, "jobs")
		return
	}
	matched := directory.Filter(all, params.Query, params.Tag)
	s.metrics.ObserveDirectory("jobs", len(matched))

	resp := JobListResponse{
		Items:       make([]Job, 0, len(matched)),
		Tags:        tagChips(directory.BuildTagIndex(all), params.Tag),
		Query:       params.Query,
		SelectedTag: params.Tag,
		Total:       len(matched),
	}
	for i := range matched {
		resp.Items = append(resp.Items, toAPIJob(&matched[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetJob returns a job and logs the view. Signed-in developers also learn
// whether they have already applied.
func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, "job")
		return
	}

	sess, signedIn := session.FromContext(r.Context())
	var viewer *string
	if signedIn {
		viewer = &sess.UserID
	}
	if err := s.store.RecordJobView(r.Context(), job.ID, viewer); err != nil {
		s.logger.Warn("record job view", "job_id", job.ID, "error", err)
	}

	resp := JobDetailResponse{Job: toAPIJob(job)}
	if sess.Is(store.RoleDeveloper) {
		applied, err := s.store.HasApplied(r.Context(), sess.UserID, job.ID)
		if err != nil {
			s.writeStoreError(w, r, err, "application")
			return
		}
		resp.HasApplied = applied
		resp.CanApply = !applied
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) CreateJob(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	var req JobRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	company := strings.TrimSpace(req.Company)
	if company == "" && sess.DisplayName != "" {
		company = sess.DisplayName
	}
	job, err := s.store.CreateJob(r.Context(), sess.UserID, store.JobInput{
		Title:       req.Title,
		Company:     company,
		Location:    req.Location,
		TechStack:   req.TechStack,
		Description: req.Description,
	})
	if err != nil {
		s.writeStoreError(w, r, err, "job")
		return
	}
	s.logger.Info("job posted", "job_id", job.ID, "owner_id", sess.UserID)
	writeJSON(w, http.StatusCreated, toAPIJob(job))
}

func (s *Server) ApplyToJob(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	app, err := s.store.Apply(r.Context(), sess.UserID, id)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "already_applied", "you already applied to this job", nil)
			return
		}
		s.writeStoreError(w, r, err, "job")
		return
	}
	writeJSON(w, http.StatusCreated, toAPIApplication(app))
}

func (s *Server) ListMyApplications(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	apps, err := s.store.ListApplicationsByUser(r.Context(), sess.UserID)
	if err != nil {
		s.writeStoreError(w, r, err, "applications")
		return
	}
	resp := ListResponse[MyApplication]{Items: make([]MyApplication, 0, len(apps))}
	for _, a := range apps {
		resp.Items = append(resp.Items, MyApplication{
			ID:              a.ID,
			Status:          a.Status,
			CreatedAt:       a.CreatedAt,
			StatusUpdatedAt: a.StatusUpdatedAt,
			Job:             JobRef{ID: a.JobID, Title: a.JobTitle, Company: a.JobCompany, Location: a.JobLocation},
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ListEmployerJobs(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	jobs, err := s.store.ListEmployerJobs(r.Context(), sess.UserID)
	if err != nil {
		s.writeStoreError(w, r, err, "jobs")
		return
	}
	resp := ListResponse[EmployerJob]{Items: make([]EmployerJob, 0, len(jobs))}
	for i := range jobs {
		j := &jobs[i]
		out := EmployerJob{
			Job:              toAPIJob(&j.Job),
			ViewCount:        j.ViewCount,
			ApplicationCount: len(j.Applicants),
			Applicants:       make([]Applicant, 0, len(j.Applicants)),
		}
		for _, a := range j.Applicants {
			name := a.Name
			if name == "" {
				name = "Applicant"
			}
			out.Applicants = append(out.Applicants, Applicant{
				ApplicationID:   a.ApplicationID,
				UserID:          a.UserID,
				Name:            name,
				ProfilePath:     "/dev/" + a.UserID,
				ResumeURL:       a.ResumeURL,
				Status:          a.Status,
				StatusUpdatedAt: a.StatusUpdatedAt,
			})
		}
		resp.Items = append(resp.Items, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) DecideApplication(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	var req DecisionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	app, err := s.store.DecideApplication(r.Context(), sess.UserID, id, req.Decision)
	if err != nil {
		s.writeStoreError(w, r, err, "application")
		return
	}
	s.logger.Info("application decided", "application_id", app.ID, "status", app.Status, "employer_id", sess.UserID)
	writeJSON(w, http.StatusOK, toAPIApplication(app))
}

// tagChips pairs each tag with the selection a click on it produces.
func tagChips(tags []string, selected string) []TagChip {
	chips := make([]TagChip, 0, len(tags))
	for _, t := range tags {
		chips = append(chips, TagChip{Tag: t, Next: directory.ToggleTag(selected, t), Active: t == selected})
	}
	return chips
}

func toAPIProfile(p *store.Profile) Profile {
	out := Profile{
		UserID:    p.UserID,
		Role:      p.Role,
		Email:     p.Email,
		Name:      p.Name,
		Location:  p.Location,
		Bio:       p.Bio,
		AvatarURL: p.AvatarURL,
		UpdatedAt: p.UpdatedAt,
	}
	switch p.Role {
	case store.RoleEmployer:
		out.Company = p.Company
	default:
		out.TechStack = p.TechStack
		out.GitHub = p.GitHub
		out.Portfolio = p.Portfolio
		out.ResumeURL = p.ResumeURL
	}
	return out
}

func toAPIJob(j *store.Job) Job {
	return Job{
		ID:          j.ID,
		Title:       j.Title,
		Company:     j.Company,
		Location:    j.Location,
		TechStack:   j.TechStack,
		Description: j.Description,
		CreatedAt:   j.CreatedAt,
	}
}

func toAPIApplication(a *store.Application) Application {
	return Application{
		ID:              a.ID,
		JobID:           a.JobID,
		UserID:          a.UserID,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
		StatusUpdatedAt: a.StatusUpdatedAt,
	}
}
