package httpapi

import (
	"errors"
	"net/http"

	"github.com/arawak/devboard/internal/session"
	"github.com/arawak/devboard/internal/store"
)

// sessionMiddleware resolves the caller once per request from a bearer token
// or an X-Api-Key header and stores the session in the request context. When
// required is false, anonymous requests pass through; bad credentials are
// still rejected.
func (s *Server) sessionMiddleware(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, source, presented, err := s.identify(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
				return
			}
			if !presented {
				if required {
					writeError(w, http.StatusUnauthorized, "unauthorized", "missing credentials", nil)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			profile, err := s.store.GetProfile(r.Context(), userID)
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "account no longer exists", nil)
				return
			}
			if err != nil {
				s.writeStoreError(w, r, err, "session")
				return
			}
			sess := session.FromProfile(profile, source)
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

func (s *Server) identify(r *http.Request) (userID, source string, presented bool, err error) {
	if key := r.Header.Get("X-Api-Key"); key != "" {
		k, ok := s.apiKeys.Lookup(key)
		if !ok {
			return "", "", true, errors.New("invalid api key")
		}
		return k.UserID, "apikey", true, nil
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "", false, nil
	}
	token := bearerToken(header)
	if token == "" {
		return "", "", true, errors.New("malformed authorization header")
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return "", "", true, err
	}
	return claims.Subject, "token", true, nil
}

func (s *Server) requireRole(role store.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing credentials", nil)
				return
			}
			if !sess.Is(role) {
				writeError(w, http.StatusForbidden, "forbidden", "only "+string(role)+" accounts may do this", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	hash, err := session.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, session.ErrWeakPassword) {
			writeError(w, http.StatusBadRequest, "weak_password", err.Error(), nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", "failed to create account", nil)
		return
	}
	user, err := s.store.CreateUser(r.Context(), req.Email, hash, req.Role)
	if err != nil {
		s.writeStoreError(w, r, err, "account")
		return
	}
	s.logger.Info("account created", "user_id", user.ID, "role", user.Role)
	s.issueSession(w, r, user, http.StatusCreated)
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", session.ErrInvalidCredentials.Error(), nil)
		return
	}
	if err != nil {
		s.writeStoreError(w, r, err, "account")
		return
	}
	if err := session.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
		return
	}
	s.issueSession(w, r, user, http.StatusOK)
}

func (s *Server) issueSession(w http.ResponseWriter, r *http.Request, user *store.User, status int) {
	profile, err := s.store.GetProfile(r.Context(), user.ID)
	if err != nil {
		s.writeStoreError(w, r, err, "profile")
		return
	}
	token, expires, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		s.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to issue session", nil)
		return
	}
	sess := session.FromProfile(profile, "token")
	writeJSON(w, status, AuthResponse{
		Token:     token,
		ExpiresAt: expires,
		Session:   sess,
		Home:      session.HomePath(user.Role),
		Nav:       session.Nav(sess),
	})
}

// Logout is a no-op for stateless tokens; clients discard their token.
func (s *Server) Logout(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, SessionResponse{Session: sess, Nav: session.Nav(sess)})
}
