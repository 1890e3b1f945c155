package session

import "github.com/arawak/devboard/internal/store"

type NavLink struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Nav returns the navigation links visible to s. A nil session sees the
// public links only.
func Nav(s *Session) []NavLink {
	links := []NavLink{{Label: "Home", Path: "/"}}
	if s == nil {
		return append(links, NavLink{Label: "Log In", Path: "/login"})
	}
	switch s.Role {
	case store.RoleDeveloper:
		links = append(links,
			NavLink{Label: "Find Jobs", Path: "/jobs"},
			NavLink{Label: "My Applications", Path: "/dashboard"},
		)
	case store.RoleEmployer:
		links = append(links,
			NavLink{Label: "My Job Posts", Path: "/employer-dashboard"},
			NavLink{Label: "Post a Job", Path: "/post-job"},
			NavLink{Label: "Job Board", Path: "/jobs"},
			NavLink{Label: "Find Developers", Path: "/developers"},
		)
	}
	return append(links, NavLink{Label: "Profile", Path: "/profile"})
}

// HomePath is where a user lands after logging in.
func HomePath(role store.Role) string {
	if role == store.RoleEmployer {
		return "/employer-dashboard"
	}
	return "/dashboard"
}
