package service

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strconv"

	companydomain "quiz-platform/webclient/internal/company/domain"
	identitydomain "quiz-platform/webclient/internal/identity/domain"
	"quiz-platform/webclient/internal/platform/apierr"
	sessiondomain "quiz-platform/webclient/internal/session/domain"
	userdomain "quiz-platform/webclient/internal/user/domain"
)

const (
	usersPath    = "/users"
	mePath       = "/users/me"
	registerPath = "/auth/register"
)

// API is the subset of the HTTP client wrapper the service needs.
type API interface {
	Do(ctx context.Context, method, path string, body any, query url.Values, out any) error
}

// Session is the session the profile operations keep in step.
type Session interface {
	Snapshot() sessiondomain.Session
	SetUser(user userdomain.Summary)
	Logout(ctx context.Context) error
}

// UserService maps the users endpoints to typed calls. It also serves as the users entity-store backend:
// creating a user is registration, and updates and deletes act on the signed-in user's own account.
type UserService struct {
	api     API
	session Session
}

// NewUserService returns a UserService.
func NewUserService(api API, session Session) *UserService {
	return &UserService{api: api, session: session}
}

// List returns one page of users.
func (s *UserService) List(ctx context.Context, skip, limit int) ([]userdomain.User, int, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	var page userdomain.Page
	if err := s.api.Do(ctx, http.MethodGet, usersPath, nil, q, &page); err != nil {
		return nil, 0, err
	}
	for i := range page.Users {
		if err := page.Users[i].Validate(); err != nil {
			return nil, 0, apierr.InvalidResponse(http.MethodGet, usersPath, err)
		}
	}
	if page.Users == nil {
		page.Users = []userdomain.User{}
	}
	return page.Users, page.Total, nil
}

// Get returns the user with id.
func (s *UserService) Get(ctx context.Context, id string) (userdomain.User, error) {
	return s.fetch(ctx, userPath(id))
}

// Me returns the signed-in user's profile.
func (s *UserService) Me(ctx context.Context) (userdomain.User, error) {
	return s.fetch(ctx, mePath)
}

// Create registers a new account.
func (s *UserService) Create(ctx context.Context, req identitydomain.RegisterRequest) (userdomain.User, error) {
	if err := req.Validate(); err != nil {
		return userdomain.User{}, err
	}
	var u userdomain.User
	if err := s.api.Do(ctx, http.MethodPost, registerPath, req, nil, &u); err != nil {
		return userdomain.User{}, err
	}
	if err := u.Validate(); err != nil {
		return userdomain.User{}, apierr.InvalidResponse(http.MethodPost, registerPath, err)
	}
	return u, nil
}

// UpdateMe updates the signed-in user's profile and refreshes the session's copy.
func (s *UserService) UpdateMe(ctx context.Context, patch userdomain.Update) (userdomain.User, error) {
	if err := patch.Validate(); err != nil {
		return userdomain.User{}, err
	}
	var u userdomain.User
	if err := s.api.Do(ctx, http.MethodPut, mePath, patch, nil, &u); err != nil {
		return userdomain.User{}, err
	}
	if err := u.Validate(); err != nil {
		return userdomain.User{}, apierr.InvalidResponse(http.MethodPut, mePath, err)
	}
	s.session.SetUser(u.Summary())
	return u, nil
}

// DeleteMe deletes the signed-in user's account and ends the session.
func (s *UserService) DeleteMe(ctx context.Context) error {
	if err := s.api.Do(ctx, http.MethodDelete, mePath, nil, nil, nil); err != nil {
		return err
	}
	if err := s.session.Logout(ctx); err != nil {
		log.Printf("user: logout after account deletion: %v", err)
	}
	return nil
}

// Update applies patch to the account id, which must be the signed-in user.
func (s *UserService) Update(ctx context.Context, id string, patch userdomain.Update) (userdomain.User, error) {
	if err := s.requireSelf(id); err != nil {
		return userdomain.User{}, err
	}
	return s.UpdateMe(ctx, patch)
}

// Delete deletes the account id, which must be the signed-in user.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.requireSelf(id); err != nil {
		return err
	}
	return s.DeleteMe(ctx)
}

// Companies returns the companies userID belongs to. It never fails: any error degrades to an empty list.
func (s *UserService) Companies(ctx context.Context, userID string) []companydomain.Company {
	path := userPath(userID) + "/companies"
	var body struct {
		Companies []companydomain.Company `json:"companies"`
	}
	if err := s.api.Do(ctx, http.MethodGet, path, nil, nil, &body); err != nil {
		log.Printf("user: companies of %s unavailable: %v", userID, err)
		return []companydomain.Company{}
	}
	out := make([]companydomain.Company, 0, len(body.Companies))
	for _, c := range body.Companies {
		if err := c.Validate(); err != nil {
			log.Printf("user: skipping invalid company in %s: %v", path, err)
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *UserService) fetch(ctx context.Context, path string) (userdomain.User, error) {
	var u userdomain.User
	if err := s.api.Do(ctx, http.MethodGet, path, nil, nil, &u); err != nil {
		return userdomain.User{}, err
	}
	if err := u.Validate(); err != nil {
		return userdomain.User{}, apierr.InvalidResponse(http.MethodGet, path, err)
	}
	return u, nil
}

func (s *UserService) requireSelf(id string) error {
	sess := s.session.Snapshot()
	if !sess.IsAuthenticated {
		return apierr.Validation("", "sign in to modify an account")
	}
	if sess.User != nil && sess.User.ID != id {
		return apierr.Validation("id", "only your own account can be modified")
	}
	return nil
}

func userPath(id string) string {
	return usersPath + "/" + url.PathEscape(id)
}
