package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	companydomain "quiz-platform/webclient/internal/company/domain"
	membershipdomain "quiz-platform/webclient/internal/membership/domain"
	"quiz-platform/webclient/internal/platform/apierr"
)

const companiesPath = "/companies"

// API is the subset of the HTTP client wrapper the service needs.
type API interface {
	Do(ctx context.Context, method, path string, body any, query url.Values, out any) error
}

// CompanyService maps the companies and membership endpoints to typed calls.
// It is the companies entity-store backend. Mutations are owner-only on the server.
type CompanyService struct {
	api API
}

// NewCompanyService returns a CompanyService.
func NewCompanyService(api API) *CompanyService {
	return &CompanyService{api: api}
}

// List returns one page of companies.
func (s *CompanyService) List(ctx context.Context, skip, limit int) ([]companydomain.Company, int, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	var page companydomain.Page
	if err := s.api.Do(ctx, http.MethodGet, companiesPath, nil, q, &page); err != nil {
		return nil, 0, err
	}
	for i := range page.Companies {
		if err := page.Companies[i].Validate(); err != nil {
			return nil, 0, apierr.InvalidResponse(http.MethodGet, companiesPath, err)
		}
	}
	if page.Companies == nil {
		page.Companies = []companydomain.Company{}
	}
	return page.Companies, page.Total, nil
}

// Get returns the company with id.
func (s *CompanyService) Get(ctx context.Context, id string) (companydomain.Company, error) {
	if err := requireID("id", id); err != nil {
		return companydomain.Company{}, err
	}
	return s.exchange(ctx, http.MethodGet, companyPath(id), nil)
}

// Create creates a company owned by the signed-in user.
func (s *CompanyService) Create(ctx context.Context, in companydomain.Create) (companydomain.Company, error) {
	if err := in.Validate(); err != nil {
		return companydomain.Company{}, err
	}
	return s.exchange(ctx, http.MethodPost, companiesPath, in)
}

// Update applies patch to the company id.
func (s *CompanyService) Update(ctx context.Context, id string, patch companydomain.Update) (companydomain.Company, error) {
	if err := requireID("id", id); err != nil {
		return companydomain.Company{}, err
	}
	if err := patch.Validate(); err != nil {
		return companydomain.Company{}, err
	}
	return s.exchange(ctx, http.MethodPut, companyPath(id), patch)
}

// Delete deletes the company id.
func (s *CompanyService) Delete(ctx context.Context, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	return s.api.Do(ctx, http.MethodDelete, companyPath(id), nil, nil, nil)
}

// Members lists the members of company id.
func (s *CompanyService) Members(ctx context.Context, id string) ([]membershipdomain.Member, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	path := companyPath(id) + "/members"
	var members []membershipdomain.Member
	if err := s.api.Do(ctx, http.MethodGet, path, nil, nil, &members); err != nil {
		return nil, err
	}
	for i := range members {
		if err := members[i].Validate(); err != nil {
			return nil, apierr.InvalidResponse(http.MethodGet, path, err)
		}
	}
	if members == nil {
		members = []membershipdomain.Member{}
	}
	return members, nil
}

// AddMember adds a user to company id.
func (s *CompanyService) AddMember(ctx context.Context, id string, req membershipdomain.AddMember) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	return s.api.Do(ctx, http.MethodPost, companyPath(id)+"/members", req, nil, nil)
}

// RemoveMember removes userID from company id. Removing yourself is leaving the company.
func (s *CompanyService) RemoveMember(ctx context.Context, id, userID string) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	if err := requireID("user_id", userID); err != nil {
		return err
	}
	return s.api.Do(ctx, http.MethodDelete, companyPath(id)+"/members/"+url.PathEscape(userID), nil, nil, nil)
}

func (s *CompanyService) exchange(ctx context.Context, method, path string, body any) (companydomain.Company, error) {
	var c companydomain.Company
	if err := s.api.Do(ctx, method, path, body, nil, &c); err != nil {
		return companydomain.Company{}, err
	}
	if err := c.Validate(); err != nil {
		return companydomain.Company{}, apierr.InvalidResponse(method, path, err)
	}
	return c, nil
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return apierr.Validation(field, "is required")
	}
	return nil
}

func companyPath(id string) string {
	return companiesPath + "/" + url.PathEscape(id)
}
