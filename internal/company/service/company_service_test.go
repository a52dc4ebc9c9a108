package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	companydomain "quiz-platform/webclient/internal/company/domain"
	"quiz-platform/webclient/internal/httpclient"
	membershipdomain "quiz-platform/webclient/internal/membership/domain"
	"quiz-platform/webclient/internal/platform/apierr"
)

const acmeJSON = `{"id":"c1","name":"Acme","description":null,"is_visible":true,"owner_id":"u1",` +
	`"created_at":"2024-05-01T10:00:00Z","updated_at":"2024-05-01T10:00:00Z"}`

func newService(t *testing.T, h http.Handler) *CompanyService {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := httpclient.New(srv.URL, 2*time.Second, httpclient.TokenFunc(func() string { return "tok" }))
	if err != nil {
		t.Fatalf("httpclient.New: %v", err)
	}
	return NewCompanyService(c)
}

func TestCompanyService_List(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /companies", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("skip") != "0" || r.URL.Query().Get("limit") != "10" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"companies":[` + acmeJSON + `],"total":1}`))
	})
	svc := newService(t, mux)
	got, total, err := svc.List(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || total != 1 || got[0].Name != "Acme" || got[0].Description != "" {
		t.Errorf("List = %+v, %d", got, total)
	}
}

func TestCompanyService_CreateSendsBody(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /companies", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(acmeJSON))
	})
	svc := newService(t, mux)
	c, err := svc.Create(context.Background(), companydomain.Create{Name: "Acme"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID != "c1" {
		t.Errorf("ID = %q, want c1", c.ID)
	}
	if body["name"] != "Acme" {
		t.Errorf("sent body = %v", body)
	}
	if v, ok := body["description"]; !ok || v != nil {
		t.Errorf("description = %v (present %v), want explicit null", v, ok)
	}
}

func TestCompanyService_CreateValidation(t *testing.T) {
	svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid input must not reach the server")
	}))
	if _, err := svc.Create(context.Background(), companydomain.Create{Name: "A"}); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("Create err = %v, want validation error", err)
	}
	if _, err := svc.Get(context.Background(), " "); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("Get err = %v, want validation error", err)
	}
}

func TestCompanyService_UpdateForbidden(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /companies/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"Only the owner can update this company"}`))
	})
	svc := newService(t, mux)
	name := "Acme 2"
	_, err := svc.Update(context.Background(), "c1", companydomain.Update{Name: &name})
	if !errors.Is(err, apierr.ErrForbidden) {
		t.Fatalf("Update err = %v, want forbidden", err)
	}
	if got := apierr.Message(err); got != "Only the owner can update this company" {
		t.Errorf("Message = %q", got)
	}
}

func TestCompanyService_Delete(t *testing.T) {
	var deleted string
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /companies/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = r.PathValue("id")
		w.WriteHeader(http.StatusNoContent)
	})
	svc := newService(t, mux)
	if err := svc.Delete(context.Background(), "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != "c1" {
		t.Errorf("deleted %q, want c1", deleted)
	}
}

func TestCompanyService_Members(t *testing.T) {
	var added membershipdomain.AddMember
	var removed string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /companies/{id}/members", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"u2","username":"bob","email":"bob@example.com","is_active":true,"joined_at":"2024-06-01T00:00:00"}]`))
	})
	mux.HandleFunc("POST /companies/{id}/members", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&added)
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("DELETE /companies/{id}/members/{user}", func(w http.ResponseWriter, r *http.Request) {
		removed = r.PathValue("user")
		w.WriteHeader(http.StatusNoContent)
	})
	svc := newService(t, mux)
	ctx := context.Background()

	members, err := svc.Members(ctx, "c1")
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(members) != 1 || members[0].Username != "bob" || members[0].JoinedAt.IsZero() {
		t.Errorf("Members = %+v", members)
	}
	if err := svc.AddMember(ctx, "c1", membershipdomain.AddMember{UserID: " u3 "}); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if added.UserID != "u3" {
		t.Errorf("added user_id = %q, want u3", added.UserID)
	}
	if err := svc.RemoveMember(ctx, "c1", "u2"); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if removed != "u2" {
		t.Errorf("removed %q, want u2", removed)
	}
	if err := svc.AddMember(ctx, "c1", membershipdomain.AddMember{}); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("AddMember without user err = %v, want validation error", err)
	}
}

func TestCompanyService_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /companies/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Company not found"}`))
	})
	svc := newService(t, mux)
	_, err := svc.Get(context.Background(), "missing")
	var e *apierr.Error
	if !errors.As(err, &e) || e.Kind != apierr.KindRequest || e.Status != http.StatusNotFound {
		t.Errorf("Get err = %v, want request error 404", err)
	}
}
