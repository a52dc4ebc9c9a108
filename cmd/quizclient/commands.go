package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strconv"
	"time"

	companydomain "quiz-platform/webclient/internal/company/domain"
	identitydomain "quiz-platform/webclient/internal/identity/domain"
	"quiz-platform/webclient/internal/locale"
	membershipdomain "quiz-platform/webclient/internal/membership/domain"
	"quiz-platform/webclient/internal/router"
	userdomain "quiz-platform/webclient/internal/user/domain"
)

var errSignInRequired = errors.New("not signed in: run `quizclient login` first")

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":          {"-email E -password P", cmdLogin},
	"register":       {"-username U -email E -password P -confirm P", cmdRegister},
	"logout":         {"", cmdLogout},
	"refresh":        {"", cmdRefresh},
	"me":             {"", cmdMe},
	"update-me":      {"[-username U] [-password P] [-first-name F] [-last-name L] [-bio B] [-avatar-url A] [-phone N]", cmdUpdateMe},
	"delete-me":      {"", cmdDeleteMe},
	"users":          {"[-skip N] [-limit N] [-filter Q]", cmdUsers},
	"user":           {"-id ID", cmdUser},
	"user-companies": {"-id ID", cmdUserCompanies},
	"companies":      {"[-skip N] [-limit N] [-filter Q]", cmdCompanies},
	"company":        {"-id ID", cmdCompany},
	"company-create": {"-name N [-description D] [-visible=false]", cmdCompanyCreate},
	"company-update": {"-id ID [-name N] [-description D] [-visible B]", cmdCompanyUpdate},
	"company-delete": {"-id ID", cmdCompanyDelete},
	"members":        {"-id ID", cmdMembers},
	"member-add":     {"-id ID -user USER_ID", cmdMemberAdd},
	"member-remove":  {"-id ID -user USER_ID", cmdMemberRemove},
	"health":         {"", cmdHealth},
	"navigate":       {"-path P", cmdNavigate},
	"locale":         {"[-set LANG]", cmdLocale},
	"watch":          {"", cmdWatch},
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: quizclient <command> [flags]")
	for _, name := range names {
		fmt.Fprintf(w, "  %-15s %s\n", name, commands[name].usage)
	}
}

// optString records whether a string flag was given at all.
type optString struct{ val *string }

func (o *optString) String() string {
	if o.val == nil {
		return ""
	}
	return *o.val
}

func (o *optString) Set(s string) error {
	o.val = &s
	return nil
}

type optBool struct{ val *bool }

func (o *optBool) String() string {
	if o.val == nil {
		return ""
	}
	return strconv.FormatBool(*o.val)
}

func (o *optBool) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	o.val = &b
	return nil
}

func (o *optBool) IsBoolFlag() bool { return true }

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// goTo navigates to path and empties the detail slots for entities no longer on screen.
func (a *app) goTo(ctx context.Context, path string) router.Match {
	m := a.nav.Go(ctx, path)
	if c, ok := a.companyStore.Current(); ok && (m.View.Name != "company" || m.Vars["id"] != c.ID) {
		a.companyStore.ClearCurrent()
	}
	if u, ok := a.userStore.Current(); ok && (m.View.Name != "user" || m.Vars["id"] != u.ID) {
		a.userStore.ClearCurrent()
	}
	return m
}

// enter navigates to path and fails when the guard sent the client elsewhere.
func (a *app) enter(ctx context.Context, path, view string) (router.Match, error) {
	m := a.goTo(ctx, path)
	switch {
	case m.View.Name == view:
		return m, nil
	case m.View.Name == "login":
		return m, errSignInRequired
	default:
		return m, fmt.Errorf("%s resolved to view %q", path, m.View.Name)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireFlag(name, value string) error {
	if value == "" {
		return fmt.Errorf("-%s is required", name)
	}
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	var req identitydomain.LoginRequest
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Password, "password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.enter(ctx, router.LoginPath, "login"); err != nil {
		return err
	}
	u, err := a.auth.Login(ctx, req)
	if err != nil {
		return err
	}
	a.goTo(ctx, router.HomePath)
	return printJSON(u)
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlags("register")
	var req identitydomain.RegisterRequest
	fs.StringVar(&req.Username, "username", "", "username (3+ characters)")
	fs.StringVar(&req.Email, "email", "", "email")
	fs.StringVar(&req.Password, "password", "", "password (6+ characters)")
	fs.StringVar(&req.Confirm, "confirm", "", "password confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.enter(ctx, "/register", "register"); err != nil {
		return err
	}
	u, err := a.auth.Register(ctx, req)
	if err != nil {
		return err
	}
	a.goTo(ctx, router.LoginPath)
	return printJSON(u)
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.goTo(ctx, router.LoginPath)
	fmt.Println("signed out")
	return nil
}

func cmdRefresh(ctx context.Context, a *app, _ []string) error {
	if err := a.auth.Refresh(ctx); err != nil {
		return err
	}
	fmt.Println("tokens refreshed")
	return nil
}

func cmdMe(ctx context.Context, a *app, _ []string) error {
	if _, err := a.enter(ctx, "/profile", "profile"); err != nil {
		return err
	}
	u, err := a.auth.LoadProfile(ctx)
	if err != nil {
		return err
	}
	return printJSON(u)
}

func cmdUpdateMe(ctx context.Context, a *app, args []string) error {
	fs := newFlags("update-me")
	var username, password, first, last, bio, avatar, phone optString
	fs.Var(&username, "username", "new username")
	fs.Var(&password, "password", "new password")
	fs.Var(&first, "first-name", "first name")
	fs.Var(&last, "last-name", "last name")
	fs.Var(&bio, "bio", "bio")
	fs.Var(&avatar, "avatar-url", "avatar url")
	fs.Var(&phone, "phone", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.enter(ctx, "/profile", "profile"); err != nil {
		return err
	}
	u, err := a.users.UpdateMe(ctx, userdomain.Update{
		Username:  username.val,
		Password:  password.val,
		FirstName: first.val,
		LastName:  last.val,
		Bio:       bio.val,
		AvatarURL: avatar.val,
		Phone:     phone.val,
	})
	if err != nil {
		return err
	}
	return printJSON(u)
}

func cmdDeleteMe(ctx context.Context, a *app, _ []string) error {
	if _, err := a.enter(ctx, "/profile", "profile"); err != nil {
		return err
	}
	if err := a.users.DeleteMe(ctx); err != nil {
		return err
	}
	a.goTo(ctx, router.HomePath)
	fmt.Println("account deleted")
	return nil
}

type pageFlags struct {
	skip, limit int
	filter      string
}

func parsePage(name string, args []string, defaultLimit int) (pageFlags, error) {
	fs := newFlags(name)
	var p pageFlags
	fs.IntVar(&p.skip, "skip", 0, "records to skip (multiple of -limit)")
	fs.IntVar(&p.limit, "limit", defaultLimit, "page size (1-100)")
	fs.StringVar(&p.filter, "filter", "", "case-insensitive filter over the loaded page")
	return p, fs.Parse(args)
}

func cmdUsers(ctx context.Context, a *app, args []string) error {
	p, err := parsePage("users", args, a.cfg.PageLimit)
	if err != nil {
		return err
	}
	if _, err := a.enter(ctx, "/users", "users"); err != nil {
		return err
	}
	col, err := a.userStore.List(ctx, p.skip, p.limit)
	if err != nil {
		return err
	}
	if p.filter != "" {
		col.Items = a.userStore.Filter(p.filter)
	}
	return printJSON(col)
}

func cmdUser(ctx context.Context, a *app, args []string) error {
	fs := newFlags("user")
	id := fs.String("id", "", "user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("id", *id); err != nil {
		return err
	}
	if _, err := a.enter(ctx, "/users/"+url.PathEscape(*id), "user"); err != nil {
		return err
	}
	u, err := a.userStore.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(u)
}

func cmdUserCompanies(ctx context.Context, a *app, args []string) error {
	fs := newFlags("user-companies")
	id := fs.String("id", "", "user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("id", *id); err != nil {
		return err
	}
	if _, err := a.enter(ctx, "/users/"+url.PathEscape(*id), "user"); err != nil {
		return err
	}
	return printJSON(a.users.Companies(ctx, *id))
}

func cmdCompanies(ctx context.Context, a *app, args []string) error {
	p, err := parsePage("companies", args, a.cfg.PageLimit)
	if err != nil {
		return err
	}
	if _, err := a.enter(ctx, "/companies", "companies"); err != nil {
		return err
	}
	col, err := a.companyStore.List(ctx, p.skip, p.limit)
	if err != nil {
		return err
	}
	if p.filter != "" {
		col.Items = a.companyStore.Filter(p.filter)
	}
	return printJSON(col)
}

func cmdCompany(ctx context.Context, a *app, args []string) error {
	fs := newFlags("company")
	id := fs.String("id", "", "company id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("id", *id); err != nil {
		return err
	}
	if _, err := a.enter(ctx, "/companies/"+url.PathEscape(*id), "company"); err != nil {
		return err
	}
	c, err := a.companyStore.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(c)
}

func cmdCompanyCreate(ctx context.Context, a *app, args []string) error {
	fs := newFlags("company-create")
	var in companydomain.Create
	var description optString
	visible := fs.Bool("visible", true, "list the company publicly")
	fs.StringVar(&in.Name, "name", "", "company name")
	fs.Var(&description, "description", "description (up to 500 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.enter(ctx, "/companies", "companies"); err != nil {
		return err
	}
	in.Description = description.val
	in.IsVisible = visible
	c, err := a.companyStore.Create(ctx, in)
	if err != nil {
		return err
	}
	return printJSON(c)
}

func cmdCompanyUpdate(ctx context.Context, a *app, args []string) error {
	fs := newFlags("company-update")
	id := fs.String("id", "", "company id")
	var name, description optString
	var visible optBool
	fs.Var(&name, "name", "new name")
	fs.Var(&description, "description", "new description")
	fs.Var(&visible, "visible", "list the company publicly")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("id", *id); err != nil {
		return err
	}
	if _, err := a.enter(ctx, "/companies/"+url.PathEscape(*id), "company"); err != nil {
		return err
	}
	c, err := a.companyStore.Update(ctx, *id, companydomain.Update{
		Name:        name.val,
		Description: description.val,
		IsVisible:   visible.val,
	})
	if err != nil {
		return err
	}
	return printJSON(c)
}

func cmdCompanyDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlags("company-delete")
	id := fs.String("id", "", "company id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("id", *id); err != nil {
		return err
	}
	if _, err := a.enter(ctx, "/companies/"+url.PathEscape(*id), "company"); err != nil {
		return err
	}
	if err := a.companyStore.Remove(ctx, *id); err != nil {
		return err
	}
	a.goTo(ctx, "/companies")
	fmt.Printf("company %s deleted\n", *id)
	return nil
}

func memberFlags(name string, args []string, needUser bool) (companyID, userID string, err error) {
	fs := newFlags(name)
	fs.StringVar(&companyID, "id", "", "company id")
	if needUser {
		fs.StringVar(&userID, "user", "", "user id")
	}
	if err := fs.Parse(args); err != nil {
		return "", "", err
	}
	if err := requireFlag("id", companyID); err != nil {
		return "", "", err
	}
	if needUser {
		if err := requireFlag("user", userID); err != nil {
			return "", "", err
		}
	}
	return companyID, userID, nil
}

func cmdMembers(ctx context.Context, a *app, args []string) error {
	id, _, err := memberFlags("members", args, false)
	if err != nil {
		return err
	}
	if _, err := a.enter(ctx, "/companies/"+url.PathEscape(id), "company"); err != nil {
		return err
	}
	members, err := a.companies.Members(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(members)
}

func cmdMemberAdd(ctx context.Context, a *app, args []string) error {
	id, userID, err := memberFlags("member-add", args, true)
	if err != nil {
		return err
	}
	if _, err := a.enter(ctx, "/companies/"+url.PathEscape(id), "company"); err != nil {
		return err
	}
	if err := a.companies.AddMember(ctx, id, membershipdomain.AddMember{UserID: userID}); err != nil {
		return err
	}
	fmt.Printf("user %s added to company %s\n", userID, id)
	return nil
}

func cmdMemberRemove(ctx context.Context, a *app, args []string) error {
	id, userID, err := memberFlags("member-remove", args, true)
	if err != nil {
		return err
	}
	if _, err := a.enter(ctx, "/companies/"+url.PathEscape(id), "company"); err != nil {
		return err
	}
	if err := a.companies.RemoveMember(ctx, id, userID); err != nil {
		return err
	}
	fmt.Printf("user %s removed from company %s\n", userID, id)
	return nil
}

func cmdHealth(ctx context.Context, a *app, _ []string) error {
	if _, err := a.enter(ctx, "/health", "health"); err != nil {
		return err
	}
	st, err := a.health.Check(ctx)
	if err != nil {
		return err
	}
	if err := printJSON(st); err != nil {
		return err
	}
	if !st.Healthy() {
		return fmt.Errorf("backend reports status %q", st.Status)
	}
	return nil
}

func cmdNavigate(ctx context.Context, a *app, args []string) error {
	fs := newFlags("navigate")
	path := fs.String("path", router.HomePath, "client path to open")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return printJSON(a.goTo(ctx, *path))
}

func cmdLocale(ctx context.Context, a *app, args []string) error {
	fs := newFlags("locale")
	set := fs.String("set", "", "language to switch to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *set != "" {
		if _, err := a.locale.Set(ctx, *set); err != nil {
			return err
		}
	}
	supported := make([]string, 0, len(locale.Supported()))
	for _, tag := range locale.Supported() {
		supported = append(supported, tag.String())
	}
	return printJSON(struct {
		Current   string   `json:"current"`
		Supported []string `json:"supported"`
	}{a.locale.Tag().String(), supported})
}

// cmdWatch keeps the session monitor running until the session ends or the process is interrupted.
func cmdWatch(ctx context.Context, a *app, _ []string) error {
	if !a.session.IsAuthenticated() {
		return errSignInRequired
	}
	fmt.Println("watching session; interrupt to stop")
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !a.session.IsAuthenticated() {
				if m, ok := a.nav.Current(); ok {
					fmt.Printf("session ended; now at %s\n", m.Path)
				}
				return nil
			}
		}
	}
}
