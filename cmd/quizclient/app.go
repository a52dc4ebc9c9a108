package main

import (
	"context"
	"fmt"
	"log"
	"time"

	companydomain "quiz-platform/webclient/internal/company/domain"
	companyservice "quiz-platform/webclient/internal/company/service"
	"quiz-platform/webclient/internal/config"
	"quiz-platform/webclient/internal/entitystore"
	healthservice "quiz-platform/webclient/internal/health/service"
	"quiz-platform/webclient/internal/httpclient"
	identitydomain "quiz-platform/webclient/internal/identity/domain"
	identityservice "quiz-platform/webclient/internal/identity/service"
	"quiz-platform/webclient/internal/locale"
	"quiz-platform/webclient/internal/router"
	"quiz-platform/webclient/internal/session"
	"quiz-platform/webclient/internal/storage"
	telemetryotel "quiz-platform/webclient/internal/telemetry/otel"
	userdomain "quiz-platform/webclient/internal/user/domain"
	userservice "quiz-platform/webclient/internal/user/service"
)

type (
	userStore    = entitystore.Store[userdomain.User, identitydomain.RegisterRequest, userdomain.Update]
	companyStore = entitystore.Store[companydomain.Company, companydomain.Create, companydomain.Update]
)

// app is the fully wired client: one instance per process.
type app struct {
	cfg       *config.Config
	durable   storage.Store
	providers *telemetryotel.Providers
	locale    *locale.Preference
	session   *session.Service
	nav       *router.Navigator
	client    *httpclient.Client

	auth      *identityservice.AuthService
	users     *userservice.UserService
	companies *companyservice.CompanyService
	health    *healthservice.HealthService

	userStore    *userStore
	companyStore *companyStore
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	providers.SetGlobal()

	durable, err := storage.Open(ctx, cfg.StorageDriver, cfg.StorageDSN)
	if err != nil {
		_ = providers.Shutdown(ctx)
		return nil, fmt.Errorf("storage: %w", err)
	}

	pref := locale.NewPreference(durable, cfg.DefaultLocale)
	if _, err := pref.Load(ctx); err != nil {
		log.Printf("quizclient: locale preference unavailable, using %s: %v", cfg.DefaultLocale, err)
	}

	guard, err := router.NewGuard(ctx)
	if err != nil {
		_ = durable.Close()
		_ = providers.Shutdown(ctx)
		return nil, err
	}
	nav := router.NewNavigator(router.NewTable(router.Views), guard, nil)

	sess := session.NewService(
		session.NewStore(durable),
		cfg.ExpiryCheckInterval,
		nav,
		router.LoginPath,
		session.WithEvents(telemetryotel.NewSessionEvents(providers.LoggerProvider)),
	)
	nav.SetSession(sess)

	client, err := httpclient.New(cfg.APIBaseURL, cfg.HTTPTimeout, sess,
		httpclient.WithLocale(pref),
		httpclient.WithUnauthorizedHandler(sess.ForceLogout),
		httpclient.WithTelemetry(providers.TracerProvider, providers.MeterProvider, providers.LoggerProvider),
	)
	if err != nil {
		_ = durable.Close()
		_ = providers.Shutdown(ctx)
		return nil, err
	}

	users := userservice.NewUserService(client, sess)
	companies := companyservice.NewCompanyService(client)
	a := &app{
		cfg:       cfg,
		durable:   durable,
		providers: providers,
		locale:    pref,
		session:   sess,
		nav:       nav,
		client:    client,
		auth:      identityservice.NewAuthService(client, users, sess),
		users:     users,
		companies: companies,
		health:    healthservice.NewHealthService(client),
		userStore: entitystore.New[userdomain.User, identitydomain.RegisterRequest, userdomain.Update](users, entitystore.Options[userdomain.User]{
			ID:           func(u userdomain.User) string { return u.ID },
			SearchFields: func(u userdomain.User) []string { return []string{u.Username, u.Email} },
			PageLimit:    cfg.PageLimit,
		}),
		companyStore: entitystore.New[companydomain.Company, companydomain.Create, companydomain.Update](companies, entitystore.Options[companydomain.Company]{
			ID:           func(c companydomain.Company) string { return c.ID },
			SearchFields: func(c companydomain.Company) []string { return []string{c.Name, c.Description} },
			PageLimit:    cfg.PageLimit,
		}),
	}

	if _, err := sess.Start(ctx); err != nil {
		log.Printf("quizclient: restoring session: %v", err)
	}
	return a, nil
}

func (a *app) close() {
	a.session.Close()
	if err := a.durable.Close(); err != nil {
		log.Printf("quizclient: closing storage: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.providers.Shutdown(ctx); err != nil {
		log.Printf("quizclient: telemetry shutdown: %v", err)
	}
}
