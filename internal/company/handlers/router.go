package handlers

import (
	"net/http"
	"time"

	"github.com/gartstein/companyemployees/internal/company/auth"
	"github.com/gartstein/companyemployees/internal/company/cache"
	"github.com/gartstein/companyemployees/internal/company/controller"
	"github.com/gartstein/companyemployees/internal/company/ratelimit"
	"github.com/gartstein/companyemployees/internal/company/versioning"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// ManagerRole may list every company.
const ManagerRole = "Manager"

// RouterConfig holds the collaborators of the HTTP API.
type RouterConfig struct {
	Services     *controller.ServiceManager
	Cache        *cache.OutputCache
	AuthSettings auth.Settings
	Logger       *zap.Logger
	// CORSOrigins defaults to any origin.
	CORSOrigins   []string
	GlobalLimit   ratelimit.Options
	SpecificLimit ratelimit.Options
	// Production enables HSTS and HTTPS redirects.
	Production bool
}

// NewRouter builds the HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	errs := errorWriter{logger: logger.Named("router")}

	companies := NewCompaniesHandler(cfg.Services, cfg.Cache, logger)
	employees := NewEmployeesHandler(cfg.Services, logger)
	authentication := NewAuthenticationHandler(cfg.Services, logger)

	authenticator := auth.NewAuthenticator(cfg.AuthSettings, logger, errs.writeError)
	global := ratelimit.NewGlobal(cfg.GlobalLimit, logger)
	specific := ratelimit.Policy(ratelimit.SpecificPolicy, cfg.SpecificLimit)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Production,
		STSSeconds:         31536000,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !cfg.Production,
	}).Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{paginationHeader, versioning.SupportedHeader, versioning.DeprecatedHeader},
		MaxAge:         300,
	}))
	r.Use(versioning.Middleware(versioning.Options{
		Supported:  []string{versioning.V1},
		Deprecated: []string{versioning.V2},
		OnUnsupported: func(w http.ResponseWriter, _ *http.Request, message string) {
			writeJSON(w, http.StatusBadRequest, ErrorDetails{StatusCode: http.StatusBadRequest, Message: message})
		},
	}))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorDetails{StatusCode: http.StatusNotFound, Message: "No resource matches " + r.URL.Path + "."})
	})

	companyCache := func(p cache.Policy) func(http.Handler) http.Handler {
		p.Tags = append(p.Tags, CompaniesTag)
		p.VaryByHeader = append(p.VaryByHeader, "Accept", versioning.HeaderName)
		return cfg.Cache.Middleware(p)
	}
	defaultPolicy := cache.Policy{Duration: 120 * time.Second}

	r.Route("/api/companies", func(r chi.Router) {
		r.With(companyCache(cache.Policy{Duration: 60 * time.Second})).Get("/{id}", companies.GetCompany)

		r.Group(func(r chi.Router) {
			r.Use(global.Middleware)

			r.With(authenticator.Middleware, authenticator.RequireRoles(ManagerRole), specific).
				Get("/", versioning.Dispatch(http.HandlerFunc(companies.GetCompanies), map[string]http.Handler{
					versioning.V2: http.HandlerFunc(companies.GetCompaniesV2),
				}).ServeHTTP)
			r.Options("/", companies.GetCompaniesOptions)
			r.Post("/", companies.CreateCompany)
			r.Put("/{id}", companies.UpdateCompany)
			r.Delete("/{id}", companies.DeleteCompany)

			r.With(companyCache(defaultPolicy)).Get("/collection/({ids})", companies.GetCompanyCollection)
			r.Post("/collection", companies.CreateCompanyCollection)

			r.With(companyCache(cache.Policy{NoStore: true})).Get("/output-nocache", companies.NonCachedOutput)
			r.With(companyCache(cache.Policy{Duration: 10 * time.Second, VaryByQuery: []string{"firstKey"}})).
				Get("/output-varybykey", companies.VaryByKey)

			r.Route("/{companyId}/employees", func(r chi.Router) {
				r.Get("/", employees.GetEmployeesForCompany)
				r.Post("/", employees.CreateEmployeeForCompany)
				r.Get("/{id}", employees.GetEmployeeForCompany)
				r.Put("/{id}", employees.UpdateEmployeeForCompany)
				r.Delete("/{id}", employees.DeleteEmployeeForCompany)
			})
		})
	})

	r.Route("/api/authentication", func(r chi.Router) {
		r.Use(global.Middleware)
		r.Post("/", authentication.RegisterUser)
		r.Post("/login", authentication.Authenticate)
	})

	return r
}
