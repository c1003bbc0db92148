package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nsets/erp-backend/api/controllers"
	"github.com/nsets/erp-backend/api/middleware"
	"github.com/nsets/erp-backend/internal/activity"
	"github.com/nsets/erp-backend/internal/approval"
	"github.com/nsets/erp-backend/internal/auth"
	"github.com/nsets/erp-backend/internal/exports"
	"github.com/nsets/erp-backend/internal/invoices"
	"github.com/nsets/erp-backend/internal/linkage"
	"github.com/nsets/erp-backend/internal/purchaseorders"
	"github.com/nsets/erp-backend/internal/queries"
	"github.com/nsets/erp-backend/internal/quotations"
	"github.com/nsets/erp-backend/internal/suggestions"
	"github.com/nsets/erp-backend/internal/system"
	"github.com/nsets/erp-backend/internal/users"
	"github.com/nsets/erp-backend/pkg/config"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/enums"
	"github.com/nsets/erp-backend/pkg/logger"
	"github.com/nsets/erp-backend/pkg/metrics"
	"github.com/nsets/erp-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies is everything the HTTP surface needs. Nil services produce
// handlers that answer 500 so partial wiring in tests stays usable.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	Redis       *redis.Client
	Registry    *prometheus.Registry
	Readiness   []controllers.ReadinessCheck
	Attachments controllers.AttachmentOpener

	Auth           auth.Service
	Users          users.Service
	Queries        queries.Service
	Quotations     quotations.Service
	PurchaseOrders purchaseorders.Service
	Invoices       invoices.Service
	Approval       approval.Service
	Linkage        linkage.Service
	Exports        exports.Service
	Activity       activity.Service
	Suggestions    suggestions.Service
	System         system.Service
}

// documentRoute binds one document kind to its URL segment.
type documentRoute struct {
	path     string
	kind     enums.EntityType
	handlers controllers.DocumentHandlers
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	maxUpload := cfg.Attachments.MaxUploadBytes()

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(metrics.NewHTTPMetrics(registerer(deps.Registry))),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness...))
	})
	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		login := controllers.AuthLogin(deps.Auth, logg)
		if deps.Redis != nil {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", login)
		} else {
			r.Post("/login", login)
		}
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
			r.Get("/check", controllers.AuthCheck(deps.Auth, logg))
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Auth, logg))

		r.Get("/suggestions/{type}", controllers.Suggestions(deps.Suggestions, logg))
		r.Get("/attachments/{category}/{name}", controllers.AttachmentDownload(deps.Attachments, logg))

		r.Route("/queries", func(r chi.Router) {
			r.Use(middleware.RequirePermission(enums.PermissionQueries, logg))
			r.Get("/", controllers.QueriesList(deps.Queries, logg))
			r.Post("/", controllers.QueryCreate(deps.Queries, maxUpload, logg))
			r.Get("/for-quotation", controllers.QueriesForQuotation(deps.Queries, logg))
			r.Get("/{id}", controllers.QueryGet(deps.Queries, logg))
			r.Put("/{id}", controllers.QueryUpdate(deps.Queries, maxUpload, logg))
			r.Delete("/{id}", controllers.QueryDelete(deps.Queries, logg))
			r.Put("/{id}/status", controllers.QueryChangeStatus(deps.Queries, maxUpload, logg))
			r.Post("/{id}/supplier-attachment", controllers.QuerySupplierAttachment(deps.Queries, maxUpload, logg))
			r.Get("/{id}/related", controllers.Related(deps.Linkage, enums.EntityTypeQuery, logg))
			r.Get("/{id}/export", controllers.Export(deps.Exports, enums.EntityTypeQuery, logg))
		})

		documents := []documentRoute{
			{path: "/quotations", kind: enums.EntityTypeQuotation, handlers: controllers.NewDocumentHandlers[models.Quotation, quotations.Input](deps.Quotations, "quotation", logg)},
			{path: "/purchase-orders", kind: enums.EntityTypePurchaseOrder, handlers: controllers.NewDocumentHandlers[models.PurchaseOrder, purchaseorders.Input](deps.PurchaseOrders, "purchase order", logg)},
			{path: "/invoices", kind: enums.EntityTypeInvoice, handlers: controllers.NewDocumentHandlers[models.Invoice, invoices.Input](deps.Invoices, "invoice", logg)},
		}
		for _, doc := range documents {
			r.Route(doc.path, func(r chi.Router) {
				r.Get("/", doc.handlers.List)
				r.Post("/", doc.handlers.Create)
				r.Get("/{id}", doc.handlers.Get)
				r.Put("/{id}", doc.handlers.Update)
				r.Delete("/{id}", doc.handlers.Delete)
				r.Get("/{id}/related", controllers.Related(deps.Linkage, doc.kind, logg))
				r.Get("/{id}/export", controllers.Export(deps.Exports, doc.kind, logg))
				if doc.kind == enums.EntityTypeQuotation {
					r.With(middleware.Idempotency(idempotencyStore(deps.Redis), middleware.ApprovalIdempotencyTTL, logg)).
						Post("/{id}/approve-to-invoice", controllers.QuotationApprove(deps.Approval, logg))
				}
			})
		}

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))
			r.Get("/activity-logs", controllers.AdminActivityLogs(deps.Activity, logg))
			r.Get("/system-info", controllers.AdminSystemInfo(deps.System, logg))
			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminUsersList(deps.Users, logg))
				r.Post("/", controllers.AdminUserCreate(deps.Users, logg))
				r.Get("/{id}", controllers.AdminUserGet(deps.Users, logg))
				r.Put("/{id}", controllers.AdminUserUpdate(deps.Users, logg))
				r.Put("/{id}/password", controllers.AdminUserSetPassword(deps.Users, logg))
				r.Delete("/{id}", controllers.AdminUserDeactivate(deps.Users, logg))
			})
		})
	})

	return r
}

// The typed nils below keep a missing client from becoming a non-nil interface.

func idempotencyStore(client *redis.Client) redis.IdempotencyStore {
	if client == nil {
		return nil
	}
	return client
}

func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}
	return reg
}
