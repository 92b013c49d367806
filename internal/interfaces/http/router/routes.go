package router

import (
	"net/http"

	"github.com/contaspagar/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers bundles every handler mounted by the API
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Account   *handler.AccountHandler
	Group     *handler.GroupHandler
	Billing   *handler.BillingHandler
	History   *handler.HistoryHandler
	Dashboard *handler.DashboardHandler
	System    *handler.SystemHandler
}

// RouteOptions carries middleware that only some routes need
type RouteOptions struct {
	// Authenticated guards every route except login and refresh
	Authenticated gin.HandlerFunc
	// Login wraps the credential endpoints, typically with a rate limiter
	Login []gin.HandlerFunc
}

func (o RouteOptions) protect(dg *DomainGroup) *DomainGroup {
	if o.Authenticated != nil {
		dg.Use(o.Authenticated)
	}
	return dg
}

func chain(middleware []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	handlers := make([]gin.HandlerFunc, 0, len(middleware)+1)
	handlers = append(handlers, middleware...)
	return append(handlers, h)
}

// APIRoutes returns the versioned API groups in mount order
func APIRoutes(h Handlers, opts RouteOptions) []RouteRegistrar {
	public := NewDomainGroup("auth", "/auth")
	public.POST("/login", chain(opts.Login, h.Auth.Login)...)
	public.POST("/refresh", chain(opts.Login, h.Auth.RefreshToken)...)

	session := opts.protect(NewDomainGroup("session", "/auth"))
	session.POST("/logout", h.Auth.Logout)
	session.GET("/me", h.Auth.GetCurrentUser)
	session.PUT("/password", h.Auth.ChangePassword)

	users := opts.protect(NewDomainGroup("users", "/users"))
	users.POST("", h.User.Create)
	users.GET("", h.User.List)
	users.GET("/:id", h.User.GetByID)
	users.PUT("/:id", h.User.Update)
	users.DELETE("/:id", h.User.Delete)
	users.POST("/:id/activate", h.User.Activate)
	users.POST("/:id/deactivate", h.User.Deactivate)
	users.POST("/:id/reset-password", h.User.ResetPassword)

	accounts := opts.protect(NewDomainGroup("accounts", "/accounts"))
	accounts.GET("/field-groups", h.Account.FieldGroups)
	accounts.POST("/status-scan", h.Account.ScanStatuses)
	accounts.POST("", h.Account.Create)
	accounts.GET("", h.Account.List)
	accounts.GET("/:id", h.Account.GetByID)
	accounts.PUT("/:id", h.Account.Update)
	accounts.DELETE("/:id", h.Account.Delete)
	accounts.POST("/:id/pay", h.Account.MarkPaid)
	accounts.GET("/:id/history", h.Account.History)

	groups := opts.protect(NewDomainGroup("groups", "/groups"))
	groups.POST("", h.Group.Create)
	groups.GET("", h.Group.List)
	groups.GET("/:id", h.Group.GetByID)
	groups.PUT("/:id", h.Group.Update)
	groups.DELETE("/:id", h.Group.Delete)

	billings := opts.protect(NewDomainGroup("billings", "/billings"))
	billings.GET("/latest", h.Billing.Latest)
	billings.POST("", h.Billing.Create)
	billings.GET("", h.Billing.List)
	billings.GET("/:id", h.Billing.GetByID)
	billings.PUT("/:id", h.Billing.Update)
	billings.DELETE("/:id", h.Billing.Delete)

	history := opts.protect(NewDomainGroup("history", "/history"))
	history.GET("", h.History.List)
	history.GET("/:id", h.History.GetByID)

	dashboard := opts.protect(NewDomainGroup("dashboard", "/dashboard"))
	dashboard.GET("", h.Dashboard.Summary)

	system := opts.protect(NewDomainGroup("system", "/system"))
	system.GET("/info", h.System.GetSystemInfo)
	system.GET("/ping", h.System.Ping)

	return []RouteRegistrar{public, session, users, accounts, groups, billings, history, dashboard, system}
}

// MountOperational registers the unversioned health and scrape endpoints.
// A nil metrics handler leaves /metrics unmounted.
func MountOperational(engine *gin.Engine, system *handler.SystemHandler, metrics http.Handler) {
	engine.GET("/health", system.Health)
	engine.GET("/api/v1/health", system.Health)
	if metrics != nil {
		engine.GET("/metrics", gin.WrapH(metrics))
	}
}
