package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/belvedhair/booking/libs/auth"
	"github.com/belvedhair/booking/libs/httpx"
	"github.com/belvedhair/booking/libs/runtime"
	"github.com/belvedhair/booking/services/booking-service/internal/handlers"
	"github.com/belvedhair/booking/services/booking-service/internal/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const adminRealm = "belved-admin"

type routerDeps struct {
	public  *handlers.BookingHandler
	admin   *handlers.AdminHandler
	metrics *metrics.Metrics
	limiter httpx.Limiter
	creds   auth.Credentials
	cors    []string
	ready   []runtime.ReadyCheck
	logger  *slog.Logger
}

func newRouter(d routerDeps) http.Handler {
	mux := runtime.NewBaseMuxWithReady(d.ready...)
	mux.Handle("/metrics", d.metrics.Handler())

	limited := httpx.RateLimit(d.limiter, httpx.RateLimitOptions{
		Logger:   d.logger,
		FailOpen: true,
		OnReject: func(r *http.Request) { d.metrics.ObserveRateLimited(r.URL.Path) },
	})
	admin := func(h http.HandlerFunc) http.Handler {
		return auth.RequireBasicAuth(h, d.creds, adminRealm)
	}

	mux.HandleFunc("/api/v1/staff", d.public.Staff)
	mux.HandleFunc("/api/v1/availability", d.public.Availability)
	mux.HandleFunc("/api/v1/month-overview", d.public.MonthOverview)
	mux.Handle("/api/v1/book", limited(http.HandlerFunc(d.public.Book)))
	mux.Handle("/api/v1/priority-request", limited(http.HandlerFunc(d.public.PriorityRequest)))

	mux.Handle("/api/v1/admin/bookings", admin(d.admin.Bookings))
	mux.Handle("/api/v1/admin/bookings/cancel", admin(d.admin.Cancel))
	mux.Handle("/api/v1/admin/time-off", admin(d.admin.TimeOff))
	mux.Handle("/api/v1/admin/staff", admin(d.admin.CreateStaff))
	mux.Handle("/api/v1/admin/working-hours", admin(d.admin.WorkingHours))

	h := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: d.cors,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization", httpx.RequestIDHeader},
			ExposedHeaders: []string{httpx.RequestIDHeader},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(d.logger),
		httpx.WithRecover(d.logger),
		httpx.WithBodyLimit(64<<10),
		httpx.WithTimeout(15*time.Second),
	)
	return otelhttp.NewHandler(h, "booking")
}
