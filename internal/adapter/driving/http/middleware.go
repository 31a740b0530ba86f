package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/reposhare/reposhare/internal/domain/model"
)

// ownerHeader names the authenticated caller. The fronting auth layer sets it
// after login; requests without it never reach a private handler.
const ownerHeader = "X-Reposhare-Owner"

type ctxKey int

const (
	ctxKeyOwner ctxKey = iota
	ctxKeyLink
)

// ownerFromContext returns the authenticated owner id set by requireOwner.
func ownerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ctxKeyOwner).(string)
	return owner
}

// linkFromContext returns the authorized link set by the link guard.
func linkFromContext(ctx context.Context) *model.ShareLink {
	link, _ := ctx.Value(ctxKeyLink).(*model.ShareLink)
	return link
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the embedded writer.
func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

// recoveryMiddleware recovers from panics in HTTP handlers, logs the error,
// and returns a 500 response.
func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("panic recovered",
					"panic", v,
					"path", r.URL.Path,
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// requireOwner rejects requests lacking a caller identity and stores the
// owner id in the request context for private handlers.
func (h *Handler) requireOwner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get(ownerHeader)
		if owner == "" {
			writeError(w, http.StatusUnauthorized, "missing owner identity")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyOwner, owner)))
	}
}

// guardLink runs the access guard on the slug path segment before any public
// handler. Granted requests carry the resolved link in context and bump the
// click counter.
func (h *Handler) guardLink(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := h.links.Authorize(r.Context(), r.PathValue("slug"))
		if err != nil {
			writeAppError(h.logger, w, r, err)
			return
		}

		h.links.RecordClick(r.Context(), link)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyLink, link)))
	}
}
