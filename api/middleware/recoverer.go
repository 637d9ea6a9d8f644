package middleware

import (
	"fmt"
	"net/http"

	"github.com/omarbakri/familysouq-backend/api/responses"
	pkgerrors "github.com/omarbakri/familysouq-backend/pkg/errors"
	"github.com/omarbakri/familysouq-backend/pkg/logger"
)

// Recoverer converts a handler panic into a logged 500 response. The panic
// value is recorded on the log entry but never leaks into the response body.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithField(ctx, "panic", rec)
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
