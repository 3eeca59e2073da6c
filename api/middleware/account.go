package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/dmpilot-backend/api/responses"
	pkgerrors "github.com/angelmondragon/dmpilot-backend/pkg/errors"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

const accountIDHeader = "X-Account-Id"

// AccountContext resolves the acting account from the gateway-injected
// header. The edge proxy terminates the dashboard session and forwards the
// account id; requests arriving without it are rejected.
func AccountContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := r.Header.Get(accountIDHeader)
			if raw == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account identity missing"))
				return
			}

			accountID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid account identity"))
				return
			}

			ctx = WithAccountID(ctx, accountID)
			if logg != nil {
				ctx = logg.WithAccountID(ctx, accountID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
