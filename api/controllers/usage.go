package controllers

import (
	"net/http"

	"github.com/angelmondragon/dmpilot-backend/api/middleware"
	"github.com/angelmondragon/dmpilot-backend/api/responses"
	"github.com/angelmondragon/dmpilot-backend/internal/quota"
	pkgerrors "github.com/angelmondragon/dmpilot-backend/pkg/errors"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

// UsageFetch returns the account's reply counter for the current billing
// period, creating the zeroed row lazily when this is the first read.
func UsageFetch(svc quota.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountID, ok := middleware.AccountIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account identity missing"))
			return
		}

		usage, err := svc.GetUsage(ctx, accountID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, usage)
	}
}
