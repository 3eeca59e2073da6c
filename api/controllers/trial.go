package controllers

import (
	"net/http"

	"github.com/angelmondragon/dmpilot-backend/api/middleware"
	"github.com/angelmondragon/dmpilot-backend/api/responses"
	"github.com/angelmondragon/dmpilot-backend/internal/trials"
	pkgerrors "github.com/angelmondragon/dmpilot-backend/pkg/errors"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

// TrialFetch reports the account's effective subscription state.
func TrialFetch(svc trials.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountID, ok := middleware.AccountIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account identity missing"))
			return
		}

		info, err := svc.Derive(ctx, accountID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, info)
	}
}

// TrialEndEarly converts the account's trial into a paid subscription
// immediately; the provider confirms the transition via webhook.
func TrialEndEarly(svc trials.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountID, ok := middleware.AccountIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account identity missing"))
			return
		}

		info, err := svc.EndTrialEarly(ctx, accountID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, info)
	}
}
