package controllers

import (
	"net/http"

	"github.com/angelmondragon/dmpilot-backend/api/middleware"
	"github.com/angelmondragon/dmpilot-backend/api/responses"
	"github.com/angelmondragon/dmpilot-backend/api/validators"
	"github.com/angelmondragon/dmpilot-backend/internal/tone"
	"github.com/angelmondragon/dmpilot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dmpilot-backend/pkg/errors"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

type toneSaveRequest struct {
	Tone               string `json:"tone" validate:"required"`
	BusinessProfile    string `json:"business_profile" validate:"required"`
	CustomInstructions string `json:"custom_instructions" validate:"omitempty,max=1000"`
}

// ToneFetch returns the persona the reply pipeline would use right now,
// falling back to the default when nothing is saved.
func ToneFetch(svc tone.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountID, ok := middleware.AccountIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account identity missing"))
			return
		}

		responses.WriteSuccess(w, svc.Resolve(ctx, accountID))
	}
}

// ToneSave replaces the account's persona configuration wholesale.
func ToneSave(svc tone.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountID, ok := middleware.AccountIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account identity missing"))
			return
		}

		var req toneSaveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		profile, err := svc.Save(ctx, tone.SaveParams{
			AccountID:          accountID,
			Tone:               enums.Tone(req.Tone),
			BusinessProfile:    enums.BusinessProfile(req.BusinessProfile),
			CustomInstructions: req.CustomInstructions,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}
