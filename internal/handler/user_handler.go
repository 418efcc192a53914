package handler

import (
	"net/http"

	"userdash/internal/app/profile"
	"userdash/internal/app/user"
	"userdash/internal/pkg/auth/jwt"
	"userdash/internal/pkg/errs"
	"userdash/internal/pkg/req"
	"userdash/internal/pkg/resp"
)

// callerID returns the id stored by jwt.RequireAuth, answering 401 when the
// route was mounted without it.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := jwt.UserIDFromContext(r.Context())
	if !ok {
		resp.RespondError(w, r, errs.NewError(errs.ErrMissingToken))
	}
	return id, ok
}

func HandleGetProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := callerID(w, r)
		if !ok {
			return
		}

		p, err := deps.Profiles.GetProfile(r.Context(), id)
		if err != nil {
			resp.RespondError(w, r, mapError(err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"user": p})
	}
}

type UpdateProfileInput struct {
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Membership user.Membership `json:"membership"`
}

// HandleUpdateProfile overwrites name and email, and membership when present.
func HandleUpdateProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := callerID(w, r)
		if !ok {
			return
		}

		var input UpdateProfileInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		p, err := deps.Profiles.UpdateProfile(r.Context(), id, profile.Update{
			Name:       input.Name,
			Email:      input.Email,
			Membership: input.Membership,
		})
		if err != nil {
			resp.RespondError(w, r, mapError(err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"message": "Profile updated successfully",
			"user":    p,
		})
	}
}

type SetAvatarInput struct {
	AvatarURL string `json:"avatarUrl"`
}

func HandleSetAvatar(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := callerID(w, r)
		if !ok {
			return
		}

		var input SetAvatarInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		p, err := deps.Profiles.SetAvatar(r.Context(), id, input.AvatarURL)
		if err != nil {
			resp.RespondError(w, r, mapError(err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"message": "Avatar updated successfully",
			"user":    p,
		})
	}
}
