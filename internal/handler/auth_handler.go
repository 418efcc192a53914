/*
Package handler provides the HTTP handlers and routing for the userdash API.
*/
package handler

import (
	"net/http"

	"userdash/internal/pkg/logx"
	"userdash/internal/pkg/req"
	"userdash/internal/pkg/resp"
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account and returns a token for it.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input RegisterInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		result, err := deps.Auth.Register(r.Context(), input.Name, input.Email, input.Password)
		if err != nil {
			logx.Ctx(r.Context()).Warn().Err(err).Msg("registration rejected")
			resp.RespondError(w, r, mapError(err))
			return
		}

		resp.RespondCreated(w, r, map[string]any{
			"message": "User registered successfully",
			"token":   result.Token,
			"user":    result.User,
		})
	}
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and issues a token.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		result, err := deps.Auth.Login(r.Context(), input.Email, input.Password)
		if err != nil {
			resp.RespondError(w, r, mapError(err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"message": "Login successful",
			"token":   result.Token,
			"user":    result.User,
		})
	}
}
