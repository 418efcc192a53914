/*
Package resp writes JSON responses in the shape clients of the dashboard API expect.

Successful responses are flat objects carrying "success": true next to the
payload fields; failures carry "success": false, the errs code and a message.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"userdash/internal/pkg/errs"
	"userdash/internal/pkg/logx"
)

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RespondJSON marshals payload and writes it with httpStatus.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logx.Ctx(r.Context()).Error().
			Err(err).
			Int("http_status", httpStatus).
			Msg("error encoding JSON response")

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(httpStatus)
	_, _ = w.Write(body)
}

// RespondSuccess writes data with HTTP 200, adding "success": true.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data map[string]any) {
	RespondJSON(w, r, http.StatusOK, withSuccess(data))
}

// RespondCreated writes data with HTTP 201, adding "success": true.
func RespondCreated(w http.ResponseWriter, r *http.Request, data map[string]any) {
	RespondJSON(w, r, http.StatusCreated, withSuccess(data))
}

// RespondError writes customErr using its status. A nil error is reported as ErrUnknown.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, ErrorResponse{
		Success: false,
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}

func withSuccess(data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["success"] = true
	return out
}
