package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"userdash/internal/pkg/logx"
	"userdash/internal/pkg/resp"
)

// HandleGenerateQRCode renders the caller's own code.
func HandleGenerateQRCode(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := callerID(w, r)
		if !ok {
			return
		}

		generated, err := deps.QRCodes.Generate(r.Context(), id)
		if err != nil {
			resp.RespondError(w, r, mapError(err))
			return
		}

		data := map[string]any{
			"qrCode":   generated.Code.DataURL,
			"userData": generated.Payload,
		}
		if generated.DownloadURL != "" {
			data["downloadUrl"] = generated.DownloadURL
		}

		resp.RespondSuccess(w, r, data)
	}
}

// HandleLookupQRCode renders the public code of any user. No token required.
func HandleLookupQRCode(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lookup, err := deps.QRCodes.LookupByUserID(r.Context(), chi.URLParam(r, "userId"))
		if err != nil {
			resp.RespondError(w, r, mapError(err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"qrCode": lookup.Code.DataURL,
			"user":   lookup.Payload,
			"avatar": lookup.Avatar,
		})
	}
}

// HandleQRCodeImage serves the public code as a PNG download.
func HandleQRCodeImage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userId")

		lookup, err := deps.QRCodes.LookupByUserID(r.Context(), userID)
		if err != nil {
			resp.RespondError(w, r, mapError(err))
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(lookup.Code.PNG)))
		w.Header().Set("Content-Disposition", `attachment; filename="qrcode-`+userID+`.png"`)
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write(lookup.Code.PNG); err != nil {
			logx.Ctx(r.Context()).Warn().Err(err).Msg("failed to write qr code image")
		}
	}
}
