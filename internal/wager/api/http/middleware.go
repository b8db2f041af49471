package http

import (
	"net/http"
	"strings"

	apperrors "github.com/frontline-gg/wagervault/internal/errors"
	"github.com/frontline-gg/wagervault/internal/platform/requestctx"
)

// authenticate verifies the bearer token and stores the caller account in
// the request context. Websocket clients that cannot set headers may pass
// the token as the access_token query parameter instead.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("access_token")
		}

		id, err := h.verifier.Verify(token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if id.Account == "" {
			writeError(w, r, apperrors.New(apperrors.CodeIdentityTokenInvalid, "identity token account is required"))
			return
		}

		ctx := requestctx.WithCaller(r.Context(), id.Account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
