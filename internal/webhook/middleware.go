package webhook

import (
	"context"
	"crypto/subtle"
	"io"
	"net/http"

	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/bhola-bot/internal/applog"
	"github.com/SergeyParamoshkin/bhola-bot/internal/errresponse"
	"github.com/SergeyParamoshkin/bhola-bot/internal/metrics"
	"github.com/SergeyParamoshkin/bhola-bot/internal/model"
)

const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxBodySize caps update bodies; Telegram updates are a few KiB.
const maxBodySize = 1 << 20

type ctxKey int8

const ctxKeyUpdate ctxKey = iota

// SecretToken rejects requests whose secret header does not match secret.
func SecretToken(secret string, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(SecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				m.Rejected(r.Context(), "secret")
				applog.FromContext(r.Context()).Warnw("webhook secret mismatch", "remote", r.RemoteAddr)

				if err := render.Render(w, r, errresponse.ErrUnauthorized("Invalid secret token")); err != nil {
					applog.FromContext(r.Context()).Errorw(err.Error())
				}

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UpdateCtx middleware is used to load a Telegram update from the request
// body. In case the body is not a valid update, we stop here and return a 400.
func UpdateCtx(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
			if err == nil {
				var u *model.Update
				if u, err = model.ParseUpdate(body); err == nil {
					next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUpdate, u)))

					return
				}
			}

			m.Rejected(r.Context(), "payload")
			applog.FromContext(r.Context()).Warnw("invalid webhook payload", "error", err)

			if err := render.Render(w, r, errresponse.ErrBadRequest(err, "Invalid update payload")); err != nil {
				applog.FromContext(r.Context()).Errorw(err.Error())
			}
		})
	}
}

// UpdateFromContext returns the update loaded by UpdateCtx.
func UpdateFromContext(ctx context.Context) (*model.Update, bool) {
	u, ok := ctx.Value(ctxKeyUpdate).(*model.Update)

	return u, ok
}
