package webhook

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/bhola-bot/internal/applog"
	"github.com/SergeyParamoshkin/bhola-bot/internal/errresponse"
	"github.com/SergeyParamoshkin/bhola-bot/internal/metrics"
	"github.com/SergeyParamoshkin/bhola-bot/internal/model"
)

// Processor dispatches one update.
type Processor interface {
	Process(ctx context.Context, u *model.Update) error
}

type API struct {
	secret    string
	processor Processor
	metrics   *metrics.Metrics
}

func NewAPI(secret string, p Processor, m *metrics.Metrics) *API {
	return &API{secret: secret, processor: p, metrics: m}
}

// Routes for mounting under the webhook path.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(SecretToken(a.secret, a.metrics), UpdateCtx(a.metrics)).Post("/", a.Handle)

	return r
}

// Handle dispatches the update loaded by UpdateCtx and answers 200 with an
// empty body. Handler failures inside the dispatcher do not change the status.
func (a *API) Handle(w http.ResponseWriter, r *http.Request) {
	// Assume if we've reach this far, the update is on the context.
	u, _ := UpdateFromContext(r.Context())

	a.metrics.UpdatesReceived.Add(r.Context(), 1)

	if err := a.processor.Process(r.Context(), u); err != nil {
		applog.FromContext(r.Context()).Errorw("process update", "update_id", u.UpdateID, "error", err)

		if err := render.Render(w, r, errresponse.ErrInternal(err)); err != nil {
			applog.FromContext(r.Context()).Errorw(err.Error())
		}

		return
	}

	w.WriteHeader(http.StatusOK)
}
