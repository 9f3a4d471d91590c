package process

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/bhola-bot/internal/applog"
	"github.com/SergeyParamoshkin/bhola-bot/internal/errresponse"
	"github.com/SergeyParamoshkin/bhola-bot/internal/metrics"
	"github.com/SergeyParamoshkin/bhola-bot/internal/processor"
)

const Hint = "POST JSON to /process or send a Telegram message to the bot"

type API struct {
	metrics *metrics.Metrics
}

func NewAPI(m *metrics.Metrics) *API {
	return &API{metrics: m}
}

// Mount registers the JSON API on r.
func (a *API) Mount(r chi.Router) {
	r.Get("/", a.Root)
	r.Get("/healthz", a.Healthz)
	r.Post("/process", a.Process)
}

func (a *API) Root(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, &StatusResponse{OK: true, Hint: Hint})
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, &StatusResponse{OK: true})
}

// Process runs the text transformation on the posted text.
func (a *API) Process(w http.ResponseWriter, r *http.Request) {
	data := &Request{}
	if err := render.Bind(r, data); err != nil {
		a.render(w, r, errresponse.ErrInvalidRequest(err))

		return
	}

	a.metrics.ProcessCompleted.Add(r.Context(), 1)
	a.render(w, r, NewResponse(processor.Process(*data.Text)))
}

func (a *API) render(w http.ResponseWriter, r *http.Request, v render.Renderer) {
	if err := render.Render(w, r, v); err != nil {
		applog.FromContext(r.Context()).Errorw("render response", "error", err)

		if err = render.Render(w, r, errresponse.ErrRender(err)); err != nil {
			applog.FromContext(r.Context()).Errorw(err.Error())
		}
	}
}
