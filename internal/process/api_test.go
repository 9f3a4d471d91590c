package process

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergeyParamoshkin/bhola-bot/internal/metrics"
)

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	NewAPI(metrics.Noop()).Mount(r)

	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestRootAndHealthz(t *testing.T) {
	h := newRouter()

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"hint":"POST JSON to /process or send a Telegram message to the bot"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestProcess(t *testing.T) {
	h := newRouter()

	rec := do(t, h, http.MethodPost, "/process", `{"text":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":"bhola hello"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/process", `{"text":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":"bhola "}`, rec.Body.String())
}

func TestProcess_Invalid(t *testing.T) {
	h := newRouter()

	for name, body := range map[string]string{
		"missing text": `{"other":"x"}`,
		"number text":  `{"text":5}`,
		"broken json":  `{"text":`,
		"empty body":   ``,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/process", body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), `"detail"`)
		})
	}

	rec := do(t, h, http.MethodPost, "/process", `{}`)
	assert.JSONEq(t, `{"detail":"field required: text"}`, rec.Body.String())
}

func TestProcess_MethodNotAllowed(t *testing.T) {
	rec := do(t, newRouter(), http.MethodGet, "/process", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
