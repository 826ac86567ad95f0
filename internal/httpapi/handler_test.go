package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cassini/internal/dispatch"
	"github.com/abhisek/cassini/internal/logger"
	"github.com/abhisek/cassini/internal/nav"
	"github.com/abhisek/cassini/internal/present"
)

type fakeDispatcher struct {
	got     []dispatch.Request
	current int
	err     error
}

func (f *fakeDispatcher) Handle(_ context.Context, req dispatch.Request) (present.View, error) {
	f.got = append(f.got, req)
	if f.err != nil {
		return present.View{}, f.err
	}
	return present.View{
		Screen:  nav.Hub,
		Title:   "Hub",
		Vars:    []present.Var{{Key: "name", Value: req.Name}},
		Buttons: [][]present.Button{{{Label: "Study", Data: nav.Nav(nav.Subjects, "")}}},
	}, nil
}

func (f *fakeDispatcher) Current(_ context.Context, userID int64, _ string) (present.View, error) {
	f.current++
	if f.err != nil {
		return present.View{}, f.err
	}
	return present.View{Screen: nav.Welcome, Title: "Welcome"}, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newTestRouter(d Dispatcher, p Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		ActionHandler: NewActionHandler(logger.Nop(), d),
		Health:        p,
	})
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostAction(t *testing.T) {
	d := &fakeDispatcher{}
	r := newTestRouter(d, nil)

	w := do(t, r, http.MethodPost, "/v1/users/42/actions", `{"data":"NAV|SCR_HUB|ROOT","name":"ada","message_id":9}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, d.got, 1)
	assert.Equal(t, dispatch.Request{UserID: 42, Name: "ada", Data: "NAV|SCR_HUB|ROOT", MessageID: 9}, d.got[0])

	var v present.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, nav.Hub, v.Screen)
	assert.Equal(t, "ada", v.Get("name"))
	require.Len(t, v.Buttons, 1)
	assert.Equal(t, "NAV|SCR_SUBJECTS", v.Buttons[0][0].Data)
}

func TestPostActionRejectsBadInput(t *testing.T) {
	d := &fakeDispatcher{}
	r := newTestRouter(d, nil)

	tests := []struct {
		name, path, body, code string
	}{
		{"bad id", "/v1/users/abc/actions", `{"data":"NAV|BACK"}`, "bad_user_id"},
		{"negative id", "/v1/users/-1/actions", `{"data":"NAV|BACK"}`, "bad_user_id"},
		{"missing data", "/v1/users/1/actions", `{}`, "bad_request"},
		{"not json", "/v1/users/1/actions", `NAV|BACK`, "bad_request"},
		{"too long", "/v1/users/1/actions", `{"data":"` + strings.Repeat("x", 65) + `"}`, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var env ErrorEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
	assert.Empty(t, d.got)
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	d := &fakeDispatcher{err: errors.New("database is locked: SQLITE_BUSY")}
	r := newTestRouter(d, nil)

	for _, w := range []*httptest.ResponseRecorder{
		do(t, r, http.MethodPost, "/v1/users/1/actions", `{"data":"NAV|BACK"}`),
		do(t, r, http.MethodGet, "/v1/users/1/screen", ""),
	} {
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "SQLITE")
		var env ErrorEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, dispatch.NoticeRetry, env.Error.Message)
	}
}

func TestGetScreen(t *testing.T) {
	d := &fakeDispatcher{}
	r := newTestRouter(d, nil)

	w := do(t, r, http.MethodGet, "/v1/users/5/screen", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, d.current)
	assert.Empty(t, d.got, "rendering does not dispatch")
}

func TestHealthz(t *testing.T) {
	w := do(t, newTestRouter(&fakeDispatcher{}, pinger{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = do(t, newTestRouter(&fakeDispatcher{}, pinger{err: errors.New("closed")}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
