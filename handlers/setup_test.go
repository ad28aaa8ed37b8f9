// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/scvote/councilvote/auditlog"
	"github.com/scvote/councilvote/cliparse"
	"github.com/scvote/councilvote/docstore"
	"github.com/scvote/councilvote/identity"
	"github.com/scvote/councilvote/router"
	"github.com/scvote/councilvote/testutil"
)

// newTestServer wires a full router over a fresh store, the same way main
// does, minus the external IP lookup.
func newTestServer(t *testing.T) (*docstore.Store, cliparse.Config, *chi.Mux) {
	t.Helper()

	store := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	svc := identity.NewService(store, nil)
	audit := auditlog.NewLogger(store, nil)
	return store, cfg, router.NewRouter(store, cfg, svc, audit)
}

// serve runs one request through the router and returns the recorder.
func serve(r *chi.Mux, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// carryCookies re-sends cookies a previous response set, the way a browser
// would on the next request.
func carryCookies(req *http.Request, w *httptest.ResponseRecorder) *http.Request {
	for _, c := range w.Result().Cookies() {
		if c.MaxAge >= 0 {
			req.AddCookie(c)
		}
	}
	return req
}
