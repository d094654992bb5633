package control

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Garsondee/fincraft/internal/sim"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type refusing struct{}

func (refusing) Submit(sim.Command) bool { return false }

func newTestServer(t *testing.T) (*Server, *sim.State) {
	t.Helper()
	st := sim.New(sim.WithSeed(3))
	return New(st, Config{}), st
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestServer_AccountsAppliedOnNextTick(t *testing.T) {
	srv, st := newTestServer(t)
	body := `{"depository":[{"id":"chk","name":"Checking","balance":500}],"creditCards":[{"id":"visa","name":"Visa","balance":200,"apr":18}]}`
	w := do(t, srv, http.MethodPut, "/api/v1/accounts", body)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if len(st.Buildings()) != 0 {
		t.Fatal("handlers must not mutate state before the tick")
	}
	st.Tick()
	if len(st.Buildings()) != 2 || st.NetWorth != 300 {
		t.Fatalf("expected 2 buildings and net worth 300, got %d / %v", len(st.Buildings()), st.NetWorth)
	}
}

func TestServer_AccountsRejectDuplicateIDs(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"loans":[{"id":"x","name":"A","balance":1},{"id":"x","name":"B","balance":2}]}`
	if w := do(t, srv, http.MethodPut, "/api/v1/accounts", body); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestServer_EventsQueued(t *testing.T) {
	srv, st := newTestServer(t)
	w := do(t, srv, http.MethodPost, "/api/v1/events", `{"type":"expense","amount":42,"category":"depository"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	st.Tick()
	if st.Queue.Len()+st.Stats.Popped != 1 {
		t.Fatalf("expected the event queued or popped, got len=%d popped=%d", st.Queue.Len(), st.Stats.Popped)
	}

	for _, bad := range []string{`{"type":"refund","amount":1}`, `{"type":"expense","amount":-4}`, `not json`} {
		if w := do(t, srv, http.MethodPost, "/api/v1/events", bad); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", bad, w.Code)
		}
	}
}

func TestServer_EventsCleared(t *testing.T) {
	srv, st := newTestServer(t)
	for _, id := range []string{"chk", "sav", "visa"} {
		st.PushEvent(sim.Event{Type: sim.EventExpense, Amount: 10, Category: sim.CategoryDepository, TargetID: id})
	}
	w := do(t, srv, http.MethodDelete, "/api/v1/events", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if st.Queue.Len() != 3 {
		t.Fatal("handlers must not mutate state before the tick")
	}
	st.Tick()
	if st.Queue.Len() != 0 {
		t.Fatalf("expected an empty queue, got %d", st.Queue.Len())
	}
	e, ok := st.Log.LastOf("queue", "cleared")
	if !ok || e.NumVal != 3 {
		t.Fatalf("expected a cleared entry for 3 events, got %+v", e)
	}
}

func TestServer_TimeViewSpeedBuildMode(t *testing.T) {
	srv, st := newTestServer(t)
	for _, r := range []struct{ path, body string }{
		{"/api/v1/timeview", `{"view":"YTD"}`},
		{"/api/v1/speed", `{"speed":2}`},
		{"/api/v1/buildmode", `{"enabled":true}`},
	} {
		if w := do(t, srv, http.MethodPut, r.path, r.body); w.Code != http.StatusAccepted {
			t.Fatalf("%s: expected 202, got %d", r.path, w.Code)
		}
	}
	st.Tick()
	if st.TimeView != sim.ViewYTD || st.Speed != 2 || !st.BuildMode {
		t.Fatalf("unexpected state view=%s speed=%v build=%v", st.TimeView, st.Speed, st.BuildMode)
	}

	if w := do(t, srv, http.MethodPut, "/api/v1/speed", `{"speed":3}`); w.Code != http.StatusBadRequest {
		t.Fatalf("speed 3 must be rejected, got %d", w.Code)
	}
	if w := do(t, srv, http.MethodPut, "/api/v1/timeview", `{"view":"5Y"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown view must be rejected, got %d", w.Code)
	}
	if w := do(t, srv, http.MethodPut, "/api/v1/buildmode", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing flag must be rejected, got %d", w.Code)
	}
}

func TestServer_TransactionsLoaded(t *testing.T) {
	srv, st := newTestServer(t)
	body := `[{"date":"2024-01-02","amount":12.5,"name":"Tacos","account":"Checking"},{"date":"2024-01-01","amount":"-100","name":"Payroll"}]`
	if w := do(t, srv, http.MethodPut, "/api/v1/transactions", body); w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	st.Tick()
	pool := st.Pool()
	if len(pool) != 2 || pool[0].Tx.Name != "Payroll" {
		t.Fatalf("expected a chronological pool of 2, got %d", len(pool))
	}
}

func TestServer_StatePublished(t *testing.T) {
	srv, st := newTestServer(t)
	if w := do(t, srv, http.MethodGet, "/api/v1/state", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before publish, got %d", w.Code)
	}
	st.RunTicks(5)
	srv.Publish(st.Summarize())
	w := do(t, srv, http.MethodGet, "/api/v1/state", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var sum sim.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.Tick != 5 {
		t.Fatalf("expected tick 5, got %d", sum.Tick)
	}
}

func TestServer_FullInboxAnswers503(t *testing.T) {
	srv := New(refusing{}, Config{})
	if w := do(t, srv, http.MethodPut, "/api/v1/timeview", `{"view":"1M"}`); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	srv := New(refusing{}, Config{AllowedOrigins: []string{"http://form.local"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/accounts", nil)
	req.Header.Set("Origin", "http://form.local")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://form.local" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}
