package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgiraudo/pedidos/internal/backend"
	"github.com/mgiraudo/pedidos/internal/catalog"
	"github.com/mgiraudo/pedidos/internal/connectivity"
	"github.com/mgiraudo/pedidos/internal/domain"
	"github.com/mgiraudo/pedidos/internal/draft"
	"github.com/mgiraudo/pedidos/internal/pending"
	"github.com/mgiraudo/pedidos/internal/reconcile"
	"github.com/mgiraudo/pedidos/internal/storage"
	"github.com/mgiraudo/pedidos/internal/submit"
)

type mockRemote struct {
	m        sync.Mutex
	sent     []domain.Order
	nextID   int64
	orderErr error
	session  *backend.Session
	loginErr error
}

func (b *mockRemote) ListOrders(context.Context) ([]domain.Order, error) {
	b.m.Lock()
	defer b.m.Unlock()
	return b.sent, nil
}

func (b *mockRemote) CreateOrder(context.Context, domain.SubmissionPayload) (int64, error) {
	b.m.Lock()
	defer b.m.Unlock()
	if b.orderErr != nil {
		return 0, b.orderErr
	}
	b.nextID++
	return b.nextID, nil
}

func (b *mockRemote) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	b.m.Lock()
	defer b.m.Unlock()
	for _, o := range b.sent {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, &backend.Failure{Kind: backend.FailureRejected, Message: "not found", Status: 404}
}

func (b *mockRemote) Login(context.Context, string, string) (*backend.Session, error) {
	b.m.Lock()
	defer b.m.Unlock()
	if b.loginErr != nil {
		return nil, b.loginErr
	}
	return b.session, nil
}

func (b *mockRemote) Catalog(context.Context, backend.CatalogQuery) (*backend.CatalogPage, error) {
	return &backend.CatalogPage{Items: []domain.Article{{ID: "A1", Description: "Flour", Price: 2.5}}}, nil
}

func (b *mockRemote) Rubros(context.Context) ([]domain.Rubro, error) {
	return []domain.Rubro{{ID: 1, Descripcion: "Almacen"}}, nil
}

type testEnv struct {
	server  *httptest.Server
	remote  *mockRemote
	drafts  *draft.Store
	monitor *connectivity.Monitor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	kv := storage.NewMemoryStore()
	drafts, err := draft.NewStore(context.Background(), kv)
	require.NoError(t, err)
	snapshots := draft.NewSnapshotManager(kv, drafts)
	queue := pending.NewQueue(kv)
	monitor := connectivity.NewMonitor(true)
	remote := &mockRemote{}

	cache, err := catalog.NewLRUPageCache(8)
	require.NoError(t, err)

	timeout := 2 * time.Second
	handlers := Handlers{
		Draft:   NewDraftHandler(drafts, snapshots, submit.NewPipeline(drafts, queue, remote, monitor), timeout),
		Orders:  NewOrdersHandler(reconcile.NewService(remote, queue, monitor), remote, timeout),
		Catalog: NewCatalogHandler(catalog.NewService(remote, cache), timeout),
		Auth:    NewAuthHandler(remote, timeout),
		System:  NewSystemHandler(monitor, snapshots, timeout),
	}

	server := httptest.NewServer(NewRouter(handlers, timeout, []string{"*"}))
	t.Cleanup(server.Close)

	return &testEnv{server: server, remote: remote, drafts: drafts, monitor: monitor}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestDraftEndpoints_AddUpdateRemove(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/draft/lines", map[string]any{
		"articleId": "A1", "name": "Flour", "unitPrice": 2.5, "quantity": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decode[domain.Draft](t, resp)
	require.Len(t, d.Lines, 1)
	assert.Equal(t, 3, d.Lines[0].Quantity)

	resp = env.do(t, http.MethodPatch, "/api/v1/draft/lines/A1", map[string]any{"quantity": 7})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d = decode[domain.Draft](t, resp)
	assert.Equal(t, 7, d.Lines[0].Quantity)

	resp = env.do(t, http.MethodDelete, "/api/v1/draft/lines/A1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d = decode[domain.Draft](t, resp)
	assert.Empty(t, d.Lines)
}

func TestDraftEndpoints_RejectOversizedClientName(t *testing.T) {
	env := newTestEnv(t)

	long := make([]byte, domain.MaxClientNameLen+1)
	for i := range long {
		long[i] = 'x'
	}

	resp := env.do(t, http.MethodPut, "/api/v1/draft/client", map[string]string{"clientName": string(long)})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitEndpoint_OfflineMapsTo503(t *testing.T) {
	env := newTestEnv(t)
	env.monitor.SetOnline(false)

	ctx := context.Background()
	require.NoError(t, env.drafts.AddLine(ctx, domain.ArticleRef{ArticleID: "A1"}, 5))
	require.NoError(t, env.drafts.SetClientName(ctx, "Acme"))

	resp := env.do(t, http.MethodPost, "/api/v1/draft/submit", map[string]string{"mode": "send_now"})
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	errResp := decode[ErrorResponse](t, resp)
	assert.Equal(t, "offline", errResp.Code)
}

func TestSubmitEndpoint_InvalidDraftMapsTo400(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/draft/submit", map[string]string{"mode": "send_now"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decode[ErrorResponse](t, resp)
	assert.Equal(t, "invalid_draft", errResp.Code)
}

func TestSubmitThenOrders_SaveLocalShowsPending(t *testing.T) {
	env := newTestEnv(t)

	ctx := context.Background()
	require.NoError(t, env.drafts.AddLine(ctx, domain.ArticleRef{ArticleID: "A1", UnitPrice: 2}, 5))
	require.NoError(t, env.drafts.SetClientName(ctx, "Acme"))

	resp := env.do(t, http.MethodPost, "/api/v1/draft/submit", map[string]string{"mode": "save_local"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	result := decode[submit.Result](t, resp)
	assert.True(t, result.Queued)

	resp = env.do(t, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	orders := decode[[]domain.Order](t, resp)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusPending, orders[0].Status)
	assert.Equal(t, result.LocalID, orders[0].ID)

	resp = env.do(t, http.MethodPost, "/api/v1/orders/pending/send-all", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[reconcile.Summary](t, resp)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
}

func TestSendAllEndpoint_NothingPendingMapsTo400(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/orders/pending/send-all", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decode[ErrorResponse](t, resp)
	assert.Equal(t, "no_pending", errResp.Code)
}

func TestLifecycleSuspend_TakesSnapshot(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/draft/snapshot", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, env.drafts.SetClientName(context.Background(), "Acme"))

	resp = env.do(t, http.MethodPost, "/api/v1/lifecycle/suspend", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/draft/snapshot", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[domain.DraftSnapshot](t, resp)
	assert.Equal(t, "Acme", snap.Draft.ClientName)
}

func TestConnectivityEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPut, "/api/v1/connectivity", map[string]bool{"online": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[map[string]bool](t, resp)
	assert.False(t, state["online"])
	assert.False(t, env.monitor.Online())
}

func TestCatalogEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/catalog?description=flo&limit=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[backend.CatalogPage](t, resp)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "A1", page.Items[0].ID)
}

func TestLoginEndpoint_BackendRejectionPassesStatusThrough(t *testing.T) {
	env := newTestEnv(t)
	env.remote.loginErr = &backend.Failure{Kind: backend.FailureRejected, Message: "invalid credentials", Status: 401}

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "ana@acme.test", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	errResp := decode[ErrorResponse](t, resp)
	assert.Equal(t, "backend_rejected", errResp.Code)
	assert.Equal(t, "invalid credentials", errResp.Error)
}
