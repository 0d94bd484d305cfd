package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"campus-canteen/metrics"
	"campus-canteen/models"
	"campus-canteen/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router  *gin.Engine
	session string
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	catalog := services.NewCatalogHolder(services.NewCatalog([]models.MenuItem{
		{ID: "a", Name: "Idli", Price: 40, Category: "Breakfast", Cuisine: "South Indian", IsVegetarian: true, IsAvailable: true},
		{ID: "b", Name: "Chicken Curry", Price: 180, Category: "Main Course", Cuisine: "Indian", IsVegetarian: false, IsAvailable: true},
		{ID: "c", Name: "Paneer Tikka", Price: 160, Category: "Appetizer", Cuisine: "Indian", IsVegetarian: true, IsAvailable: false},
	}))
	rec := metrics.NewRecorder()
	sessions := services.NewSessionManager(500, services.WithObserver(rec))
	r := NewRouter(NewHandler(catalog, sessions, 500), rec.Registry)

	ts := &testServer{router: r}
	w := ts.do(t, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.SessionID)
	ts.session = created.SessionID
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ts.session != "" {
		req.Header.Set(sessionHeader, ts.session)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeCart(t *testing.T, w *httptest.ResponseRecorder) cartResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp cartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMenuVegFilter(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/menu?dietary=veg&category=all&cuisine=all&max_price=500", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []menuRow `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "a", resp.Items[0].ID)
}

func TestMenuRowsCarryCartState(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/cart/items/b", nil)
	ts.do(t, http.MethodPost, "/favorites/b", nil)

	w := ts.do(t, http.MethodGet, "/menu", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Items []menuRow `json:"items"`
		Cart  struct {
			ItemCount int   `json:"itemCount"`
			Total     int64 `json:"total"`
		} `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, 0, resp.Items[0].Quantity)
	assert.Equal(t, 1, resp.Items[1].Quantity)
	assert.True(t, resp.Items[1].Favorite)
	assert.Equal(t, 1, resp.Cart.ItemCount)
	assert.Equal(t, int64(180), resp.Cart.Total)
}

func TestMenuFiltersStickToSession(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/menu?search=CURRY", nil)

	w := ts.do(t, http.MethodGet, "/menu", nil)
	var resp struct {
		Items   []menuRow          `json:"items"`
		Filters models.FilterState `json:"filters"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "b", resp.Items[0].ID)
	assert.Equal(t, "CURRY", resp.Filters.Search)
}

func TestMenuOptions(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/menu/options", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Categories []string `json:"categories"`
		Cuisines   []string `json:"cuisines"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"all", "Breakfast", "Main Course", "Appetizer"}, resp.Categories)
	assert.Equal(t, []string{"all", "South Indian", "Indian"}, resp.Cuisines)
}

func TestCartFlow(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodPost, "/cart/items/a", nil)
	resp := decodeCart(t, ts.do(t, http.MethodPost, "/cart/items/a", nil))
	assert.Equal(t, int64(80), resp.Total)

	resp = decodeCart(t, ts.do(t, http.MethodDelete, "/cart/items/a", nil))
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, 1, resp.Lines[0].Quantity)
	assert.Equal(t, int64(40), resp.Total)

	resp = decodeCart(t, ts.do(t, http.MethodPut, "/cart/items/b", gin.H{"quantity": 3}))
	assert.Equal(t, int64(40+540), resp.Total)
	assert.Equal(t, 4, resp.ItemCount)

	resp = decodeCart(t, ts.do(t, http.MethodPut, "/cart/items/b", gin.H{"quantity": 0}))
	require.Len(t, resp.Lines, 1)

	resp = decodeCart(t, ts.do(t, http.MethodDelete, "/cart/items/zzz", nil))
	require.Len(t, resp.Lines, 1)

	resp = decodeCart(t, ts.do(t, http.MethodDelete, "/cart", nil))
	assert.Empty(t, resp.Lines)
	assert.Equal(t, int64(0), resp.Total)
}

func TestSetQuantityRejectsFractions(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPut, "/cart/items/a", gin.H{"quantity": 1.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPut, "/cart/items/a", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFavoritesToggle(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/favorites/a", nil)
	assert.JSONEq(t, `{"id":"a","favorite":true}`, w.Body.String())
	w = ts.do(t, http.MethodGet, "/favorites", nil)
	assert.JSONEq(t, `{"favorites":["a"]}`, w.Body.String())

	w = ts.do(t, http.MethodPost, "/favorites/a", nil)
	assert.JSONEq(t, `{"id":"a","favorite":false}`, w.Body.String())
	w = ts.do(t, http.MethodGet, "/favorites", nil)
	assert.JSONEq(t, `{"favorites":[]}`, w.Body.String())
}

func TestSessionRequired(t *testing.T) {
	ts := newTestServer(t)

	ts.session = ""
	w := ts.do(t, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.session = "nope"
	w = ts.do(t, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndSession(t *testing.T) {
	ts := newTestServer(t)
	id := ts.session

	w := ts.do(t, http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/cart/items/a", nil)

	w := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `canteen_store_events_total{kind="cart_added"} 1`)
	assert.Contains(t, w.Body.String(), "canteen_open_sessions 1")
}
