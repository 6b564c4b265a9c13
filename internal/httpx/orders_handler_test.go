package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

// stubOrders returns canned results and records the last call.
type stubOrders struct {
	order     *shop.Order
	err       error
	lastActor shop.Actor
	lastItems []shop.ItemInput
	lastTotal float64
	lastID    string
	lastFilt  shop.OrderFilter
}

func (s *stubOrders) PlaceOrder(ctx context.Context, actor shop.Actor, items []shop.ItemInput, total float64) (*shop.Order, error) {
	s.lastActor, s.lastItems, s.lastTotal = actor, items, total
	return s.order, s.err
}

func (s *stubOrders) UpdateOrderStatus(ctx context.Context, actor shop.Actor, id string, target shop.Status) (*shop.Order, error) {
	s.lastActor, s.lastID = actor, id
	return s.order, s.err
}

func (s *stubOrders) CancelOrder(ctx context.Context, actor shop.Actor, id string) (*shop.Order, error) {
	s.lastActor, s.lastID = actor, id
	return s.order, s.err
}

func (s *stubOrders) DeleteOrder(ctx context.Context, actor shop.Actor, id string) (*shop.Order, error) {
	s.lastActor, s.lastID = actor, id
	return s.order, s.err
}

func (s *stubOrders) GetOrder(ctx context.Context, actor shop.Actor, id string) (*shop.Order, error) {
	s.lastActor, s.lastID = actor, id
	return s.order, s.err
}

func (s *stubOrders) ListOrders(ctx context.Context, actor shop.Actor, f shop.OrderFilter) ([]shop.Order, error) {
	s.lastActor, s.lastFilt = actor, f
	if s.err != nil {
		return nil, s.err
	}
	return []shop.Order{*s.order}, nil
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newOrdersServer(stub *stubOrders) *httptest.Server {
	r := NewRouter()
	(&OrdersHandler{Svc: stub, Log: quietLog()}).Register(r)
	return httptest.NewServer(r)
}

func doReq(t *testing.T, method, url, body, userID string, role shop.Role) *http.Response {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
		req.Header.Set("X-User-Role", string(role))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestPlaceOrderEndpoint(t *testing.T) {
	stub := &stubOrders{order: &shop.Order{ID: "o1", UserID: "u1", Status: shop.StatusPending, Total: 40}}
	srv := newOrdersServer(stub)
	defer srv.Close()

	body := `{"items":[{"product_id":"p1","qty":2}],"total":40}`
	resp := doReq(t, http.MethodPost, srv.URL+"/orders", body, "u1", shop.RoleCustomer)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "u1", stub.lastActor.UserID)
	assert.Equal(t, shop.RoleCustomer, stub.lastActor.Role)
	require.Len(t, stub.lastItems, 1)
	assert.Equal(t, 2, stub.lastItems[0].Qty)
	assert.Equal(t, 40.0, stub.lastTotal)

	var got shop.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "o1", got.ID)
}

func TestPlaceOrderRequiresIdentity(t *testing.T) {
	srv := newOrdersServer(&stubOrders{})
	defer srv.Close()

	resp := doReq(t, http.MethodPost, srv.URL+"/orders", `{}`, "", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPlaceOrderBadJSON(t *testing.T) {
	srv := newOrdersServer(&stubOrders{})
	defer srv.Close()

	resp := doReq(t, http.MethodPost, srv.URL+"/orders", `{not json`, "u1", shop.RoleCustomer)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		kind shop.Kind
		want int
	}{
		{shop.KindUnauthorized, http.StatusForbidden},
		{shop.KindBadRequest, http.StatusBadRequest},
		{shop.KindInvalidReference, http.StatusBadRequest},
		{shop.KindValueTooLong, http.StatusBadRequest},
		{shop.KindOrderNotFound, http.StatusNotFound},
		{shop.KindProductNotFound, http.StatusNotFound},
		{shop.KindNotFound, http.StatusNotFound},
		{shop.KindNotEnoughStock, http.StatusConflict},
		{shop.KindTotalPriceMismatch, http.StatusConflict},
		{shop.KindStorageUnavailable, http.StatusServiceUnavailable},
		{shop.KindStorageFailed, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			stub := &stubOrders{err: shop.E(tc.kind, "boom")}
			srv := newOrdersServer(stub)
			defer srv.Close()

			resp := doReq(t, http.MethodGet, srv.URL+"/orders/abc", "", "u1", shop.RoleCustomer)
			defer resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)

			var body struct {
				Error shop.Error `json:"error"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.kind, body.Error.Kind)
		})
	}
}

func TestCancelEndpoint(t *testing.T) {
	stub := &stubOrders{order: &shop.Order{ID: "o1", Status: shop.StatusCancelled}}
	srv := newOrdersServer(stub)
	defer srv.Close()

	resp := doReq(t, http.MethodPost, srv.URL+"/orders/o1/cancel", "", "u1", shop.RoleCustomer)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "o1", stub.lastID)

	var got shop.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, shop.StatusCancelled, got.Status)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	stub := &stubOrders{order: &shop.Order{ID: "o1", Status: shop.StatusShipped}}
	srv := newOrdersServer(stub)
	defer srv.Close()

	resp := doReq(t, http.MethodPatch, srv.URL+"/orders/o1", `{"status":"SHIPPED"}`, "a1", shop.RoleAdmin)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "o1", stub.lastID)
	assert.True(t, stub.lastActor.IsAdmin())
}

func TestListOrdersPassesFilter(t *testing.T) {
	stub := &stubOrders{order: &shop.Order{ID: "o1"}}
	srv := newOrdersServer(stub)
	defer srv.Close()

	resp := doReq(t, http.MethodGet,
		srv.URL+"/orders?status=PENDING&page=2&limit=10&sort_by=total&dir=asc",
		"", "u1", shop.RoleCustomer)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, shop.StatusPending, stub.lastFilt.Status)
	assert.Equal(t, 2, stub.lastFilt.Page.Page)
	assert.Equal(t, 10, stub.lastFilt.Limit)
	assert.Equal(t, "total", stub.lastFilt.SortBy)
	assert.Equal(t, shop.SortAsc, stub.lastFilt.Dir)
}

func TestUnknownRoleIsAnonymous(t *testing.T) {
	srv := newOrdersServer(&stubOrders{})
	defer srv.Close()

	resp := doReq(t, http.MethodGet, srv.URL+"/orders", "", "u1", shop.Role("ROOT"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(NewRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
