package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tna-backend/api/middleware"
	internalorders "github.com/angelmondragon/tna-backend/internal/orders"
	"github.com/angelmondragon/tna-backend/pkg/db/models"
	"github.com/angelmondragon/tna-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tna-backend/pkg/errors"
	"github.com/angelmondragon/tna-backend/pkg/pagination"
)

type stubOrdersService struct {
	create       func(ctx context.Context, input internalorders.CreateInput) (*internalorders.Detail, error)
	detail       func(ctx context.Context, orderID uuid.UUID) (*internalorders.Detail, error)
	list         func(ctx context.Context, filter internalorders.Filter, params pagination.Params) (*internalorders.OrderList, error)
	updateStatus func(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*internalorders.OrderView, error)
}

func (s *stubOrdersService) Create(ctx context.Context, input internalorders.CreateInput) (*internalorders.Detail, error) {
	if s.create != nil {
		return s.create(ctx, input)
	}
	return &internalorders.Detail{}, nil
}

func (s *stubOrdersService) Detail(ctx context.Context, orderID uuid.UUID) (*internalorders.Detail, error) {
	if s.detail != nil {
		return s.detail(ctx, orderID)
	}
	return &internalorders.Detail{}, nil
}

func (s *stubOrdersService) List(ctx context.Context, filter internalorders.Filter, params pagination.Params) (*internalorders.OrderList, error) {
	if s.list != nil {
		return s.list(ctx, filter, params)
	}
	return &internalorders.OrderList{}, nil
}

func (s *stubOrdersService) ListInScope(context.Context, internalorders.Filter) ([]models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*internalorders.OrderView, error) {
	if s.updateStatus != nil {
		return s.updateStatus(ctx, orderID, status)
	}
	return &internalorders.OrderView{ID: orderID, Status: status}, nil
}

func (s *stubOrdersService) Delete(context.Context, uuid.UUID) error {
	return nil
}

func withOrderID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error.Code
}

func TestCreatePassesOwnerAndParsedDates(t *testing.T) {
	owner := uuid.New()
	var got internalorders.CreateInput
	svc := &stubOrdersService{
		create: func(_ context.Context, input internalorders.CreateInput) (*internalorders.Detail, error) {
			got = input
			return &internalorders.Detail{}, nil
		},
	}

	body := `{"style_code":"ST-1","item_name":"Polo","buyer_name":"ACME","order_date":"2024-01-01","sample_sending_date":"2024-01-20T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), owner))
	rec := httptest.NewRecorder()

	Create(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, owner, got.OwnerID)
	assert.Equal(t, "ST-1", got.StyleCode)
	require.NotNil(t, got.BuyerName)
	assert.Equal(t, "ACME", *got.BuyerName)
	assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(got.OrderDate))
	assert.True(t, time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC).Equal(got.SampleSendingDate))
}

func TestCreateRejectsBadInput(t *testing.T) {
	owner := uuid.New()
	cases := map[string]string{
		"missing style":  `{"item_name":"Polo","order_date":"2024-01-01","sample_sending_date":"2024-01-20"}`,
		"bad date":       `{"style_code":"ST-1","item_name":"Polo","order_date":"01/02/2024","sample_sending_date":"2024-01-20"}`,
		"unknown field":  `{"style_code":"ST-1","item_name":"Polo","order_date":"2024-01-01","sample_sending_date":"2024-01-20","price":3}`,
		"malformed json": `{"style_code":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubOrdersService{
				create: func(context.Context, internalorders.CreateInput) (*internalorders.Detail, error) {
					t.Fatal("service must not be called")
					return nil, nil
				},
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
			req = req.WithContext(middleware.WithUserID(req.Context(), owner))
			rec := httptest.NewRecorder()

			Create(svc, nil).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_ERROR", decodeErrorCode(t, rec))
		})
	}
}

func TestCreateWithoutIdentityIsUnauthorized(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	Create(&stubOrdersService{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListForwardsFilterAndPaging(t *testing.T) {
	owner := uuid.New()
	var (
		gotFilter internalorders.Filter
		gotParams pagination.Params
	)
	svc := &stubOrdersService{
		list: func(_ context.Context, filter internalorders.Filter, params pagination.Params) (*internalorders.OrderList, error) {
			gotFilter, gotParams = filter, params
			return &internalorders.OrderList{NextCursor: "next"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?owner_id="+owner.String()+"&from=2024-01-01&to=2024-01-31&q=+tee+&limit=5&cursor=abc", nil)
	rec := httptest.NewRecorder()

	List(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotFilter.OwnerID)
	assert.Equal(t, owner, *gotFilter.OwnerID)
	require.NotNil(t, gotFilter.DateFrom)
	require.NotNil(t, gotFilter.DateTo)
	assert.Equal(t, "tee", gotFilter.Query)
	assert.Equal(t, pagination.Params{Limit: 5, Cursor: "abc"}, gotParams)
	assert.Contains(t, rec.Body.String(), `"next_cursor":"next"`)
}

func TestParseFilterRejectsInvertedRange(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?from=2024-02-01&to=2024-01-01", nil)
	_, err := ParseFilter(req)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	req = httptest.NewRequest(http.MethodGet, "/?owner_id=nope", nil)
	_, err = ParseFilter(req)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	req = httptest.NewRequest(http.MethodGet, "/?from=2024-01-01&to=2024-01-01", nil)
	filter, err := ParseFilter(req)
	require.NoError(t, err)
	assert.Nil(t, filter.OwnerID)
}

func TestDetailMapsServiceErrors(t *testing.T) {
	svc := &stubOrdersService{
		detail: func(context.Context, uuid.UUID) (*internalorders.Detail, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}

	req := withOrderID(httptest.NewRequest(http.MethodGet, "/", nil), uuid.NewString())
	rec := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeErrorCode(t, rec))

	req = withOrderID(httptest.NewRequest(http.MethodGet, "/", nil), "not-a-uuid")
	rec = httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatusValidatesValue(t *testing.T) {
	orderID := uuid.New()
	var got enums.OrderStatus
	svc := &stubOrdersService{
		updateStatus: func(_ context.Context, id uuid.UUID, status enums.OrderStatus) (*internalorders.OrderView, error) {
			got = status
			return &internalorders.OrderView{ID: id, Status: status}, nil
		},
	}

	req := withOrderID(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"inactive"}`)), orderID.String())
	rec := httptest.NewRecorder()
	UpdateStatus(svc, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, enums.OrderStatusInactive, got)

	req = withOrderID(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"done"}`)), orderID.String())
	rec = httptest.NewRecorder()
	UpdateStatus(svc, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNilServiceIsInternalError(t *testing.T) {
	rec := httptest.NewRecorder()
	Detail(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
