package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/tna-backend/pkg/errors"
)

type acceptBody struct {
	Assignee string `json:"assignee" validate:"required,notblank,max=10"`
	Kind     string `json:"kind" validate:"omitempty,oneof=cad fabric sample"`
}

func TestDecodeJSONBody(t *testing.T) {
	var body acceptBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"assignee":"Alice","kind":"cad"}`))
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "Alice", body.Assignee)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"assignee":"","kind":"shipment"}`))
	err := DecodeJSONBody(req, &body)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["assignee"])
	assert.Equal(t, "must be one of [cad fabric sample]", details["kind"])

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"assignee":"A","extra":1}`))
	assert.True(t, pkgerrors.Is(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyRejectsBlankTrailingAndOversized(t *testing.T) {
	var body acceptBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"assignee":"   "}`))
	err := DecodeJSONBody(req, &body)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, "must not be blank", pkgerrors.As(err).Details().(map[string]string)["assignee"])

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"assignee":"A"} {"assignee":"B"}`))
	err = DecodeJSONBody(req, &body)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "single JSON object")

	huge := `{"assignee":"` + strings.Repeat("x", int(MaxBodyBytes)) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
	err = DecodeJSONBody(req, &body)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, "request body too large", pkgerrors.As(err).Message())
}

func TestDecodeOptionalJSONBodyAcceptsMissingBody(t *testing.T) {
	var body acceptBody
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	require.NoError(t, DecodeOptionalJSONBody(req, &body))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"assignee":"Bo"}`))
	require.NoError(t, DecodeOptionalJSONBody(req, &body))
	assert.Equal(t, "Bo", body.Assignee)
}

func TestParseQueryHelpers(t *testing.T) {
	owner := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=10&from=2024-01-05&owner_id="+owner.String(), nil)

	limit, err := ParseQueryInt(req, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, limit)

	from, err := ParseQueryDate(req, "from")
	require.NoError(t, err)
	require.NotNil(t, from)
	assert.True(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC).Equal(*from))

	to, err := ParseQueryDate(req, "to")
	require.NoError(t, err)
	assert.Nil(t, to)

	id, err := ParseQueryUUID(req, "owner_id")
	require.NoError(t, err)
	assert.Equal(t, owner, *id)

	bad := httptest.NewRequest(http.MethodGet, "/?limit=1000&from=yesterday&owner_id=x", nil)
	_, err = ParseQueryInt(bad, "limit", 25, 1, 100)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = ParseQueryDate(bad, "from")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = ParseQueryUUID(bad, "owner_id")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", id.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := ParseUUIDParam(req, "orderId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUIDParam(req, "stageId")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestParseQuerySearch(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?q=++polo+%0A+shirt++", nil)
	assert.Equal(t, "polo shirt", ParseQuerySearch(r, "q", 0))
	assert.Equal(t, "polo", ParseQuerySearch(r, "q", 5))

	r = httptest.NewRequest(http.MethodGet, "/?q=%C3%A9t%C3%A9", nil)
	assert.Equal(t, "ét", ParseQuerySearch(r, "q", 2))
	assert.Empty(t, ParseQuerySearch(r, "missing", 10))
}
