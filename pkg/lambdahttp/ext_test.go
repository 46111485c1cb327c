package lambdahttp

import (
	"net/url"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	Item     string `json:"item" form:"item" validate:"required"`
	Quantity int    `json:"quantity" form:"quantity" validate:"gte=1"`
}

func requestWithBody(t *testing.T, contentType, body string) *Request {
	t.Helper()
	req, err := NewRequest("POST", "/orders", []byte(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func TestPayload(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantOK      bool
		want        order
	}{
		{
			name:        "JSON",
			contentType: "application/json; charset=utf-8",
			body:        `{"item":"book","quantity":2}`,
			wantOK:      true,
			want:        order{Item: "book", Quantity: 2},
		},
		{
			name:        "form",
			contentType: "application/x-www-form-urlencoded",
			body:        "item=pen+drive&quantity=3&unknown=1",
			wantOK:      true,
			want:        order{Item: "pen drive", Quantity: 3},
		},
		{name: "empty body", contentType: "application/json"},
		{name: "no content type", body: `{"item":"book"}`},
		{name: "unsupported content type", contentType: "text/plain", body: "book"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got order
			ok, err := requestWithBody(t, tt.contentType, tt.body).Payload(&got)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayload_Errors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"invalid JSON", "application/json", `{"item":`},
		{"wrong JSON type", "application/json", `{"quantity":"many"}`},
		{"invalid form value", "application/x-www-form-urlencoded", "quantity=many"},
		{"invalid form encoding", "application/x-www-form-urlencoded", "item=%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got order
			ok, err := requestWithBody(t, tt.contentType, tt.body).Payload(&got)
			assert.False(t, ok)

			var payloadErr *PayloadError
			require.ErrorAs(t, err, &payloadErr)
			assert.Equal(t, tt.contentType, payloadErr.ContentType)
			assert.Contains(t, err.Error(), "decode "+tt.contentType+" payload")
		})
	}
}

func TestValidPayload(t *testing.T) {
	var valid order
	ok, err := requestWithBody(t, "application/json", `{"item":"book","quantity":1}`).ValidPayload(&valid)
	require.NoError(t, err)
	assert.True(t, ok)

	var invalid order
	ok, err = requestWithBody(t, "application/json", `{"quantity":0}`).ValidPayload(&invalid)
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid payload")

	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	assert.Len(t, validationErrs, 2)

	var empty order
	ok, err = requestWithBody(t, "application/json", "").ValidPayload(&empty)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParams(t *testing.T) {
	p := Params{values: url.Values{"b": {"2"}, "a": {"1", "3"}}}

	first, ok := p.First("a")
	require.True(t, ok)
	assert.Equal(t, "1", first)

	_, ok = p.First("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"1", "3"}, p.All("a"))
	assert.Nil(t, p.All("missing"))
	assert.True(t, p.Has("b"))
	assert.False(t, p.Has("missing"))
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []string{"a", "b"}, p.Names())

	values := p.Values()
	values["a"][0] = "changed"
	assert.Equal(t, []string{"1", "3"}, p.All("a"))

	all := p.All("a")
	all[0] = "changed"
	first, _ = p.First("a")
	assert.Equal(t, "1", first)
}

func TestParams_Empty(t *testing.T) {
	req := &Request{}

	assert.Equal(t, 0, req.QueryStringParameters().Len())
	assert.Equal(t, 0, req.PathParameters().Len())
	assert.Empty(t, req.StageVariables().Names())
}
