package lambdahttp

import (
	"encoding/json"
	"fmt"
	"maps"
	"mime"
	"net/url"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

// Params is a read-only view over named, possibly repeated, string values such as
// query string or path parameters.
type Params struct {
	values map[string][]string
}

func paramsFromSingle(m map[string]string) Params {
	values := make(map[string][]string, len(m))
	for key, value := range m {
		values[key] = []string{value}
	}
	return Params{values: values}
}

// First returns the first value for name. When a name is repeated the first one wins.
func (p Params) First(name string) (string, bool) {
	values := p.values[name]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// All returns every value for name in the order they were received, or nil.
func (p Params) All(name string) []string {
	return slices.Clone(p.values[name])
}

// Has reports whether name is present.
func (p Params) Has(name string) bool {
	return len(p.values[name]) > 0
}

// Len returns the number of distinct names.
func (p Params) Len() int {
	return len(p.values)
}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	return slices.Sorted(maps.Keys(p.values))
}

// Values returns a copy of the parameters as url.Values.
func (p Params) Values() url.Values {
	values := make(url.Values, len(p.values))
	for key, vs := range p.values {
		values[key] = slices.Clone(vs)
	}
	return values
}

// QueryStringParameters returns the query string parameters of the request,
// whatever trigger delivered them.
func (r *Request) QueryStringParameters() Params {
	if r.URL == nil {
		return Params{}
	}
	return Params{values: r.URL.Query()}
}

// PathParameters returns the named path segments extracted by the API Gateway router.
// It is empty for triggers without a routing layer, such as ALB.
func (r *Request) PathParameters() Params {
	return paramsFromSingle(r.invocation.pathParameters)
}

// StageVariables returns the API Gateway stage variables, if any.
func (r *Request) StageVariables() Params {
	return paramsFromSingle(r.invocation.stageVariables)
}

// PayloadError reports a body that could not be decoded into the requested value.
type PayloadError struct {
	ContentType string
	Err         error
}

// Error implements the error interface.
func (e *PayloadError) Error() string {
	return fmt.Sprintf("decode %s payload: %v", e.ContentType, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *PayloadError) Unwrap() error {
	return e.Err
}

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Payload decodes the body into v according to the Content-Type header.
// JSON bodies use encoding/json; form bodies use `form` struct tags.
// It returns false without an error when the body is empty or the content type is
// neither JSON nor form-urlencoded.
func (r *Request) Payload(v any) (bool, error) {
	if len(r.Body) == 0 {
		return false, nil
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false, nil
	}

	switch mediaType {
	case contentTypeJSON:
		if err = json.Unmarshal(r.Body, v); err != nil {
			return false, &PayloadError{ContentType: mediaType, Err: err}
		}
	case contentTypeForm:
		values, parseErr := url.ParseQuery(string(r.Body))
		if parseErr != nil {
			return false, &PayloadError{ContentType: mediaType, Err: parseErr}
		}
		decoder := schema.NewDecoder()
		decoder.SetAliasTag("form")
		decoder.IgnoreUnknownKeys(true)
		if err = decoder.Decode(v, values); err != nil {
			return false, &PayloadError{ContentType: mediaType, Err: err}
		}
	default:
		return false, nil
	}

	return true, nil
}

var validate = validator.New()

// ValidPayload decodes the body like Payload and validates the result with its
// `validate` struct tags.
func (r *Request) ValidPayload(v any) (bool, error) {
	ok, err := r.Payload(v)
	if err != nil || !ok {
		return ok, err
	}
	if err = validate.Struct(v); err != nil {
		return false, fmt.Errorf("invalid payload: %w", err)
	}
	return true, nil
}
