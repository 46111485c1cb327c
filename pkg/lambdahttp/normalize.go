package lambdahttp

import (
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"
)

// parts is what every envelope boils down to before it becomes a Request.
type parts struct {
	method         string
	path           string
	domainName     string
	query          url.Values
	header         http.Header
	pathParameters map[string]string
	stageVariables map[string]string
}

// Normalize turns a trigger envelope into a canonical Request and attaches the origin,
// the execution context and the reply metadata to it. It fails with an *origin.ParseError
// when the envelope is structurally invalid.
func Normalize(env origin.Envelope, lc LambdaContext) (*Request, error) {
	var p parts
	switch e := env.(type) {
	case *origin.ALBRequest:
		if e == nil {
			return nil, &origin.ParseError{Origin: origin.ALB, Err: origin.ErrUnknownShape}
		}
		p = albParts(e)
	case *origin.RESTRequest:
		if e == nil {
			return nil, &origin.ParseError{Origin: origin.APIGatewayV1, Err: origin.ErrUnknownShape}
		}
		p = restParts(e)
	case *origin.HTTPRequest:
		if e == nil {
			return nil, &origin.ParseError{Origin: origin.APIGatewayV2, Err: origin.ErrUnknownShape}
		}
		p = httpParts(e)
	case *origin.WebSocketRequest:
		if e == nil {
			return nil, &origin.ParseError{Origin: origin.WebSocket, Err: origin.ErrUnknownShape}
		}
		p = webSocketParts(e)
	default:
		return nil, &origin.ParseError{Err: origin.ErrUnknownShape}
	}

	body, err := env.DecodedBody()
	if err != nil {
		return nil, err
	}

	return &Request{
		Method: p.method,
		URL:    buildURL(p),
		Header: p.header,
		Body:   body,
		invocation: Invocation{
			Origin:         env.Origin(),
			Lambda:         lc,
			Reply:          env.Metadata(),
			pathParameters: maps.Clone(p.pathParameters),
			stageVariables: maps.Clone(p.stageVariables),
		},
	}, nil
}

func albParts(e *origin.ALBRequest) parts {
	// ALB forwards query strings exactly as the client sent them, still percent-encoded.
	query := url.Values{}
	merged := mergeValues(e.QueryStringParameters, e.MultiValueQueryStringParameters)
	for _, key := range slices.Sorted(maps.Keys(merged)) {
		k := queryUnescape(key)
		for _, v := range merged[key] {
			query[k] = append(query[k], queryUnescape(v))
		}
	}

	return parts{
		method: e.HTTPMethod,
		path:   e.Path,
		query:  query,
		header: headerFrom(mergeValues(e.Headers, e.MultiValueHeaders)),
	}
}

func restParts(e *origin.RESTRequest) parts {
	return parts{
		method:         e.HTTPMethod,
		path:           e.Path,
		domainName:     e.RequestContext.DomainName,
		query:          url.Values(mergeValues(e.QueryStringParameters, e.MultiValueQueryStringParameters)),
		header:         headerFrom(mergeValues(e.Headers, e.MultiValueHeaders)),
		pathParameters: e.PathParameters,
		stageVariables: e.StageVariables,
	}
}

func httpParts(e *origin.HTTPRequest) parts {
	// rawQueryString keeps repeated keys that queryStringParameters joins with commas.
	query, err := url.ParseQuery(e.RawQueryString)
	if err != nil || (e.RawQueryString == "" && len(e.QueryStringParameters) > 0) {
		query = url.Values(mergeValues(e.QueryStringParameters, nil))
	}

	header := headerFrom(mergeValues(e.Headers, nil))
	if len(e.Cookies) > 0 {
		header.Set("Cookie", strings.Join(e.Cookies, "; "))
	}

	path := e.RawPath
	if path == "" {
		path = e.RequestContext.HTTP.Path
	}

	return parts{
		method:         e.RequestContext.HTTP.Method,
		path:           path,
		domainName:     e.RequestContext.DomainName,
		query:          query,
		header:         header,
		pathParameters: e.PathParameters,
		stageVariables: e.StageVariables,
	}
}

func webSocketParts(e *origin.WebSocketRequest) parts {
	method := e.HTTPMethod
	if method == "" {
		method = e.RequestContext.HTTPMethod
	}
	if method == "" {
		// MESSAGE events carry no method
		method = http.MethodGet
	}

	return parts{
		method:         method,
		path:           e.Path,
		domainName:     e.RequestContext.DomainName,
		query:          url.Values(mergeValues(e.QueryStringParameters, e.MultiValueQueryStringParameters)),
		header:         headerFrom(mergeValues(e.Headers, nil)),
		pathParameters: e.PathParameters,
		stageVariables: e.StageVariables,
	}
}

// mergeValues combines the single- and multi-value forms of the same collection.
// A key present in the multi-value form takes all its values from there.
func mergeValues(single map[string]string, multi map[string][]string) map[string][]string {
	merged := make(map[string][]string, len(single)+len(multi))
	for key, values := range multi {
		merged[key] = slices.Clone(values)
	}
	for key, value := range single {
		if _, ok := multi[key]; !ok {
			merged[key] = []string{value}
		}
	}

	return merged
}

// headerFrom canonicalizes keys in sorted order so that keys differing only in case
// merge their values deterministically.
func headerFrom(values map[string][]string) http.Header {
	header := make(http.Header, len(values))
	for _, key := range slices.Sorted(maps.Keys(values)) {
		for _, value := range values[key] {
			header.Add(key, value)
		}
	}

	return header
}

func queryUnescape(s string) string {
	if unescaped, err := url.QueryUnescape(s); err == nil {
		return unescaped
	}
	return s
}

func buildURL(p parts) *url.URL {
	rawPath := p.path
	if rawPath == "" {
		rawPath = "/"
	}

	u := &url.URL{
		Scheme:   "https",
		Host:     p.header.Get("Host"),
		Path:     rawPath,
		RawQuery: p.query.Encode(),
	}
	if decoded, err := url.PathUnescape(rawPath); err == nil && decoded != rawPath {
		u.Path = decoded
		u.RawPath = rawPath
	}
	if u.Host == "" {
		u.Host = p.domainName
	}
	if proto := p.header.Get("X-Forwarded-Proto"); proto != "" {
		u.Scheme = proto
	}

	return u
}
