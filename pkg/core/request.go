package core

import "maps"

// Params is a free-form parameter bag passed to request builders.
type Params map[string]any

// Request is a transport-agnostic description of one exchange call.
// Public calls carry a path with the market id already substituted in;
// private calls carry the form fields that will be nonce-stamped,
// encoded and signed just before sending.
type Request struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Query       Params            `json:"query,omitempty"`
	Form        map[string]string `json:"form,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Weight      int               `json:"weight"`
	RequireAuth bool              `json:"require_auth"`
}

func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Query:   make(Params),
		Headers: make(map[string]string),
		Weight:  1,
	}
}

func (r *Request) SetQuery(key string, value any) *Request {
	if r.Query == nil {
		r.Query = make(Params)
	}
	r.Query[key] = value
	return r
}

func (r *Request) SetForm(key, value string) *Request {
	if r.Form == nil {
		r.Form = make(map[string]string)
	}
	r.Form[key] = value
	return r
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetWeight(weight int) *Request {
	r.Weight = weight
	return r
}

func (r *Request) SetRequireAuth(require bool) *Request {
	r.RequireAuth = require
	return r
}

func (r *Request) SetQueryParams(params Params) *Request {
	if r.Query == nil {
		r.Query = make(Params)
	}
	maps.Copy(r.Query, params)
	return r
}
