package stream

import "github.com/grpchost/grpchost/internal/hpack"

// Request holds the pseudo-headers and regular headers decoded from a
// client's HEADERS block, split per spec.md §4.C / §4.F so the dispatch
// fabric never has to special-case ":"-prefixed names.
type Request struct {
	Method    string // :method
	Scheme    string // :scheme
	Path      string // :path
	Authority string // :authority

	Headers []hpack.HeaderField // regular headers, in wire order
}

// SplitPseudoHeaders partitions a decoded header block into pseudo-headers
// and the remaining regular headers (spec.md §4.F request validation
// reads Method/Path/content-type/te off the result).
func SplitPseudoHeaders(fields []hpack.HeaderField) Request {
	req := Request{Headers: make([]hpack.HeaderField, 0, len(fields))}
	for _, f := range fields {
		if !f.IsPseudo() {
			req.Headers = append(req.Headers, f)
			continue
		}
		switch f.Name {
		case ":method":
			req.Method = f.Value
		case ":scheme":
			req.Scheme = f.Value
		case ":path":
			req.Path = f.Value
		case ":authority":
			req.Authority = f.Value
		}
	}
	return req
}

// Header returns the first value for name among the regular headers, case
// sensitive (HPACK already lower-cases header names on the wire).
func (r Request) Header(name string) (string, bool) {
	for _, f := range r.Headers {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}
