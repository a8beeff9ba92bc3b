package router

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

// Response is the output a handler produces. Host shims serialize it.
type Response struct {
	Status int
	Header http.Header
	body   bytes.Buffer
}

// NewResponse returns an empty 200 response.
func NewResponse() *Response {
	return &Response{Status: http.StatusOK, Header: make(http.Header)}
}

// Write appends p to the body.
func (r *Response) Write(p []byte) (int, error) {
	return r.body.Write(p)
}

// WriteString appends s to the body.
func (r *Response) WriteString(s string) (int, error) {
	return r.body.WriteString(s)
}

// Printf appends formatted text to the body.
func (r *Response) Printf(format string, args ...interface{}) {
	fmt.Fprintf(&r.body, format, args...)
}

// Body returns the body written so far.
func (r *Response) Body() []byte {
	return r.body.Bytes()
}

// Reset discards everything written.
func (r *Response) Reset() {
	r.Status = http.StatusOK
	r.Header = make(http.Header)
	r.body.Reset()
}

// Snapshot is the serializable form of a Response.
type Snapshot struct {
	Status int                 `msgpack:"s"`
	Header map[string][]string `msgpack:"h,omitempty"`
	Body   []byte              `msgpack:"b,omitempty"`
}

// Snapshot copies the current state.
func (r *Response) Snapshot() Snapshot {
	return Snapshot{
		Status: r.Status,
		Header: r.Header.Clone(),
		Body:   bytes.Clone(r.body.Bytes()),
	}
}

// Restore replaces the current state with s.
func (r *Response) Restore(s Snapshot) {
	r.Status = s.Status
	r.Header = http.Header(s.Header)
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.body.Reset()
	r.body.Write(s.Body)
}

// envelope is what a cached route stores: the outcome and the response.
type envelope struct {
	Productive bool     `msgpack:"p"`
	Response   Snapshot `msgpack:"r"`
}

func encodeEnvelope(outcome Outcome, resp *Response) ([]byte, error) {
	return msgpack.Marshal(envelope{Productive: outcome == Productive, Response: resp.Snapshot()})
}

func decodeEnvelope(data []byte) (Outcome, Snapshot, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return NotProductive, Snapshot{}, err
	}
	if env.Productive {
		return Productive, env.Response, nil
	}
	return NotProductive, env.Response, nil
}
