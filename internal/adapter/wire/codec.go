// Package wire speaks the service's HTTP-like text protocol: it decodes raw
// request bytes, routes them to a user operation and writes the response.
package wire

import (
	"bytes"
	"strconv"
	"strings"
)

// headerSeparator ends the request head; anything after it is the body.
var headerSeparator = []byte("\r\n\r\n")

// Status is one of the three status lines the protocol ever emits.
type Status int

const (
	StatusOK                  Status = 200
	StatusNotFound            Status = 404
	StatusInternalServerError Status = 500
)

// statusLine returns the response head for s, up to and including the blank line.
func (s Status) statusLine() string {
	switch s {
	case StatusOK:
		return "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n"
	case StatusNotFound:
		return "HTTP/1.1 404 NOT FOUND\r\n\r\n"
	default:
		return "HTTP/1.1 500 INTERNAL SERVER ERROR\r\n\r\n"
	}
}

// Request is the part of a raw request the router and operations care about.
type Request struct {
	Method string
	Path   string
	Body   string
}

// Decode splits buf at the first CRLFCRLF and pulls the method and path out of
// the first line. Malformed input yields empty fields, never an error.
func Decode(buf []byte) Request {
	head, body, _ := bytes.Cut(buf, headerSeparator)

	firstLine, _, _ := bytes.Cut(head, []byte("\n"))
	fields := strings.Fields(string(firstLine))

	var req Request
	if len(fields) > 0 {
		req.Method = fields[0]
	}
	if len(fields) > 1 {
		req.Path = fields[1]
	}
	req.Body = string(body)

	return req
}

// Encode renders a response: status line, optional content type, blank line, payload verbatim.
func Encode(status Status, payload string) []byte {
	line := status.statusLine()

	out := make([]byte, 0, len(line)+len(payload))
	out = append(out, line...)
	out = append(out, payload...)
	return out
}

// contentLength returns the Content-Length declared in head, if any.
func contentLength(head []byte) (int, bool) {
	for _, line := range bytes.Split(head, []byte("\r\n")) {
		name, value, ok := bytes.Cut(line, []byte(":"))
		if !ok || !strings.EqualFold(strings.TrimSpace(string(name)), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(string(value)))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
