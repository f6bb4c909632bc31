// Package httputil provides the response helpers shared by the HTTP API
// handlers.
//
// # Errors
//
// [WriteError] turns a coded error from pkg/errors into a JSON body and an
// HTTP status:
//
//   - 400: invalid requests (INVALID_*, UNSUPPORTED), including bodies
//     that hold no node tree at all
//   - 422: a node tree that is cut off or malformed (UNBALANCED_INPUT,
//     MALFORMED_INPUT)
//   - 413: bodies over the size limit
//   - 500: renderer and I/O failures, and uncoded errors
//
// Parse errors carry their input position:
//
//	{"code":"UNBALANCED_INPUT","message":"...","line":3,"column":14}
//
// # Requests
//
// [ReadBody] reads a request body up to a size limit and [BoolParam]
// parses boolean query parameters such as ?color=true.
package httputil
