package wire

import (
	"strings"
)

// Operation names a routed user operation.
type Operation string

const (
	OpCreate   Operation = "create"
	OpReadOne  Operation = "read_one"
	OpReadAll  Operation = "read_all"
	OpUpdate   Operation = "update"
	OpDelete   Operation = "delete"
	OpNotFound Operation = "not_found"
)

const (
	collectionPath = "/users"
	itemPrefix     = "/users/"
)

// MsgRouteNotFound is the payload for requests no rule matches.
const MsgRouteNotFound = "404 Not Found"

// Rule binds a method and a path matcher to an operation.
type Rule struct {
	Method    string
	Match     func(path string) bool
	Operation Operation
}

// Routes is evaluated top to bottom; the first match wins. ReadOne precedes
// ReadAll so that "/users/42" is never taken for the collection.
var Routes = []Rule{
	{Method: "POST", Match: hasItemPrefix, Operation: OpCreate},
	{Method: "GET", Match: hasItemSuffix, Operation: OpReadOne},
	{Method: "GET", Match: isCollection, Operation: OpReadAll},
	{Method: "PUT", Match: hasItemPrefix, Operation: OpUpdate},
	{Method: "DELETE", Match: hasItemPrefix, Operation: OpDelete},
}

// Route picks the operation for method and path.
func Route(method, path string) Operation {
	for _, r := range Routes {
		if r.Method == method && r.Match(path) {
			return r.Operation
		}
	}
	return OpNotFound
}

func hasItemPrefix(path string) bool {
	return strings.HasPrefix(path, itemPrefix)
}

func hasItemSuffix(path string) bool {
	return len(path) > len(itemPrefix) && hasItemPrefix(path) && path[len(itemPrefix)] != '?'
}

// isCollection accepts "/users" and "/users/", optionally followed by a query string.
func isCollection(path string) bool {
	rest, ok := strings.CutPrefix(path, collectionPath)
	if !ok {
		return false
	}
	rest = strings.TrimPrefix(rest, "/")
	return rest == "" || strings.HasPrefix(rest, "?")
}

// IDSegment returns the id text of a "/users/<id>" path: the third "/"-separated
// segment, cut at the first whitespace.
func IDSegment(path string) string {
	segments := strings.Split(path, "/")
	if len(segments) < 3 {
		return ""
	}
	fields := strings.Fields(segments[2])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
