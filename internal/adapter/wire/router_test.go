package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   Operation
	}{
		{"POST", "/users/", OpCreate},
		{"POST", "/users/ignored", OpCreate},
		{"POST", "/users", OpNotFound},
		{"GET", "/users/42", OpReadOne},
		{"GET", "/users/abc", OpReadOne},
		{"GET", "/users", OpReadAll},
		{"GET", "/users/", OpReadAll},
		{"GET", "/users?page=2", OpReadAll},
		{"GET", "/users/?page=2", OpReadAll},
		{"GET", "/usersXYZ", OpNotFound},
		{"GET", "/user", OpNotFound},
		{"PUT", "/users/3", OpUpdate},
		{"PUT", "/users", OpNotFound},
		{"DELETE", "/users/3", OpDelete},
		{"DELETE", "/users", OpNotFound},
		{"PATCH", "/users/3", OpNotFound},
		{"get", "/users", OpNotFound},
		{"", "", OpNotFound},
		{"GET", "/", OpNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.method, tt.path))
		})
	}
}

func TestRoutes_ReadOneBeforeReadAll(t *testing.T) {
	var readOne, readAll int
	for i, r := range Routes {
		switch r.Operation {
		case OpReadOne:
			readOne = i
		case OpReadAll:
			readAll = i
		}
	}
	assert.Less(t, readOne, readAll)
}

func TestIDSegment(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/users/42", "42"},
		{"/users/42/extra", "42"},
		{"/users/42?x=1", "42?x=1"},
		{"/users/", ""},
		{"/users", ""},
		{"", ""},
		{"/users/abc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IDSegment(tt.path))
		})
	}
}
