// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"testing"

	"github.com/okgraph/okgraph/internal/schema"
)

// Registry returns the entity schemas used across package tests: a User
// with a renamed remote pk and a reference to Group, and a timeline-ordered
// Post. Mirrors the shapes the remote social-graph API actually returns.
func Registry(t *testing.T) *schema.Registry {
	t.Helper()

	reg, err := schema.NewRegistry(
		&schema.EntitySpec{
			Name:             "Group",
			Methods:          map[string]string{"get": "getInfo"},
			MethodsNamespace: "group",
			SlugPrefix:       "group",
			ResolveType:      "GROUP",
			Fields: map[string]schema.FieldSpec{
				"id":   {Name: "id", Type: schema.TypeInteger},
				"name": {Name: "name", Type: schema.TypeText},
			},
		},
		&schema.EntitySpec{
			Name:             "User",
			RemotePKField:    "uid",
			Methods:          map[string]string{"get": "getInfo"},
			MethodsNamespace: "users",
			SlugPrefix:       "profile",
			ResolveType:      "USER",
			Fields: map[string]schema.FieldSpec{
				"id":         {Name: "id", Type: schema.TypeInteger},
				"name":       {Name: "name", Type: schema.TypeText},
				"city":       {Name: "city", Type: schema.TypeText},
				"registered": {Name: "registered", Type: schema.TypeDateTime},
				"group":      {Name: "group", Type: schema.TypeReference, RefEntity: "Group"},
			},
		},
		&schema.EntitySpec{
			Name:    "Post",
			Methods: map[string]string{"get": "stream.get"},
			Fields: map[string]schema.FieldSpec{
				"id":      {Name: "id", Type: schema.TypeInteger},
				"owner":   {Name: "owner", Type: schema.TypeReference, RefEntity: "User"},
				"date":    {Name: "date", Type: schema.TypeDateTime},
				"fetched": {Name: "fetched", Type: schema.TypeDateTime},
				"text":    {Name: "text", Type: schema.TypeText},
				"likes":   {Name: "likes", Type: schema.TypeInteger},
				"tags":    {Name: "tags", Type: schema.TypeScalarList},
			},
		},
	)
	if err != nil {
		t.Fatalf("test registry: %v", err)
	}
	return reg
}
