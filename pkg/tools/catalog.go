// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package tools holds the static descriptors of the dependents tools as they
// are registered with the gateway.
package tools

import (
	"encoding/json"
	"fmt"
)

// Tool names understood by the proxy.
const (
	CreatePerson    = "create_person"
	ListPersons     = "list_persons"
	GetPerson       = "get_person"
	UpdatePerson    = "update_person"
	DeletePerson    = "delete_person"
	ListDependents  = "list_dependents"
	CreateDependent = "create_dependent"
	DeleteDependent = "delete_dependent"
)

// Descriptor is one tool as submitted to the gateway control plane.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
}

// Schema is the JSON Schema object describing a tool's arguments.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single argument.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// RawSchema renders the input schema as JSON.
func (d Descriptor) RawSchema() (json.RawMessage, error) {
	raw, err := json.Marshal(d.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("encode schema for %s: %w", d.Name, err)
	}
	return raw, nil
}

func str(desc string) Property  { return Property{Type: "string", Description: desc} }
func intg(desc string) Property { return Property{Type: "integer", Description: desc} }

func object(required []string, props map[string]Property) Schema {
	return Schema{Type: "object", Properties: props, Required: required}
}

var personFields = map[string]Property{
	"external_id":   str("Identifier of the person in the system of record"),
	"first_name":    str("First name"),
	"last_name":     str("Last name"),
	"date_of_birth": str("Date of birth (YYYY-MM-DD)"),
	"email":         str("Email address"),
	"phone":         str("Phone number"),
	"address":       str("Postal address"),
}

func withFields(base map[string]Property, extra map[string]Property) map[string]Property {
	out := make(map[string]Property, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Catalog returns the descriptors of every tool, in a fresh slice.
func Catalog() []Descriptor {
	return []Descriptor{
		{
			Name:        ListPersons,
			Description: "List all persons (primary users or dependents) with optional filtering by type, status, or primary user ID",
			InputSchema: object(nil, map[string]Property{
				"limit":           intg("Max results to return (default 100)"),
				"offset":          intg("Pagination offset (default 0)"),
				"type":            str("Filter by type: primary or dependent"),
				"status":          str("Filter by status: active or inactive"),
				"primary_user_id": str("Filter dependents of this user"),
			}),
		},
		{
			Name:        CreatePerson,
			Description: "Create a new person (primary user or dependent) in the system",
			InputSchema: object(
				[]string{"external_id", "first_name", "last_name", "date_of_birth", "email"},
				withFields(personFields, map[string]Property{
					"type": str("Person type: primary or dependent"),
				}),
			),
		},
		{
			Name:        GetPerson,
			Description: "Get detailed information about a specific person by their ID",
			InputSchema: object([]string{"person_id"}, map[string]Property{
				"person_id": str("The ID of the person to retrieve"),
			}),
		},
		{
			Name:        UpdatePerson,
			Description: "Update information for an existing person; omitted fields are left unchanged",
			InputSchema: object([]string{"person_id"}, withFields(personFields, map[string]Property{
				"person_id": str("The ID of the person to update"),
				"status":    str("Person status: active or inactive"),
			})),
		},
		{
			Name:        DeletePerson,
			Description: "Delete a person from the system by their ID",
			InputSchema: object([]string{"person_id"}, map[string]Property{
				"person_id": str("The ID of the person to delete"),
			}),
		},
		{
			Name:        ListDependents,
			Description: "List all dependents for a specific primary user",
			InputSchema: object([]string{"primary_user_id"}, map[string]Property{
				"primary_user_id": str("The primary user's ID"),
				"limit":           intg("Max results to return"),
				"offset":          intg("Pagination offset"),
			}),
		},
		{
			Name:        CreateDependent,
			Description: "Create a dependent relationship between a primary user and an existing person",
			InputSchema: object([]string{"primary_user_id", "dependent_id"}, map[string]Property{
				"primary_user_id": str("The primary user's ID"),
				"dependent_id":    str("The ID of the person to attach as dependent"),
				"relationship":    str("Relationship: spouse, child, or domestic_partner"),
			}),
		},
		{
			Name:        DeleteDependent,
			Description: "Remove a dependent relationship from a primary user",
			InputSchema: object([]string{"primary_user_id", "dependent_id"}, map[string]Property{
				"primary_user_id": str("The primary user's ID"),
				"dependent_id":    str("The dependent's ID"),
			}),
		},
	}
}
