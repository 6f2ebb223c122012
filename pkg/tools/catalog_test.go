// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package tools

import (
	"encoding/json"
	"testing"
)

func TestCatalogNamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, d := range Catalog() {
		if seen[d.Name] {
			t.Fatalf("duplicate tool %s", d.Name)
		}
		seen[d.Name] = true
	}
	if len(seen) != 8 {
		t.Fatalf("expected 8 tools, got %d", len(seen))
	}
}

func TestCatalogRequiredFieldsAreDeclared(t *testing.T) {
	for _, d := range Catalog() {
		for _, req := range d.InputSchema.Required {
			if _, ok := d.InputSchema.Properties[req]; !ok {
				t.Errorf("%s requires undeclared property %s", d.Name, req)
			}
		}
	}
}

func TestCatalogRequiredLists(t *testing.T) {
	want := map[string][]string{
		CreatePerson:    {"external_id", "first_name", "last_name", "date_of_birth", "email"},
		ListPersons:     nil,
		GetPerson:       {"person_id"},
		UpdatePerson:    {"person_id"},
		DeletePerson:    {"person_id"},
		ListDependents:  {"primary_user_id"},
		CreateDependent: {"primary_user_id", "dependent_id"},
		DeleteDependent: {"primary_user_id", "dependent_id"},
	}
	for _, d := range Catalog() {
		exp, ok := want[d.Name]
		if !ok {
			t.Fatalf("unexpected tool %s", d.Name)
		}
		if len(exp) != len(d.InputSchema.Required) {
			t.Fatalf("%s required mismatch: got %v want %v", d.Name, d.InputSchema.Required, exp)
		}
		for i := range exp {
			if exp[i] != d.InputSchema.Required[i] {
				t.Fatalf("%s required mismatch: got %v want %v", d.Name, d.InputSchema.Required, exp)
			}
		}
	}
}

func TestRawSchema(t *testing.T) {
	d := Catalog()[0]
	raw, err := d.RawSchema()
	if err != nil {
		t.Fatalf("RawSchema: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	if decoded["type"] != "object" {
		t.Fatalf("unexpected schema type: %v", decoded["type"])
	}
	if _, ok := decoded["required"]; ok {
		t.Fatalf("empty required list should be omitted: %s", raw)
	}
}
