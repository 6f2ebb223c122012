// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package dependents

import (
	"context"

	"github.com/go-core-stack/dependents-proxy/pkg/router"
	"github.com/go-core-stack/dependents-proxy/pkg/tools"
)

const (
	defaultListLimit  = "100"
	defaultListOffset = "0"
	defaultPersonType = "primary"
)

// updatableFields maps update_person arguments to upstream field names.
var updatableFields = []struct{ arg, field string }{
	{"first_name", "firstName"},
	{"last_name", "lastName"},
	{"date_of_birth", "dateOfBirth"},
	{"email", "email"},
	{"phone", "phone"},
	{"address", "address"},
	{"status", "status"},
}

// Routes returns the dispatch entries for every dependents tool.
func (c *Client) Routes() []router.Route {
	return []router.Route{
		{Name: tools.CreatePerson, Handler: wrap(c.handleCreatePerson)},
		{Name: tools.ListPersons, Handler: wrap(c.handleListPersons)},
		{Name: tools.GetPerson, Handler: wrap(c.handleGetPerson)},
		{Name: tools.UpdatePerson, Handler: wrap(c.handleUpdatePerson)},
		{Name: tools.DeletePerson, Handler: wrap(c.handleDeletePerson)},
		{Name: tools.ListDependents, Handler: wrap(c.handleListDependents)},
		{Name: tools.CreateDependent, Handler: wrap(c.handleCreateDependent)},
		{Name: tools.DeleteDependent, Handler: wrap(c.handleDeleteDependent)},
	}
}

func wrap(fn func(context.Context, Args) (router.Result, error)) router.Handler {
	return func(ctx context.Context, args map[string]any) (router.Result, error) {
		return fn(ctx, Args(args))
	}
}

func passthrough(resp Response, err error) (router.Result, error) {
	if err != nil {
		return router.Result{}, err
	}
	return router.Result{StatusCode: resp.Status, Body: resp.Body}, nil
}

func (c *Client) handleCreatePerson(ctx context.Context, args Args) (router.Result, error) {
	vals, err := args.Require("external_id", "first_name", "last_name", "date_of_birth", "email")
	if err != nil {
		return router.Result{}, err
	}

	p := Person{
		ExternalID:  vals[0],
		FirstName:   vals[1],
		LastName:    vals[2],
		DateOfBirth: vals[3],
		Email:       vals[4],
		Type:        defaultPersonType,
	}
	p.Phone, _ = args.String("phone")
	p.Address, _ = args.String("address")
	if t, ok := args.String("type"); ok {
		p.Type = t
	}

	return passthrough(c.CreatePerson(ctx, p))
}

func (c *Client) handleListPersons(ctx context.Context, args Args) (router.Result, error) {
	opts := listOptions(args)
	opts.Type, _ = args.String("type")
	opts.Status, _ = args.String("status")
	opts.PrimaryUserID, _ = args.String("primary_user_id")

	return passthrough(c.ListPersons(ctx, opts))
}

func (c *Client) handleGetPerson(ctx context.Context, args Args) (router.Result, error) {
	vals, err := args.Require("person_id")
	if err != nil {
		return router.Result{}, err
	}
	return passthrough(c.GetPerson(ctx, vals[0]))
}

func (c *Client) handleUpdatePerson(ctx context.Context, args Args) (router.Result, error) {
	vals, err := args.Require("person_id")
	if err != nil {
		return router.Result{}, err
	}

	patch := make(map[string]any)
	for _, f := range updatableFields {
		if v, ok := args.Value(f.arg); ok {
			patch[f.field] = v
		}
	}

	return passthrough(c.UpdatePerson(ctx, vals[0], patch))
}

func (c *Client) handleDeletePerson(ctx context.Context, args Args) (router.Result, error) {
	vals, err := args.Require("person_id")
	if err != nil {
		return router.Result{}, err
	}

	status, err := c.DeletePerson(ctx, vals[0])
	if err != nil {
		return router.Result{}, err
	}

	return router.Result{
		StatusCode: status,
		Body:       map[string]string{"status": "deleted", "person_id": vals[0]},
	}, nil
}

func (c *Client) handleListDependents(ctx context.Context, args Args) (router.Result, error) {
	vals, err := args.Require("primary_user_id")
	if err != nil {
		return router.Result{}, err
	}

	opts := ListOptions{}
	opts.Limit, _ = args.Optional("limit")
	opts.Offset, _ = args.Optional("offset")

	return passthrough(c.ListDependents(ctx, vals[0], opts))
}

func (c *Client) handleCreateDependent(ctx context.Context, args Args) (router.Result, error) {
	vals, err := args.Require("primary_user_id", "dependent_id")
	if err != nil {
		return router.Result{}, err
	}

	d := Dependent{DependentID: vals[1]}
	d.Relationship, _ = args.String("relationship")

	return passthrough(c.CreateDependent(ctx, vals[0], d))
}

func (c *Client) handleDeleteDependent(ctx context.Context, args Args) (router.Result, error) {
	vals, err := args.Require("primary_user_id", "dependent_id")
	if err != nil {
		return router.Result{}, err
	}

	status, err := c.DeleteDependent(ctx, vals[0], vals[1])
	if err != nil {
		return router.Result{}, err
	}

	return router.Result{
		StatusCode: status,
		Body: map[string]string{
			"status":          "relationship_deleted",
			"primary_user_id": vals[0],
			"dependent_id":    vals[1],
		},
	}, nil
}

func listOptions(args Args) ListOptions {
	opts := ListOptions{Limit: defaultListLimit, Offset: defaultListOffset}
	if v, ok := args.Optional("limit"); ok {
		opts.Limit = v
	}
	if v, ok := args.Optional("offset"); ok {
		opts.Offset = v
	}
	return opts
}
