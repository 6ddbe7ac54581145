// Package scenario — category.go
//
// Category flows. Categories are the simplest entity on the platform and
// the canonical smoke test: if the category list is broken, nothing else
// is worth running.
package scenario

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shashiranjanraj/mediaprobe/internal/contract"
	"github.com/shashiranjanraj/mediaprobe/internal/fixtures"
)

// CategoryList asserts the list contract on GET /category: domain OK
// implies an array, and when the backend has data the first element
// carries the typed identity fields.
func CategoryList(ctx context.Context, env *Env) error {
	resp, err := env.Client.Get(ctx, "/category", nil)
	if err != nil {
		return err
	}
	if err := env.check("list_categories", resp, contract.ExpectList(contract.KindCategory, "category_list")); err != nil {
		return err
	}

	records, err := resp.Records()
	if err != nil {
		return fmt.Errorf("list_categories: %w", err)
	}
	if len(records) == 0 {
		env.Log.Info("category list is empty, type checks skipped")
		return nil
	}

	first := records[0]
	for _, field := range []string{"_id", "name", "slug"} {
		if _, ok := first[field].(string); !ok {
			return fmt.Errorf("list_categories: first record field %q is %T, expected string", field, first[field])
		}
	}
	return nil
}

// CategoryLifecycle drives one category through the full state machine:
// absent → created → verified → updated → deleted → verified-absent.
func CategoryLifecycle(ctx context.Context, env *Env) error {
	name := uniqueName("probe-category")

	rec, err := env.create(ctx, fixtures.KindCategory, "/category", url.Values{
		"name":    {name},
		"slug":    {slugify(name)},
		"visible": {"true"},
	}, contract.KindCategory)
	if err != nil {
		return err
	}
	id := rec.ID()

	if _, err := env.verify(ctx, fixtures.KindCategory, "/category/"+id, id, contract.KindCategory); err != nil {
		return err
	}

	renamed := name + "-renamed"
	resp, err := env.Client.PostForm(ctx, "/category/"+id, url.Values{"name": {renamed}})
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if err := env.check("update_category", resp, contract.ExpectOK(contract.KindCategory)); err != nil {
		return err
	}
	updated, err := resp.Record()
	if err != nil || updated == nil {
		return fmt.Errorf("update category: no record in response: %v", err)
	}
	if err := fieldChanged(updated, "name", renamed); err != nil {
		return err
	}

	return env.deleteAndVerifyAbsent(ctx, fixtures.KindCategory, "/category/"+id)
}
