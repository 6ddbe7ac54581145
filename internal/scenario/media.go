// Package scenario — media.go
package scenario

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shashiranjanraj/mediaprobe/internal/contract"
	"github.com/shashiranjanraj/mediaprobe/internal/fixtures"
)

// MediaList asserts the list contract and schema on GET /media, then feeds
// the harvested identifiers into the run index for later scenarios.
func MediaList(ctx context.Context, env *Env) error {
	resp, err := env.Client.Get(ctx, "/media", nil)
	if err != nil {
		return err
	}
	if err := env.check("list_media", resp, contract.ExpectList(contract.KindMedia, "media_list")); err != nil {
		return err
	}

	env.Index.Ingest(resp)
	env.Reporter.AttachValue(env.Name, "index_stats", env.Index.Stats())

	records, err := resp.Records()
	if err != nil {
		return err
	}
	if ids := env.Index.MediaIDs(); len(ids) != len(records) {
		return fmt.Errorf("media list repeats identifiers: %d records, %d unique ids", len(records), len(ids))
	}
	return nil
}

// MediaLifecycle drives one media item through create, verify, update,
// delete and the verified-absent re-read.
func MediaLifecycle(ctx context.Context, env *Env) error {
	title := uniqueName("probe-media")

	rec, err := env.create(ctx, fixtures.KindMedia, "/media", url.Values{
		"title":    {title},
		"type":     {"video"},
		"slug":     {slugify(title)},
		"duration": {"120"},
	}, contract.KindMedia)
	if err != nil {
		return err
	}
	id := rec.ID()

	if _, err := env.verify(ctx, fixtures.KindMedia, "/media/"+id, id, contract.KindMedia); err != nil {
		return err
	}

	retitled := title + "-cut"
	resp, err := env.Client.PostForm(ctx, "/media/"+id, url.Values{"title": {retitled}})
	if err != nil {
		return fmt.Errorf("update media: %w", err)
	}
	if err := env.check("update_media", resp, contract.ExpectOK(contract.KindMedia)); err != nil {
		return err
	}
	updated, err := resp.Record()
	if err != nil || updated == nil {
		return fmt.Errorf("update media: no record in response: %v", err)
	}
	if err := fieldChanged(updated, "title", retitled); err != nil {
		return err
	}

	return env.deleteAndVerifyAbsent(ctx, fixtures.KindMedia, "/media/"+id)
}
