package application

import (
	"context"
	"fmt"

	"github.com/bnema/opq/internal/domain"
	"github.com/bnema/opq/internal/fuzzy"
	"github.com/bnema/opq/internal/memo"
)

type ItemsQuery struct {
	// Vault scopes the listing by vault name or id.
	Vault string
	// Template keeps only items of this template id.
	Template domain.TemplateID
	// Query enables the fuzzy filter.
	Query string
	Fuzzy fuzzy.Overrides
}

func (c *Client) GetItems(ctx context.Context, session domain.Session, q ItemsQuery) ([]domain.Item, error) {
	if err := c.requireSession(session); err != nil {
		return nil, err
	}

	recs, err := memo.Do(ctx, c.cache, memo.Key("list items", session.Token, q.Vault), func(ctx context.Context) ([]itemRecord, error) {
		recs, err := query[[]itemRecord](ctx, c, request{command: "list items", session: &session, vault: q.Vault})
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		return recs, nil
	})
	if err != nil {
		return nil, err
	}

	if q.Query != "" {
		recs = c.search(recs, q.Query, q.Fuzzy)
	}

	return c.trim(ctx, session, recs, q.Template)
}

func (c *Client) GetItem(ctx context.Context, session domain.Session, id domain.ItemID, vault string) (domain.Item, error) {
	if err := c.requireSession(session); err != nil {
		return nil, err
	}

	rec, err := memo.Do(ctx, c.cache, memo.Key("get item", session.Token, string(id), vault), func(ctx context.Context) (itemRecord, error) {
		rec, err := query[itemRecord](ctx, c, request{command: "get item", args: []string{string(id)}, session: &session, vault: vault})
		if err != nil {
			return itemRecord{}, fmt.Errorf("get item %s: %w", id, err)
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}

	return c.format(ctx, session, rec)
}

func (c *Client) search(recs []itemRecord, q string, overrides fuzzy.Overrides) []itemRecord {
	results := fuzzy.Search(recs, q, itemRecord.searchKeys, c.opts.Fuzzy.Merge(overrides))

	matched := make([]itemRecord, 0, len(results))
	for _, r := range results {
		matched = append(matched, r.Item)
	}
	return matched
}
