package application

import (
	"context"
	"fmt"

	"github.com/bnema/opq/internal/domain"
	"golang.org/x/sync/errgroup"
)

// trim keeps records of the given template (all when empty) and formats
// each survivor. Order is preserved.
func (c *Client) trim(ctx context.Context, session domain.Session, recs []itemRecord, template domain.TemplateID) ([]domain.Item, error) {
	kept := make([]itemRecord, 0, len(recs))
	for _, rec := range recs {
		if template != "" && domain.TemplateID(rec.TemplateUUID) != template {
			continue
		}
		kept = append(kept, rec)
	}

	items := make([]domain.Item, len(kept))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for i, rec := range kept {
		g.Go(func() error {
			item, err := c.format(gctx, session, rec)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return items, nil
}

// format resolves the record's vault and template through the cached
// queries, then applies the template's rule.
func (c *Client) format(ctx context.Context, session domain.Session, rec itemRecord) (domain.Item, error) {
	vault, err := c.GetVault(ctx, session, domain.VaultID(rec.VaultUUID))
	if err != nil {
		return nil, fmt.Errorf("resolve vault of item %s: %w", rec.UUID, err)
	}

	templates, err := c.GetTemplates(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("resolve template of item %s: %w", rec.UUID, err)
	}

	template, ok := findTemplate(templates, domain.TemplateID(rec.TemplateUUID))
	if !ok {
		return nil, &domain.QueryError{Message: fmt.Sprintf("item %s has unknown template %q", rec.UUID, rec.TemplateUUID)}
	}

	base := domain.BaseItem{
		ID:       domain.ItemID(rec.UUID),
		Vault:    vault,
		Template: template,
		Title:    rec.Overview.Title,
	}

	rule, ok := c.itemRules[template.ID]
	if !ok {
		return base, nil
	}

	return rule(base, rec), nil
}

func findTemplate(templates []domain.Template, id domain.TemplateID) (domain.Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Template{}, false
}
