package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/opq/internal/adapters/render/listing"
	"github.com/bnema/opq/internal/application"
	"github.com/bnema/opq/internal/domain"
	"github.com/bnema/opq/internal/fuzzy"
	"github.com/spf13/cobra"
)

type searchFlags struct {
	threshold   float64
	location    int
	distance    int
	maxPattern  int
	minMatchLen int
	sort        bool
}

func newItemsCmd(app *app) *cobra.Command {
	var q application.ItemsQuery
	var template string
	var search searchFlags
	var reveal bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "items [query...]",
		Short: "List items, optionally fuzzy-filtered by a query",
		Example: `  opq items github
  opq items --vault Private --template 001 --threshold 0.4 mail`,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := search.overrides(cmd, app.cfg.Search)
			if err != nil {
				return err
			}

			session, err := currentSession(cmd, app)
			if err != nil {
				return err
			}

			q.Template = domain.TemplateID(template)
			q.Query = strings.TrimSpace(strings.Join(args, " "))
			q.Fuzzy = overrides

			var items []domain.Item
			err = fetch(cmd, app, "Fetching items...", asJSON, func(ctx context.Context) error {
				var err error
				items, err = app.client.GetItems(ctx, session, q)
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, items)
			}
			opts := renderOptions(app)
			opts.Reveal = reveal
			rendered, renderErr := listing.Items(items, opts)
			return writeRendered(cmd, rendered, renderErr)
		},
	}

	cmd.Flags().StringVar(&q.Vault, "vault", "", "Only list items of this vault (name or id)")
	cmd.Flags().StringVar(&template, "template", "", "Only list items of this template id, e.g. 001 for logins")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print login passwords instead of masking them")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	search.register(cmd)

	return cmd
}

func newItemCmd(app *app) *cobra.Command {
	var vault string
	var reveal bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "item <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := currentSession(cmd, app)
			if err != nil {
				return err
			}

			var item domain.Item
			err = fetch(cmd, app, "Fetching item...", asJSON, func(ctx context.Context) error {
				var err error
				item, err = app.client.GetItem(ctx, session, domain.ItemID(args[0]), vault)
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, item)
			}
			opts := renderOptions(app)
			opts.Reveal = reveal
			rendered, renderErr := listing.Item(item, opts)
			return writeRendered(cmd, rendered, renderErr)
		},
	}

	cmd.Flags().StringVar(&vault, "vault", "", "Vault holding the item (name or id)")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print the login password instead of masking it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func (f *searchFlags) register(cmd *cobra.Command) {
	defaults := fuzzy.DefaultOptions()

	cmd.Flags().Float64Var(&f.threshold, "threshold", defaults.Threshold, "Worst accepted match score, 0 exact to 1 anything (overrides search.threshold)")
	cmd.Flags().IntVar(&f.location, "location", defaults.Location, "Expected match offset in each field")
	cmd.Flags().IntVar(&f.distance, "distance", defaults.Distance, "How far from --location a match may drift")
	cmd.Flags().IntVar(&f.maxPattern, "max-pattern-length", defaults.MaxPatternLength, "Longer queries are truncated to this length")
	cmd.Flags().IntVar(&f.minMatchLen, "min-match-length", defaults.MinMatchCharLength, "Shortest run of matched characters that counts as a match")
	cmd.Flags().BoolVar(&f.sort, "sort", defaults.Sort, "Sort matches best first")
}

// overrides keeps only flags set on the command line; the rest fall back to
// the configured search options. The merged result must be valid.
func (f *searchFlags) overrides(cmd *cobra.Command, base fuzzy.Options) (fuzzy.Overrides, error) {
	var ov fuzzy.Overrides
	flags := cmd.Flags()

	if flags.Changed("threshold") {
		ov.Threshold = &f.threshold
	}
	if flags.Changed("location") {
		ov.Location = &f.location
	}
	if flags.Changed("distance") {
		ov.Distance = &f.distance
	}
	if flags.Changed("max-pattern-length") {
		ov.MaxPatternLength = &f.maxPattern
	}
	if flags.Changed("min-match-length") {
		ov.MinMatchCharLength = &f.minMatchLen
	}
	if flags.Changed("sort") {
		ov.Sort = &f.sort
	}

	if err := base.Merge(ov).Validate(); err != nil {
		return fuzzy.Overrides{}, fmt.Errorf("search flags: %w", err)
	}

	return ov, nil
}
