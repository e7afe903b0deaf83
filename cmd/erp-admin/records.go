package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikelcalvo/erp-admin/internal/resource"
)

func listCmd(a *app) *cobra.Command {
	var (
		search   string
		filters  []string
		page     int
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "List the records of an entity",
		Long: `List the records of an entity. Search, filters and paging are applied
locally to the loaded collection, the same way the console does it.`,
		Example: `  erp-admin list customers --search acme
  erp-admin list firms --filter vat_type=standard --page-size 50
  erp-admin list sales --filter status=draft --page 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := lookupEntity(args[0])
			if err != nil {
				return err
			}
			fs, err := parseFilters(s, filters)
			if err != nil {
				return err
			}
			if pageSize == 0 {
				pageSize = a.env.cfg.PageSize
			}

			l := resource.NewList(s, a.env.client, pageSize)
			if err := l.SetPageSize(pageSize); err != nil {
				return err
			}
			if err := l.Load(cmd.Context()); err != nil {
				return err
			}
			l.SetSearch(search)
			for k, v := range fs {
				l.SetFilter(k, v)
			}
			l.SetPage(page)

			printTable(cmd.OutOrStdout(), s, l.Page())
			fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d/%d • %d of %d %s\n",
				l.PageNumber(), l.PageCount(), len(l.Visible()), len(l.Items()), strings.ToLower(s.Title))
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive search term")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "field=value filter, repeatable")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, fmt.Sprintf("rows per page, one of %v", resource.PageSizes))
	return cmd
}

func getCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <entity> <id>",
		Short: "Show one record with its references resolved",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.loadDetail(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			d.ResolveReferences(cmd.Context(), resource.NewResolver(a.env.client))
			printDetail(cmd.OutOrStdout(), d)
			return nil
		},
	}
}

func createCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <entity> <field=value>...",
		Short: "Create a record",
		Example: `  erp-admin create customers name="Acme Ltd" phone=555-0101
  erp-admin create accounts name=Cash company_id=1 currency=EUR`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := lookupEntity(args[0])
			if err != nil {
				return err
			}
			draft, err := parseAssignments(s, args[1:])
			if err != nil {
				return err
			}
			rec, err := resource.NewList(s, a.env.client, a.env.cfg.PageSize).Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			id, _ := rec.ID()
			fmt.Fprintf(cmd.OutOrStdout(), "%s✓ Created %s #%d%s\n", Green, s.Singular, id, Reset)
			return nil
		},
	}
}

func setCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <entity> <id> <field=value>...",
		Short: "Update fields of a record after confirmation",
		Long: `Update fields of a record. Only the changed fields are sent, except for
entities the backend updates as a whole. An empty value clears a field.`,
		Example: `  erp-admin set customers 4 phone=555-0199
  erp-admin set firms 3 vat_type=standard --yes`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.loadDetail(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			values, err := parseAssignments(d.Schema(), args[2:])
			if err != nil {
				return err
			}
			if err := d.BeginEdit(); err != nil {
				if errors.Is(err, resource.ErrLocked) {
					return fmt.Errorf("%s #%d is %s and cannot be edited", d.Schema().Singular, d.ID(), d.Snapshot().Text("status"))
				}
				return err
			}
			for _, k := range sortedKeys(values) {
				if err := d.Edit(k, values[k]); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			mut, err := d.PrepareSave()
			if errors.Is(err, resource.ErrNotDirty) {
				fmt.Fprintf(out, "%sNo changes to save%s\n", Yellow, Reset)
				return nil
			}
			if err != nil {
				return err
			}

			what := fmt.Sprintf("%s #%d", d.Schema().Singular, d.ID())
			prompt := fmt.Sprintf("Save %s? Changes: %s.", what, strings.Join(d.ChangedLabels(), ", "))
			if !a.yes && !confirm(cmd.InOrStdin(), out, prompt) {
				fmt.Fprintln(out, "Cancelled")
				return nil
			}
			rec, err := d.Send(cmd.Context(), mut)
			if err := d.ApplySave(rec, err); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s✓ Saved %s%s\n", Green, what, Reset)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&a.yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func deleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <entity> <id>",
		Short: "Delete a record after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.loadDetail(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			what := fmt.Sprintf("%s #%d", d.Schema().Singular, d.ID())
			out := cmd.OutOrStdout()
			if !a.yes && !confirm(cmd.InOrStdin(), out, "Delete "+what+"? This cannot be undone.") {
				fmt.Fprintln(out, "Cancelled")
				return nil
			}
			if err := d.Delete(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s✓ Deleted %s%s\n", Green, what, Reset)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&a.yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// loadDetail loads record id of the named entity.
func (a *app) loadDetail(cmd *cobra.Command, name, rawID string) (*resource.Detail, error) {
	s, err := lookupEntity(name)
	if err != nil {
		return nil, err
	}
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	d := resource.NewDetail(s, a.env.client)
	if err := d.Load(cmd.Context(), id); err != nil {
		return nil, err
	}
	return d, nil
}

func printTable(w io.Writer, s *resource.Schema, rows []resource.Record) {
	cols := s.Columns()
	fmt.Fprintf(w, "%s%-6s", Cyan, "ID")
	for _, c := range cols {
		fmt.Fprintf(w, " %-*s", colWidth(c), c.Label)
	}
	fmt.Fprintf(w, "%s\n", Reset)

	if len(rows) == 0 {
		fmt.Fprintf(w, "%sNo %s found%s\n", Yellow, strings.ToLower(s.Title), Reset)
		return
	}
	for _, rec := range rows {
		id, _ := rec.ID()
		fmt.Fprintf(w, "%-6d", id)
		for _, c := range cols {
			fmt.Fprintf(w, " %-*s", colWidth(c), clip(resource.Format(rec[c.Key]), colWidth(c)))
		}
		fmt.Fprintln(w)
	}
}

func printDetail(w io.Writer, d *resource.Detail) {
	s := d.Schema()
	snap := d.Snapshot()
	fmt.Fprintf(w, "%s%s #%d%s\n", Blue, s.Singular, d.ID(), Reset)
	for _, f := range s.Fields {
		value := resource.Format(snap[f.Key])
		if f.Kind == resource.KindRef {
			if label, ok := d.Label(f.Key); ok {
				if resource.IsBlank(snap[f.Key]) {
					value = label
				} else {
					value = fmt.Sprintf("%s (#%s)", label, value)
				}
			}
		}
		fmt.Fprintf(w, "  %-16s %s\n", f.Label+":", value)
	}
	if d.Degraded() {
		fmt.Fprintf(w, "  %s(loaded from the collection listing)%s\n", Cyan, Reset)
	}
	if s.LinesField == "" {
		return
	}
	lines := snap.Lines(s.LinesField)
	fmt.Fprintf(w, "\n%sItems (%d)%s\n", Yellow, len(lines), Reset)
	for i, line := range lines {
		var parts []string
		for _, f := range s.LineFields {
			v := resource.Format(line[f.Key])
			if f.Kind == resource.KindRef {
				if name := line.Text(strings.TrimSuffix(f.Key, "_id") + "_name"); name != "" {
					v = name
				}
			}
			parts = append(parts, f.Label+"="+v)
		}
		fmt.Fprintf(w, "  %d. %s\n", i+1, strings.Join(parts, "  "))
	}
}

func colWidth(f resource.Field) int {
	if f.Width > 0 {
		return f.Width
	}
	return 20
}

func clip(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	return string(r[:w-1]) + "…"
}

func sortedKeys(r resource.Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
