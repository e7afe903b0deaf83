package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikelcalvo/erp-admin/internal/document"
	"github.com/mikelcalvo/erp-admin/internal/entity"
	"github.com/mikelcalvo/erp-admin/internal/tui"
)

// transitionCmds builds one command per workflow action.
func transitionCmds(a *app) []*cobra.Command {
	var cmds []*cobra.Command
	for _, action := range document.Actions {
		cmd := &cobra.Command{
			Use:   action.String() + " <document-entity> <id>",
			Short: transitionHelp(action),
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.transition(cmd, action, args[0], args[1])
			},
		}
		cmd.Flags().BoolVarP(&a.yes, "yes", "y", false, "do not ask for confirmation")
		cmds = append(cmds, cmd)
	}
	return cmds
}

func transitionHelp(action document.Action) string {
	switch action {
	case document.Approve:
		return "Approve a draft receipt, sale or return"
	case document.Unapprove:
		return "Send an approved receipt, sale or return back to draft"
	case document.Process:
		return "Post a draft price setting"
	}
	return action.String()
}

func (a *app) transition(cmd *cobra.Command, action document.Action, name, rawID string) error {
	kind, ok := entity.DocumentKind(strings.ToLower(name))
	if !ok {
		return fmt.Errorf("%s is not a document entity", name)
	}
	d, err := a.loadDetail(cmd, name, rawID)
	if err != nil {
		return err
	}

	wf := document.NewWorkflow(a.env.client)
	req, err := wf.Prepare(d, kind, action)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	what := fmt.Sprintf("%s #%d", d.Schema().Singular, d.ID())
	verb := action.String()
	prompt := fmt.Sprintf("%s %s? Status changes from %s to %s.", strings.ToUpper(verb[:1])+verb[1:], what, req.From, req.To)
	if !a.yes && !confirm(cmd.InOrStdin(), out, prompt) {
		fmt.Fprintln(out, "Cancelled")
		return nil
	}

	doc, err := wf.Transition(cmd.Context(), d, kind, action)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s✓ %s is now %s%s\n", Green, what, doc.Status, Reset)
	fmt.Fprintf(out, "  Items: %d • Total: %s\n", len(doc.Items), doc.Total.StringFixed(2))
	return nil
}

func summaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "summary <prices|returns>",
		Short:     "Aggregate price settings or returns",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"prices", "returns"},
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := summary(cmd.Context(), document.NewWorkflow(a.env.client), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func summary(ctx context.Context, wf *document.Workflow, which string) (string, error) {
	switch which {
	case "prices":
		docs, err := wf.Load(ctx, document.PriceSetting)
		if err != nil {
			return "", err
		}
		return tui.PriceReport(document.SummarizePrices(docs)), nil
	case "returns":
		var docs []*document.Document
		for _, kind := range []document.Kind{document.ReturnFromClient, document.ReturnToSupplier} {
			d, err := wf.Load(ctx, kind)
			if err != nil {
				return "", err
			}
			docs = append(docs, d...)
		}
		return tui.ReturnReport(document.SummarizeReturns(docs)), nil
	}
	return "", fmt.Errorf("unknown summary %q, use prices or returns", which)
}
