package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tradeguard/platform/services/consignment-service/client"
	"github.com/tradeguard/platform/services/consignment-service/compliance"
	"github.com/tradeguard/platform/services/consignment-service/report"
	"github.com/tradeguard/platform/services/consignment-service/shipment"
)

func intakeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "intake <answers.yaml>",
		Aliases: []string{"submit"},
		Short:   "Fill the consignment form from an answers file and submit it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			answers, err := LoadAnswers(args[0])
			if err != nil {
				return err
			}
			form, err := answers.Form()
			if err != nil {
				return fieldErrors(cmd.ErrOrStderr(), err)
			}

			res, err := form.Submit(cmd.Context(), client.SessionSubmitter{Client: a.api, Session: sess})
			if err != nil {
				return fieldErrors(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nShipment %s, consignment %s\n", res.Message, form.Record().ShipmentID, res.UUID)
			return nil
		},
	}
}

// fieldErrors prints per-field problems one per line before failing.
func fieldErrors(w io.Writer, err error) error {
	errs, ok := shipment.AsFieldErrors(err)
	if !ok {
		return err
	}
	for _, k := range slices.Sorted(maps.Keys(errs)) {
		fmt.Fprintf(w, "  %s: %s\n", k, errs[k])
	}
	return fmt.Errorf("%d field(s) need attention", len(errs))
}

func scoreCmd(a *app) *cobra.Command {
	var remote, asJSON bool
	var reportPath string
	cmd := &cobra.Command{
		Use:   "score <answers.yaml>",
		Short: "Score an answers file against the compliance rules",
		Long: "Scores locally by default. --remote asks the API instead, which needs a login.\n" +
			"--report writes the draft HTML report next to the score.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			answers, err := LoadAnswers(args[0])
			if err != nil {
				return err
			}

			var result compliance.Result
			var record shipment.Record
			if remote {
				sess, err := a.session()
				if err != nil {
					return err
				}
				if result, err = a.api.CheckCompliance(cmd.Context(), sess, answers.Payload()); err != nil {
					return err
				}
			} else {
				form, err := answers.Form()
				if err != nil {
					return fieldErrors(cmd.ErrOrStderr(), err)
				}
				record = form.Record()
				result = compliance.NewScorer().Evaluate(record)
			}

			if reportPath != "" {
				if remote {
					if record, err = answers.Payload().ToRecord(); err != nil {
						return fieldErrors(cmd.ErrOrStderr(), err)
					}
				}
				if err := writeReport(reportPath, report.New(uuid.Nil, record, result, time.Now())); err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "score through the API")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().StringVar(&reportPath, "report", "", "write an HTML report to this path")
	return cmd
}

func printResult(w io.Writer, r compliance.Result) {
	fmt.Fprintf(w, "Score %d: %s (%s risk)\n", r.Score, r.Status, r.RiskLevel)
	for _, issue := range r.Issues {
		fmt.Fprintf(w, "  [%s] %s: %s\n", issue.Severity, issue.Category, issue.Message)
		if issue.Suggestion != "" {
			fmt.Fprintf(w, "      %s\n", issue.Suggestion)
		}
	}
}

func writeReport(path string, rep report.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.Render(f, rep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func hsCodeCmd(a *app) *cobra.Command {
	var dest string
	cmd := &cobra.Command{
		Use:   "hs-code <main category> <sub category>",
		Short: "Look up the HS code of a product category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			country, err := shipment.ParseCountry(dest)
			if err != nil {
				return err
			}
			sess, err := a.session()
			if err != nil {
				return err
			}
			code, err := a.api.ResolveHSCode(cmd.Context(), sess, args[0], args[1], country)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
	cmd.Flags().StringVar(&dest, "dest", "", "destination country code (IN, EU, UK, US)")
	_ = cmd.MarkFlagRequired("dest")
	return cmd
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List submitted consignments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			list, err := a.api.ListConsignments(cmd.Context(), sess)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No consignments found")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "UUID\tSHIPMENT\tROUTE\tDATE\tHS CODE\tSTATUS")
			for _, c := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s -> %s\t%s\t%s\t%s\n",
					c.UUID, c.ShipmentID, c.SenderCountry, c.ReceiverCountry, c.ShipmentDate, c.HSCode, c.Compliant)
			}
			return tw.Flush()
		},
	}
}

func reportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "report <consignment uuid>",
		Short: "Download the compliance report of a consignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid consignment id %q", args[0])
			}
			sess, err := a.session()
			if err != nil {
				return err
			}
			page, err := a.api.Report(cmd.Context(), sess, id)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(page)
				return err
			}
			if err := os.WriteFile(out, page, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the HTML here instead of stdout")
	return cmd
}
