package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bcnelson/pricing-catalog/internal/catalog"
	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/spf13/cobra"
)

func showCmd(rt *runtime) *cobra.Command {
	var regionID, countryCode string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the catalog as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if countryCode != "" && regionID == "" {
				return fmt.Errorf("--country requires --region")
			}
			return rt.withStore(cmd.Context(), func(ctx context.Context, store *catalog.Store) error {
				regions, err := store.Regions()
				if err != nil {
					return err
				}
				if regionID != "" {
					var sel catalog.Selection
					sel.SelectRegion(regionID)
					sel.SelectCountry(countryCode)
					want := sel
					sel.Reconcile(regions)
					if sel.RegionID == "" {
						return fmt.Errorf("%w: region %q", domain.ErrNotFound, want.RegionID)
					}
					if want.CountryCode != "" && sel.CountryCode == "" {
						return fmt.Errorf("%w: country %q in region %q", domain.ErrNotFound, want.CountryCode, want.RegionID)
					}
					region, country := sel.Resolve(regions)
					if country != nil {
						region.Countries = []domain.Country{*country}
					}
					regions = []domain.Region{*region}
				}
				return printTable(cmd.OutOrStdout(), regions)
			})
		},
	}

	cmd.Flags().StringVar(&regionID, "region", "", "only show this region")
	cmd.Flags().StringVar(&countryCode, "country", "", "only show this country (requires --region)")
	return cmd
}

func printTable(out io.Writer, regions []domain.Region) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REGION\tCOUNTRY\tSERVICE\tTYPE\tCURRENCY\tLIMIT\tTAT\tFEE")
	for _, r := range regions {
		if len(r.Countries) == 0 {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t-\t-\n", r.ID)
		}
		for _, c := range r.Countries {
			if len(c.Services) == 0 {
				fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\t-\t-\n", r.ID, c.Code)
			}
			for _, s := range c.Services {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%g..%g\t%s\t%s\n",
					r.ID, c.Code, s.ID, s.Type, s.Currency,
					s.TransactionLimit.Min, s.TransactionLimit.Max, s.TAT, formatFee(s.FeeStructure))
			}
		}
	}
	return tw.Flush()
}

func formatFee(f domain.FeeStructure) string {
	var parts []string
	if f.Fixed > 0 || f.Percentage == 0 {
		parts = append(parts, fmt.Sprintf("%g %s", f.Fixed, f.Currency))
	}
	if f.Percentage > 0 {
		parts = append(parts, fmt.Sprintf("%g%%", f.Percentage))
	}
	return strings.Join(parts, " + ")
}
