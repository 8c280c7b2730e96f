package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/ttokjang/backend/internal/domain"
	"github.com/ttokjang/backend/internal/flow"
	"github.com/ttokjang/backend/internal/resolution"
)

type planOptions struct {
	address    string
	lat        float64
	lng        float64
	travelMode string
	maxTravel  int
	selectType string
	storeID    string
}

func newPlanCmd(a *app) *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan [file|-]",
		Short: "Generate store plans for a basket",
		Long: `Runs the full flow: locate (coordinates or geocoded address), resolve
ambiguous items, generate plans and print them. --select records the chosen
plan and prints the navigation link.

When the basket is read from stdin, ambiguous items take their top candidate.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.address, "address", "a", "", "Address or place name to shop near")
	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "Latitude (use with --lng instead of --address)")
	cmd.Flags().Float64Var(&opts.lng, "lng", 0, "Longitude (use with --lat instead of --address)")
	cmd.Flags().StringVarP(&opts.travelMode, "travel-mode", "m", string(domain.TravelModeWalk), "Travel mode. Available: walk, transit, car")
	cmd.Flags().IntVar(&opts.maxTravel, "max-travel", 15, "Maximum travel time in minutes")
	cmd.Flags().StringVar(&opts.selectType, "select", "", "Plan type to select after generation (lowest, nearest, balanced)")
	cmd.Flags().StringVar(&opts.storeID, "store-id", "", "Store of the selected plan when several share a plan type")
	return cmd
}

func runPlan(cmd *cobra.Command, args []string, a *app, opts *planOptions) error {
	req, err := opts.request(cmd)
	if err != nil {
		return err
	}

	text, err := readBasket(cmd, args)
	if err != nil {
		return err
	}
	req.BasketText = text

	var chooser flow.Chooser = NewTerminalChooser(cmd.InOrStdin(), cmd.ErrOrStderr())
	if basketFromStdin(args) {
		chooser = topCandidateChooser(cmd.ErrOrStderr())
	}

	store := flow.NewStore(flow.Initial())
	defer store.Close()
	pipeline := flow.NewPipeline(a.api, chooser, store, a.log, flow.Config{
		MaxResolutionRounds: a.cfg.API.MaxResolutionRounds,
	})

	result, err := pipeline.Run(cmd.Context(), req)
	if err != nil {
		return err
	}
	if err := printPlans(cmd.OutOrStdout(), result); err != nil {
		return err
	}

	if opts.selectType == "" {
		return nil
	}
	selected, err := pipeline.Select(cmd.Context(), domain.PlanType(opts.selectType), opts.storeID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nSelected %s plan: %s (%s)\n", opts.selectType, selected.StoreName, selected.StoreAddress)
	fmt.Fprintf(cmd.OutOrStdout(), "Navigate: %s\n", selected.NavigationURL)
	return nil
}

func (o *planOptions) request(cmd *cobra.Command) (flow.Request, error) {
	req := flow.Request{
		Address:          strings.TrimSpace(o.address),
		TravelMode:       domain.TravelMode(o.travelMode),
		MaxTravelMinutes: o.maxTravel,
	}

	latSet, lngSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lng")
	switch {
	case latSet && lngSet:
		req.Coordinates = &flow.Location{Lat: o.lat, Lng: o.lng}
	case latSet || lngSet:
		return flow.Request{}, errors.New("--lat and --lng must be given together")
	}
	return req, nil
}

// topCandidateChooser accepts the best candidate for every ambiguous item
func topCandidateChooser(notice io.Writer) flow.Chooser {
	return flow.ChooserFunc(func(ctx context.Context, unresolved []domain.MatchRow) (domain.Selection, error) {
		for _, row := range unresolved {
			fmt.Fprintf(notice, "%q: using %s\n", row.ItemName, describeCandidate(row.Candidates[0]))
		}
		return resolution.DefaultSelection(unresolved), nil
	})
}

func printPlans(w io.Writer, result *flow.Result) error {
	loc := result.Location
	if loc.ResolvedAddress != "" {
		fmt.Fprintf(w, "Location: %s (%.5f, %.5f)\n", loc.ResolvedAddress, loc.Lat, loc.Lng)
	} else {
		fmt.Fprintf(w, "Location: %.5f, %.5f\n", loc.Lat, loc.Lng)
	}
	fmt.Fprintf(w, "Request: %s\n", result.Plans.Meta.RequestID)
	if result.Plans.Degraded() {
		fmt.Fprintf(w, "Degraded providers: %s\n", strings.Join(result.Plans.Meta.DegradedProviders, ", "))
	}
	fmt.Fprintln(w)

	if len(result.Plans.Plans) == 0 {
		fmt.Fprintln(w, "No store covers this basket within the travel limit.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "PLAN\tSTORE\tTOTAL\tCOVERAGE\tTRAVEL\tDISTANCE\t")
	for _, p := range result.Plans.Plans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%d min\t%.1f km\t\n",
			p.PlanType, p.StoreName, formatWon(p.TotalPriceWon), p.CoverageRatio*100, p.TravelMinutes, p.DistanceKm)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, p := range result.Plans.Plans {
		if len(p.MissingItems) == 0 {
			continue
		}
		names := make([]string, len(p.MissingItems))
		for i, m := range p.MissingItems {
			names[i] = m.ItemName
		}
		fmt.Fprintf(w, "%s at %s is missing: %s\n", p.PlanType, p.StoreName, strings.Join(names, ", "))
	}
	return nil
}

// formatWon renders 12300 as "12,300원"
func formatWon(amount int) string {
	digits := strconv.Itoa(amount)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "원"
}
