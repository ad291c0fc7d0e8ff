package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ridepool/service-trip/internal/domain/route"
)

func newRootCmd() *cobra.Command {
	var candidateArg, queryArg string

	cmd := &cobra.Command{
		Use:   "routescore",
		Short: "Score a candidate route against a query route",
		Long: "Prints how far the query route strays from the candidate route. " +
			"Lower is better; routes heading against each other print \"unreachable\".",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			candidate, err := parseSegment(candidateArg)
			if err != nil {
				return fmt.Errorf("--candidate: %w", err)
			}
			query, err := parseSegment(queryArg)
			if err != nil {
				return fmt.Errorf("--query: %w", err)
			}
			score, err := route.ComputeRouteScore(candidate, query)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), score)
			return nil
		},
	}
	cmd.Flags().StringVarP(&candidateArg, "candidate", "c", "", "Candidate route as lat,lng:lat,lng")
	cmd.Flags().StringVarP(&queryArg, "query", "q", "", "Query route as lat,lng:lat,lng")
	_ = cmd.MarkFlagRequired("candidate")
	_ = cmd.MarkFlagRequired("query")

	cmd.AddCommand(newNearCmd())
	return cmd
}

func newNearCmd() *cobra.Command {
	var aArg, bArg string
	var threshold float64

	cmd := &cobra.Command{
		Use:   "near",
		Short: "Report whether two points lie within a distance threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parsePoint(aArg)
			if err != nil {
				return fmt.Errorf("--a: %w", err)
			}
			b, err := parsePoint(bArg)
			if err != nil {
				return fmt.Errorf("--b: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), route.IsNear(a, b, threshold))
			return nil
		},
	}
	cmd.Flags().StringVar(&aArg, "a", "", "First point as lat,lng")
	cmd.Flags().StringVar(&bArg, "b", "", "Second point as lat,lng")
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", route.DefaultNearThreshold, "Threshold in meters")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")
	return cmd
}

func parseSegment(s string) (route.Segment, error) {
	src, dst, ok := strings.Cut(s, ":")
	if !ok {
		return route.Segment{}, fmt.Errorf("expected lat,lng:lat,lng, got %q", s)
	}
	source, err := parsePoint(src)
	if err != nil {
		return route.Segment{}, err
	}
	destination, err := parsePoint(dst)
	if err != nil {
		return route.Segment{}, err
	}
	return route.NewSegment(source, destination), nil
}

func parsePoint(s string) (route.Point, error) {
	latStr, lngStr, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return route.Point{}, fmt.Errorf("expected lat,lng, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return route.Point{}, fmt.Errorf("latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return route.Point{}, fmt.Errorf("longitude: %w", err)
	}
	return route.NewPoint(lat, lng), nil
}
