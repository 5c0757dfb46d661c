package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/urbansearch/internal/domain/search/filter"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/request"
	searchuc "github.com/kailas-cloud/urbansearch/internal/usecase/search"
)

type searchFlags struct {
	limit    int
	city     string
	category string
	json     bool
	timeout  time.Duration
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	sf := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run one search against the configured corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, flags, sf, args[0])
		},
	}
	cmd.Flags().IntVarP(&sf.limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().StringVar(&sf.city, "city", "", "restrict to a city")
	cmd.Flags().StringVar(&sf.category, "category", "", "restrict to a category")
	cmd.Flags().BoolVar(&sf.json, "json", false, "output the response as JSON")
	cmd.Flags().DurationVar(&sf.timeout, "timeout", 30*time.Second, "overall search timeout")
	return cmd
}

func runSearch(cmd *cobra.Command, flags *globalFlags, sf *searchFlags, query string) error {
	cfg, err := flags.load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, sf.timeout)
	defer cancel()

	// the CLI prints results on stdout; keep logs out of the way
	a, err := buildApp(ctx, cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer a.Close()

	filters, err := filter.New(sf.city, sf.category, 0, 0, 0)
	if err != nil {
		return fmt.Errorf("invalid filters: %w", err)
	}
	req, err := request.New(query, sf.limit, filters, a.limits())
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}

	resp, err := a.search.Search(ctx, &req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if sf.json {
		return outputSearchJSON(cmd, resp)
	}
	outputSearchTable(cmd, resp)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, resp *searchuc.Response) error {
	data, err := json.MarshalIndent(map[string]any{
		"results":     resp.Results,
		"searchTier":  resp.Tier,
		"intent":      resp.Intent,
		"suggestions": resp.Suggestions,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, resp *searchuc.Response) {
	cmd.Printf("Tier: %s\n", resp.Tier)
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		for _, s := range resp.Suggestions {
			cmd.Printf("  %s\n", s)
		}
		return
	}

	cmd.Println()
	for i, r := range resp.Results {
		cmd.Printf("  [%d] %s (%s)\n", i+1, r.Name, r.Slug)
		cmd.Printf("      %s · %s", r.City, r.Category)
		if r.Rating > 0 {
			cmd.Printf(" · %.1f", r.Rating)
		}
		if r.MichelinStars > 0 {
			cmd.Printf(" · %d michelin", r.MichelinStars)
		}
		cmd.Println()
	}
}
