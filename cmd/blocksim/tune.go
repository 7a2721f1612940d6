package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/blocksim/internal/experiment"
	"github.com/san-kum/blocksim/internal/optim"
	"github.com/san-kum/blocksim/internal/viz"
)

func tuneParameters(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(tuneParams)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	search := optim.NewGridSearch(names, ranges)
	res, err := search.Search(ctx, optim.ConfigBuilder(cfg, experiment.WithLogger(logger)), tuneMetric)
	if err != nil {
		return err
	}

	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("tuned %s on %s", cfg.Name, tuneMetric)))
	for _, name := range names {
		fmt.Println(viz.Metric(name, res.Params[name]))
	}
	fmt.Println(viz.Metric(tuneMetric, res.Value))
	fmt.Println(viz.Field("evaluated", fmt.Sprintf("%d (%d failed)", res.Evaluated, res.Failed)))
	return nil
}

// parseGrid reads "kind.param=v1,v2" flags into sorted names and ranges.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	if len(specs) == 0 {
		return nil, nil, fmt.Errorf("need at least one --param")
	}

	grid := make(map[string][]float64, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("bad --param %q, want kind.param=v1,v2", spec)
		}
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("--param %s: %w", name, err)
			}
			grid[name] = append(grid[name], v)
		}
	}

	names := make([]string, 0, len(grid))
	for name := range grid {
		names = append(names, name)
	}
	sort.Strings(names)

	ranges := make([][]float64, len(names))
	for i, name := range names {
		ranges[i] = grid[name]
	}
	return names, ranges, nil
}
