package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/opscart/hardware-explorer/pkg/stats"
	"github.com/spf13/cobra"
)

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := setup(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	results, err := s.cachedResults(ctx)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no cached results for workload %s", s.plan.Workload.Label)
	}

	if err := s.render(ctx, results, reportPath); err != nil {
		return err
	}
	fmt.Printf("[INFO] Report generated: %s\n", reportPath)
	return nil
}

func runCacheList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := setup(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	records, err := s.cache.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cached results: %w", err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKLOAD\tHARDWARE\tAPDEX\tERRORS\tTHROUGHPUT\tATTEMPTS\tFAILURES\tUPDATED")
	shown := 0
	for _, rec := range records {
		if !allWorkloads && rec.Workload != s.plan.Workload.Label {
			continue
		}
		shown++
		apdex, errorRate, throughput := "-", "-", "-"
		if rec.Result != nil {
			apdex = stats.Apdex(rec.Result.Apdex.Mean).StringFixed(stats.ApdexPlaces)
			errorRate = stats.ErrorRatePercent(rec.Result.ErrorRate.Mean).StringFixed(stats.ErrorRatePlaces) + "%"
			throughput = stats.Throughput(rec.Result.Throughput.Mean).StringFixed(stats.ThroughputPlaces)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			rec.Workload, rec.Hardware, apdex, errorRate, throughput,
			rec.Attempts, rec.Failures, rec.UpdatedAt.Format("2006-01-02 15:04"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d cached results\n", shown)
	return nil
}
