package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/blocksim/internal/analysis"
	"github.com/san-kum/blocksim/internal/storage"
	"github.com/san-kum/blocksim/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tDT\tINTEG\tSTATE\tSTEPS\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.StateShape,
			run.Steps,
			status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	if len(phaseAxes) > 0 {
		return phasePlot(st, runID)
	}

	outputs, times, err := st.LoadOutputs(runID)
	if err != nil {
		return err
	}
	if len(outputs) == 0 {
		return fmt.Errorf("no data to plot")
	}

	numVars := min(len(outputs[0]), 6)

	if outFile != "" {
		series := make([]viz.Series, numVars)
		for i := range series {
			series[i] = viz.Series{Label: fmt.Sprintf("y%d", i), Values: storage.Column(outputs, i)}
		}
		if err := viz.SavePlot(outFile, meta.Name, times, series); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outFile)
		return nil
	}

	fmt.Println(viz.Field("run", meta.ID))
	fmt.Println(viz.Field("samples", fmt.Sprint(len(outputs))))
	if meta.Error != "" {
		fmt.Println(viz.Field("error", viz.StatusFailed.Render(meta.Error)))
	}
	fmt.Println()

	for i := range numVars {
		fmt.Println(viz.Chart(storage.Column(outputs, i), fmt.Sprintf("y%d vs time", i), 80, 10))
		fmt.Println()
	}
	return nil
}

func phasePlot(st *storage.Store, runID string) error {
	if len(phaseAxes) != 2 {
		return fmt.Errorf("--phase needs two state indices")
	}
	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}
	for _, idx := range phaseAxes {
		if idx < 0 || idx >= len(states[0]) {
			return fmt.Errorf("state index %d out of range [0, %d)", idx, len(states[0]))
		}
	}

	portrait, err := analysis.NewPhasePortrait(storage.Column(states, phaseAxes[0]), storage.Column(states, phaseAxes[1]))
	if err != nil {
		return err
	}
	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("x%d vs x%d", phaseAxes[1], phaseAxes[0])))
	fmt.Print(portrait.ASCII(80, 24))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outFile != "" {
		return st.ExportJSONFile(outFile, args[0])
	}
	return st.ExportJSON(os.Stdout, args[0])
}

func stepAnalysis(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	outputs, times, err := st.LoadOutputs(args[0])
	if err != nil {
		return err
	}
	if len(outputs) == 0 || outputIndex < 0 || outputIndex >= len(outputs[0]) {
		return fmt.Errorf("run has no output y%d", outputIndex)
	}

	info, err := analysis.StepInfo(times, storage.Column(outputs, outputIndex))
	if err != nil {
		return err
	}

	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("step response of y%d", outputIndex)))
	fmt.Println(viz.Metric("steady state", info.SteadyState))
	fmt.Println(viz.Metric("peak", info.Peak))
	fmt.Println(viz.Metric("peak time", info.PeakTime))
	fmt.Println(viz.Metric("overshoot %", info.Overshoot))
	fmt.Println(viz.Metric("rise time", info.RiseTime))
	if math.IsInf(info.SettlingTime, 1) {
		fmt.Println(viz.Field("settling time", viz.StatusFailed.Render("not settled")))
	} else {
		fmt.Println(viz.Metric("settling time", info.SettlingTime))
	}
	return nil
}
