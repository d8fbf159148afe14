// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jamhost/jamhost/internal/plugin/probe"
	"github.com/jamhost/jamhost/pkg/abi"
	"github.com/jamhost/jamhost/pkg/errutil"
)

// CandidateReport is the inspect output for one candidate library.
type CandidateReport struct {
	Name    string          `json:"name"`
	Path    string          `json:"path"`
	Control bool            `json:"control"`
	Plugin  *abi.PluginInfo `json:"plugin,omitempty"`
	Code    string          `json:"code,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// inspectConfig holds configuration for the inspect command.
type inspectConfig struct {
	jsonOutput bool
}

// newInspectCmd creates the inspect subcommand.
func newInspectCmd(root *rootConfig, deps *Deps) *cobra.Command {
	cfg := &inspectConfig{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Classify every candidate library without running one",
		Long: `Load each candidate library next to the jamhost executable, ask it to
describe itself, and report the result. Every library is unloaded again and
no plugin is attached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, root, cfg, deps)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output classification as JSON")

	return cmd
}

// runInspect executes the inspect command.
func runInspect(cmd *cobra.Command, root *rootConfig, cfg *inspectConfig, deps *Deps) error {
	env, err := setup(cmd, root, deps)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	s, err := env.openScanner()
	if err != nil {
		env.finish(ctx, err)
		errutil.LogError(ctx, env.logger, "inspect failed", err)
		return err
	}

	prober := probe.New(env.deps.Runtime, probe.WithLogger(env.logger), probe.WithMetrics(env.metrics))
	reports := buildReports(prober.Inspect(ctx, s.Candidates()))
	env.finish(ctx, nil)

	var output string
	if cfg.jsonOutput {
		output, err = formatReportsJSON(reports)
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
	} else {
		output = formatReportsTable(reports)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}

func buildReports(verdicts []probe.Verdict) []CandidateReport {
	reports := make([]CandidateReport, 0, len(verdicts))
	for _, v := range verdicts {
		r := CandidateReport{
			Name:    v.Candidate.Name,
			Path:    v.Candidate.Path,
			Control: v.Control,
		}
		code := errutil.Code(v.Err)
		if v.Err == nil || code == probe.CodeTypeAbsent {
			info := v.Info
			r.Plugin = &info
		}
		if v.Err != nil {
			r.Code = code
			r.Error = v.Err.Error()
		}
		reports = append(reports, r)
	}
	return reports
}

// formatReportsTable formats the reports as a human-readable table.
func formatReportsTable(reports []CandidateReport) string {
	if len(reports) == 0 {
		return "no candidate libraries found"
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "LIBRARY\tTYPE\tPRODUCT\tID\tSTATUS")
	_, _ = fmt.Fprintln(w, "-------\t----\t-------\t--\t------")

	for _, r := range reports {
		typ, product, id := "-", "-", "-"
		if r.Plugin != nil {
			if r.Plugin.TypePresent {
				typ = r.Plugin.Type
			}
			if r.Plugin.Product != "" {
				product = r.Plugin.Product
			}
			id = fmt.Sprintf("%#x", r.Plugin.ID)
		}

		status := "ignored"
		switch {
		case r.Control:
			status = "control"
		case r.Error != "":
			status = r.Code
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Name, typ, product, id, status)
	}

	_ = w.Flush()
	return buf.String()
}

// formatReportsJSON formats the reports as JSON.
func formatReportsJSON(reports []CandidateReport) (string, error) {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
