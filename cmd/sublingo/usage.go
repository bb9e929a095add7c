package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sublingo-ai/sublingo/internal/config"
	"github.com/sublingo-ai/sublingo/internal/usage"
)

func newUsageCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show API usage counts recorded by previous runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.Open(*configFlag)
			if err != nil {
				return err
			}

			meter := usage.NewMeter(filepath.Join(workspaceDir(store), usageFileName))
			fmt.Fprintln(cmd.OutOrStdout(), renderUsage(meter.Snapshot()))
			return nil
		},
	}
}

// renderUsage formats a snapshot as one table of per-function counts
// and one of per-origin counts, with a grand total.
func renderUsage(snap usage.Snapshot) string {
	if snap.TotalCalls == 0 {
		return "no API usage recorded"
	}

	functions := table.NewWriter()
	functions.SetStyle(tableStyle())
	functions.AppendHeader(table.Row{"Function", "Calls"})
	for _, name := range sortedKeys(snap.Functions) {
		functions.AppendRow(table.Row{name, snap.Functions[name].TotalCalls})
	}
	functions.AppendFooter(table.Row{"Total", snap.TotalCalls})

	origins := table.NewWriter()
	origins.SetStyle(tableStyle())
	origins.AppendHeader(table.Row{"Origin", "Calls"})
	for _, name := range sortedKeys(snap.ByOrigin) {
		origins.AppendRow(table.Row{name, snap.ByOrigin[name]})
	}

	return "API calls by function:\n" + functions.Render() +
		"\n\nAPI calls by origin:\n" + origins.Render() +
		"\n\nTotal API calls: " + strconv.Itoa(snap.TotalCalls)
}

// tableStyle picks rounded borders on a terminal, plain ASCII when the
// output is redirected.
func tableStyle() table.Style {
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return table.StyleRounded
	}
	return table.StyleDefault
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
