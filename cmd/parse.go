package cmd

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kilianp07/lrinject/core/model"
	"github.com/kilianp07/lrinject/core/parser"
)

var maxParseErrors int

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Validate a car data file without emitting anything",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().IntVar(&maxParseErrors, "max-errors", 10, "number of malformed lines to print")
	rootCmd.AddCommand(parseCmd)
}

// parseSummary counts records by type.
type parseSummary struct {
	Lines   int
	Types   map[string]int
	Ignored int
	Errors  int
}

func runParse(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	out := cmd.OutOrStdout()
	sum := parseSummary{Types: make(map[string]int)}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		sum.Lines++
		line := sc.Text()
		if parser.Blank(line) {
			continue
		}
		ev, err := parser.ParseRecord(line)
		if err != nil {
			sum.Errors++
			if sum.Errors <= maxParseErrors {
				fmt.Fprintf(out, "%s:%d: %v\n", args[0], sum.Lines, err)
			}
			continue
		}
		if ev == nil {
			sum.Ignored++
			continue
		}
		sum.Types[ev.Type().String()]++
	}
	if err := sc.Err(); err != nil {
		return err
	}

	names := make([]string, 0, len(sum.Types))
	for n := range sum.Types {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintf(out, "lines: %d\n", sum.Lines)
	for _, n := range names {
		fmt.Fprintf(out, "  %-20s %d\n", n, sum.Types[n])
	}
	fmt.Fprintf(out, "  %-20s %d\n", model.RecordType(-1).String(), sum.Ignored)
	if sum.Errors > 0 {
		return fmt.Errorf("%d malformed line(s)", sum.Errors)
	}
	return nil
}
