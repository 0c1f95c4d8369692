package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/lrinject/core/model"
	coresink "github.com/kilianp07/lrinject/core/sink"
)

var channelsFormat string

var channelsCmd = &cobra.Command{
	Use:   "channels [name]",
	Short: "Print the output channel schemas and available sinks",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChannels,
}

func init() {
	channelsCmd.Flags().StringVarP(&channelsFormat, "output", "o", "yaml", "output format: yaml or json")
	rootCmd.AddCommand(channelsCmd)
}

type channelsDoc struct {
	Channels []model.Channel `json:"channels" yaml:"channels"`
	Sinks    []string        `json:"sinks" yaml:"sinks"`
}

func runChannels(cmd *cobra.Command, args []string) error {
	doc := channelsDoc{Channels: model.Channels(), Sinks: coresink.Registered()}
	if len(args) == 1 {
		ch, ok := model.LookupChannel(args[0])
		if !ok {
			return fmt.Errorf("unknown channel %q", args[0])
		}
		doc.Channels = []model.Channel{ch}
	}
	out := cmd.OutOrStdout()
	switch channelsFormat {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		return fmt.Errorf("unknown output format %q", channelsFormat)
	}
}
