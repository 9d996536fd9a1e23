package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/run-bigpig/ava/internal/intent"
	"github.com/run-bigpig/ava/internal/parser"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <message>",
	Short: "Run the classifier on a single message and print the decoded intent",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		raw, err := a.agents.Classifier().Evaluate(cmd.Context(), strings.Join(args, " "), "")
		if err != nil {
			return err
		}
		parsed := parser.Parse(raw)
		in := intent.Decode(parsed)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "raw:    %s\n", raw)
		fmt.Fprintf(out, "parsed: %v\n", parsed)
		fmt.Fprintf(out, "intent: %s %+v\n", in.Kind(), in)
		if err := in.Validate(); err != nil {
			fmt.Fprintf(out, "invalid: %v\n", err)
		}
		return nil
	},
}
