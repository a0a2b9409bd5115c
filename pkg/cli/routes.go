package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/routemock/pkg/cli/internal/output"
	"github.com/getmockd/routemock/pkg/route"
)

// RouteOutput is the JSON form of one route.
type RouteOutput struct {
	Method     string `json:"method"`
	URL        string `json:"url"`
	Source     string `json:"source"`
	Index      int    `json:"index"`
	Generator  bool   `json:"generator,omitempty"`
	Range      string `json:"range,omitempty"`
	Delay      string `json:"delay,omitempty"`
	Processors int    `json:"processors,omitempty"`
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the normalized route table in mount order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		results, err := loadRouteFiles(cfg)
		if err != nil {
			return err
		}

		var rows []RouteOutput
		for _, r := range results {
			if r.Err != nil {
				return r.Err
			}
			for _, s := range r.Specs {
				rows = append(rows, routeOutput(s))
			}
		}

		w := cmd.OutOrStdout()
		if rootFlags.json {
			if rows == nil {
				rows = []RouteOutput{}
			}
			return output.JSON(w, rows)
		}

		tw := output.Table(w)
		fmt.Fprintln(tw, "METHOD\tURL\tSOURCE\tDETAILS")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s#%d\t%s\n", r.Method, r.URL, r.Source, r.Index, details(r))
		}
		return tw.Flush()
	},
}

func routeOutput(s *route.Spec) RouteOutput {
	o := RouteOutput{
		Method:     s.Method,
		URL:        s.URL,
		Source:     relPath(s.Source),
		Index:      s.Index,
		Generator:  s.Generator != nil,
		Processors: len(s.Processors),
	}
	if s.Range != nil {
		o.Range = s.Range.String()
	}
	if s.Delay != nil {
		o.Delay = s.Delay.String()
	}
	return o
}

func details(r RouteOutput) string {
	var parts []string
	if r.Generator {
		parts = append(parts, "generator")
	}
	if r.Range != "" {
		parts = append(parts, "range="+r.Range)
	}
	if r.Delay != "" {
		parts = append(parts, "delay="+r.Delay)
	}
	if r.Processors > 0 {
		parts = append(parts, fmt.Sprintf("processors=%d", r.Processors))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func init() {
	rootCmd.AddCommand(routesCmd)
}
