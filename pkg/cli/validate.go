package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/routemock/pkg/cli/internal/output"
)

// ValidateOutput is the JSON form of one validated file.
type ValidateOutput struct {
	File   string `json:"file"`
	Routes int    `json:"routes"`
	Error  string `json:"error,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and normalize every route file without serving",
	Example: `  # Validate the files listed in routemock.yaml
  routemock validate

  # Validate specific files
  routemock validate --routes routes/users.yaml --routes "routes/**/*.hcl"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		results, err := loadRouteFiles(cfg)
		if err != nil {
			return err
		}

		out := make([]ValidateOutput, 0, len(results))
		failed, total := 0, 0
		for _, r := range results {
			o := ValidateOutput{File: relPath(r.Path), Routes: len(r.Specs)}
			if r.Err != nil {
				o.Error = r.Err.Error()
				failed++
			}
			total += len(r.Specs)
			out = append(out, o)
		}

		w := cmd.OutOrStdout()
		if rootFlags.json {
			if err := output.JSON(w, out); err != nil {
				return err
			}
		} else {
			for _, o := range out {
				if o.Error != "" {
					fmt.Fprintf(w, "FAIL  %s\n      %s\n", o.File, o.Error)
					continue
				}
				fmt.Fprintf(w, "ok    %s (%d routes)\n", o.File, o.Routes)
				if o.Routes == 0 {
					output.Warn(cmd.ErrOrStderr(), "%s defines no routes", o.File)
				}
			}
		}

		if failed > 0 {
			return fmt.Errorf("%w: %d of %d files", errValidationFailed, failed, len(results))
		}
		if !rootFlags.json {
			fmt.Fprintf(w, "%d files, %d routes\n", len(results), total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
