package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/hypertune/internal/optimization/space"
)

var spaceCmd = &cobra.Command{
	Use:   "space",
	Short: "Inspect parameter space declarations",
}

var spaceCheckCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Parse a YAML or JSON parameter space and print its canonical form",
	Long: `Parses FILE the same way POST /experiment parses its "params" object.
Prints the encoded dimension and the canonical declaration, or the rejection.`,
	Args: cobra.ExactArgs(1),
	RunE: runSpaceCheck,
}

func init() {
	spaceCmd.AddCommand(spaceCheckCmd)
	rootCmd.AddCommand(spaceCmd)
}

func runSpaceCheck(cmd *cobra.Command, args []string) error {
	logger, err := cliLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sp, err := space.NewParser(logger.Zap()).LoadFile(args[0])
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(map[string]any{
		"dimension":  sp.Dimension(),
		"parameters": sp.Spec(),
	})
	if err != nil {
		return fmt.Errorf("render space: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(out)
	return err
}
