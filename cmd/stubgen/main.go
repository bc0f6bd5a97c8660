package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-slark/svcindex/client"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stubgen",
	Short: "generate Go stubs for a service registered in the index",
	Long: "stubgen fetches one service descriptor from the index and writes a Go file " +
		"with a stub function per method. Any failure to fetch the descriptor is fatal.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		index, _ := flags.GetString("index")
		name, _ := flags.GetString("name")
		version, _ := flags.GetString("version")
		pkg, _ := flags.GetString("package")
		out, _ := flags.GetString("out")
		timeout, _ := flags.GetDuration("timeout")

		src, err := run(cmd.Context(), client.New(index, client.WithTimeout(timeout)), name, version, pkg)
		if err != nil {
			return err
		}
		if out == "" {
			_, err = cmd.OutOrStdout().Write(src)
			return err
		}
		return os.WriteFile(out, src, 0o644)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.String("index", "http://localhost:8000", "index base URL")
	flags.String("name", "", "service name")
	flags.String("version", "", "service version, major.minor.patch")
	flags.String("package", "", "package clause of the generated file, derived from the name by default")
	flags.StringP("out", "o", "", "output file, stdout by default")
	flags.Duration("timeout", 10*time.Second, "index request timeout")
	_ = rootCmd.MarkFlagRequired("name")
	_ = rootCmd.MarkFlagRequired("version")
}

// run performs exactly one lookup. There is no fallback when it fails.
func run(ctx context.Context, c *client.Client, name, version, pkg string) ([]byte, error) {
	d, err := c.Get(ctx, name, version)
	if err != nil {
		return nil, fmt.Errorf("lookup %s@%s: %w", name, version, err)
	}
	return Generate(d, pkg)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
