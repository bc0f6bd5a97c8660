package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-slark/svcindex/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "index",
	Short:        "service index",
	Long:         "index answers which services exist, where they listen and which methods they offer",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the index HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		return serve(cmd.Context(), path)
	},
}

func init() {
	serveCmd.Flags().StringP("config", "c", "", "config file (json, yaml or toml); INDEX_* variables override it")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, path string) error {
	src, cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	defer src.Close()

	app, _, c, err := build(ctx, cfg, os.Stdout)
	defer c.close()
	if err != nil {
		return err
	}
	logger.Log(ctx, logger.InfoLevel, map[string]interface{}{"store": cfg.Store.Kind, "addr": cfg.HTTP.Addr}, "index starting")
	return app.Run()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
