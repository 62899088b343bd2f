/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/suparena/recordstore/processor"
)

var (
	input   string
	output  string
	pkgName string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "schemagen",
	Short: "Generate RecordStore registrations from an OpenAPI document",
	Long: `schemagen reads the component schemas of an OpenAPI document and writes
Go code registering every schema marked x-recordstore, plus a filter
match-mode table for every request DTO with x-fuzzy properties.`,
	Args: cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := processor.Run(input, output, pkgName); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating code: %v\n", err)
			os.Exit(1)
		}
		slog.Debug("generated registrations", "input", input, "output", output, "package", pkgName)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&input, "input", "i", "openapi.yaml", "OpenAPI document to read")
	rootCmd.Flags().StringVarP(&output, "output", "o", "zz_generated.go", "Go file to write")
	rootCmd.Flags().StringVarP(&pkgName, "package", "p", "models", "Package name of the generated file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
