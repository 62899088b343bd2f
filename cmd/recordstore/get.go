/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get [type] [id]",
	Short: "Print one record as JSON",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		h := lookup(args[0])

		record, err := h.FindByID(cmd.Context(), args[1])
		if err != nil {
			fatal("Error reading record", err)
		}
		if record == nil {
			fmt.Fprintf(os.Stderr, "%s %s not found\n", h.Name(), args[1])
			os.Exit(1)
		}
		printJSON(record)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
