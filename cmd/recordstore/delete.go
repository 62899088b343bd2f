/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [type] [id]",
	Short: "Delete one record",
	Long:  `Delete removes a record by key. Deleting a missing record is not an error.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		h := lookup(args[0])

		removed, err := h.DeleteByID(cmd.Context(), args[1])
		if err != nil {
			fatal("Error deleting record", err)
		}
		if !removed {
			fmt.Printf("%s %s did not exist\n", h.Name(), args[1])
			return
		}
		fmt.Printf("%s deleted: %s\n", h.Name(), args[1])
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
