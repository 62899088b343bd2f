/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the registered entity types",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("backend: %s\n", backend.Kind())
		for _, name := range storage.Names() {
			s := lookup(name).Schema()
			fmt.Printf("%-8s table=%s key=%s(%s) fuzzy=[%s] unique=[%s]\n",
				name, s.Table, s.Key, s.KeyKind, strings.Join(s.Fuzzy, ","), strings.Join(s.Unique, ","))
		}
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
