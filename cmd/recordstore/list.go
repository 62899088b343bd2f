/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suparena/recordstore/filter"
	"github.com/suparena/recordstore/storagemodels"
)

var (
	listMatch   []string
	listWhere   string
	listKeyword string
	listOrder   string
	listPage    int
	listSize    int
)

var listCmd = &cobra.Command{
	Use:   "list [type]",
	Short: "List one page of records as JSON",
	Long: `List prints one page of records. --match column=value pairs use the
entity's match modes: fuzzy columns match by substring, the others exactly.
--keyword searches every fuzzy column and --where accepts expressions such
as "status==1&&budget>=100".`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		h := lookup(args[0])
		schema := h.Schema()

		pred, page, err := listRequest(schema)
		if err != nil {
			fatal("Error parsing filters", err)
		}

		result, err := h.List(cmd.Context(), pred, backend.PageSpec(page))
		if err != nil {
			fatal("Error listing records", err)
		}
		printJSON(result)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringArrayVarP(&listMatch, "match", "m", nil, "column=value filter, repeatable")
	listCmd.Flags().StringVarP(&listWhere, "where", "w", "", "where expression")
	listCmd.Flags().StringVarP(&listKeyword, "keyword", "k", "", "keyword matched against fuzzy columns")
	listCmd.Flags().StringVar(&listOrder, "order", "", `order column, optionally followed by "desc"`)
	listCmd.Flags().IntVar(&listPage, "page", 1, "page number, starting at 1")
	listCmd.Flags().IntVar(&listSize, "size", 0, "page size (default from configuration)")
}

// listRequest turns the list flags into a predicate and page for schema.
func listRequest(schema storagemodels.Schema) (filter.Predicate, storagemodels.PageSpec, error) {
	modes := filter.Modes{}
	for _, col := range schema.Fuzzy {
		modes[col] = filter.Contains
	}

	values := make(map[string]any, len(listMatch))
	var exact []filter.Condition
	for _, pair := range listMatch {
		col, value, ok := strings.Cut(pair, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return filter.Predicate{}, storagemodels.PageSpec{}, fmt.Errorf("--match %q: want column=value", pair)
		}
		if modes[col] == filter.Contains {
			values[col] = value
			continue
		}
		// exact pairs keep zero values such as status=0
		exact = append(exact, filter.Eq(col, filter.Literal(value)))
	}
	pred := filter.Build(values, modes).And(exact...)

	if listWhere != "" {
		conds, err := filter.ParseWhere(listWhere)
		if err != nil {
			return filter.Predicate{}, storagemodels.PageSpec{}, err
		}
		pred = pred.And(conds...)
	}
	if listKeyword != "" {
		pred = pred.WithKeyword(listKeyword, schema.Fuzzy)
	}

	column, desc, err := filter.ParseOrder(listOrder)
	if err != nil {
		return filter.Predicate{}, storagemodels.PageSpec{}, err
	}
	return pred, storagemodels.PageSpec{Page: listPage, Size: listSize, OrderBy: column, Desc: desc}, nil
}
