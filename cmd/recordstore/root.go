/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suparena/recordstore"
	"github.com/suparena/recordstore/config"
	"github.com/suparena/recordstore/internal/app"
	"github.com/suparena/recordstore/models"
	"github.com/suparena/recordstore/storagemodels"
)

var (
	verbose bool
	actor   string

	backend *app.Backend
	storage *recordstore.Storage
)

var rootCmd = &cobra.Command{
	Use:   "recordstore",
	Short: "Inspect records of the registered entity types",
	Long: `recordstore reads and deletes records of the example entities through the
backend selected in config.yaml, .env or the environment (STORE_BACKEND).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Annotations["offline"] == "true" {
			return
		}
		if actor != "" {
			cmd.SetContext(storagemodels.WithActor(cmd.Context(), actor))
		}

		cfg, err := config.Load()
		if err != nil {
			fatal("Error loading configuration", err)
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		logger := app.NewLogger(cfg.Log)

		backend, err = app.NewBackend(cmd.Context(), cfg, logger)
		if err != nil {
			fatal("Error connecting to backend", err)
		}
		storage, err = openStorage(backend)
		if err != nil {
			fatal("Error opening stores", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if backend != nil {
			backend.Close()
		}
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "Identity recorded on writes")
}

func openStorage(b *app.Backend) (*recordstore.Storage, error) {
	s := recordstore.NewStorage()
	if err := register[models.Project](s, b); err != nil {
		return nil, err
	}
	if err := register[models.User](s, b); err != nil {
		return nil, err
	}
	if err := register[models.APIKey](s, b); err != nil {
		return nil, err
	}
	return s, nil
}

func register[T any](s *recordstore.Storage, b *app.Backend) error {
	ds, err := app.Open[T](b)
	if err != nil {
		return err
	}
	return recordstore.Register[T](s, ds)
}

func lookup(name string) recordstore.Handle {
	h, err := storage.Lookup(name)
	if err != nil {
		fatal("Error", fmt.Errorf("unknown type %q (see 'recordstore types')", name))
	}
	return h
}
