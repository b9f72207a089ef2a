package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/pkg/objectstore"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Copy the configured inventory snapshot into a directory of JSON files",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var objects objectstore.Store
		if cfg.S3.Enabled {
			s3, err := objectstore.NewS3(ctx, &cfg.S3, log)
			if err != nil {
				return err
			}
			objects = s3
		}

		src, closeSrc, err := store.PersisterFromConfig(ctx, cfg, objects, log)
		if err != nil {
			return err
		}
		defer closeSrc()

		state, err := src.Load(ctx)
		if err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}

		dst, err := store.NewFilePersister(exportOut)
		if err != nil {
			return err
		}
		if err := dst.Save(ctx, state); err != nil {
			return fmt.Errorf("write export: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "exported %d items, %d locations, %d categories, %d history entries to %s\n",
			len(state.Items), len(state.Locations), len(state.Categories), len(state.History), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "./export", "destination directory")
}
