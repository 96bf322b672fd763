package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/internal/storage"
	"github.com/yeisme/filterbot/pkg/internal/storage/db"
	"github.com/yeisme/filterbot/pkg/internal/storage/record"
)

var (
	storeCmd = &cobra.Command{
		Use:   "store",
		Short: "Record store related commands",
	}

	storeListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list supported record store backends",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Record store types:")
			fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(configs.StoreTypeMongo))
			fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(configs.StoreTypeSQL))

			fmt.Fprintln(cmd.OutOrStdout(), "Registered SQL database types:")
			for _, t := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	storeIndexesCmd = &cobra.Command{
		Use:   "indexes",
		Short: "create the record store indexes and report the search capability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			store, err := storage.NewStore(ctx, cfg)
			if err != nil {
				return err
			}

			defer func() { _ = store.Close(context.WithoutCancel(ctx)) }()

			if err := store.EnsureIndexes(ctx); err != nil {
				return fmt.Errorf("ensure indexes: %w", err)
			}

			text, err := store.HasTextIndex(ctx, record.FieldFileName)
			if err != nil {
				return fmt.Errorf("probe text index: %w", err)
			}

			files, err := store.CountFiles(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "store: %s\nfiles: %d\ntext index on %s: %t\n",
				store.Kind(), files, record.FieldFileName, text)

			return nil
		},
	}
)

// registerStoreCommands 注册记录存储相关命令.
func registerStoreCommands() {
	rootCmd.AddCommand(storeCmd)

	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeIndexesCmd)
}
