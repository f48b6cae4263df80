// In file: cmd/gateway/seed.go
package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/dileep-u-k/agent-gateway/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo collections into a store",
	Long: `Seed writes the generated demo collections (sales, hr, finance and the rest)
into Firestore or an external SQL database so the gateway can be tried against real storage.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().String("type", "", "Target store type: firestore, postgresql, mysql or sqlite (defaults to the configured store)")
	seedCmd.Flags().String("dsn", "", "Connection string for SQL targets")
	seedCmd.Flags().String("project", "", "Firestore project id")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	target := cfg.Store
	target.Demo = false
	if v, _ := cmd.Flags().GetString("type"); v != "" {
		target.Type = v
	}
	if v, _ := cmd.Flags().GetString("dsn"); v != "" {
		target.DSN = v
	}
	if v, _ := cmd.Flags().GetString("project"); v != "" {
		target.ProjectID = v
	}
	if target.Type == "memory" {
		return errors.New("the memory store is rebuilt on every start and cannot be seeded")
	}

	logger := newLogger(cfg).Named("seed")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, _, err := openDefaultStore(ctx, target)
	if err != nil {
		return err
	}
	defer st.Close()

	seeder, ok := st.(store.Seeder)
	if !ok {
		return fmt.Errorf("store type %q does not support seeding", target.Type)
	}

	logger.Info("🚀 seeding demo collections", "type", target.Type)
	start := time.Now()
	data := store.DemoData(start)
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, name := range names {
		wg.Add(1)
		go func(collection string, rows []store.Row) {
			defer wg.Done()
			if err := seeder.Seed(ctx, collection, rows); err != nil {
				logger.Error("❌ failed to seed collection", "collection", collection, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", collection, err))
				mu.Unlock()
				return
			}
			logger.Info("seeded collection", "collection", collection, "rows", len(rows))
		}(name, data[name])
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.Info("✅ seeding complete", "collections", len(names), "duration", time.Since(start))
	return nil
}
