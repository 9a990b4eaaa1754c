package influencer

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/taippa-io/taippa/domains/influencers/be/importer"
	"github.com/taippa-io/taippa/domains/influencers/be/repo"
	platformlogging "github.com/taippa-io/taippa/platform/go/logging"
	"github.com/taippa-io/taippa/platform/go/persistence"
	"github.com/taippa-io/taippa/platform/go/storage"
)

// Command groups directory helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "influencer",
		Short: "Influencer directory utilities",
	}

	cmd.AddCommand(importCommand())
	return cmd
}

func importCommand() *cobra.Command {
	var (
		databaseURL     string
		tenantID        string
		file            string
		concurrency     int
		credentialsFile string
		logLevel        string
	)

	c := &cobra.Command{
		Use:   "import",
		Short: "Upsert influencers from a JSON/YAML file (local path or gs://bucket/object)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			tid, err := uuid.Parse(tenantID)
			if err != nil {
				return fmt.Errorf("invalid tenant uuid: %w", err)
			}

			logger, err := platformlogging.NewLogger(platformlogging.Config{
				Component: "taippa-cli",
				Level:     logLevel,
				Output:    cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			var client *gcs.Client
			if storage.NeedsClient(file) {
				var opts []option.ClientOption
				if credentialsFile != "" {
					opts = append(opts, option.WithCredentialsFile(credentialsFile))
				}
				client, err = gcs.NewClient(ctx, opts...)
				if err != nil {
					return fmt.Errorf("init gcs client: %w", err)
				}
				defer client.Close()
			}

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			tenants, err := persistence.NewTenantStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init tenant store: %w", err)
			}
			if _, err := tenants.Get(ctx, tid); err != nil {
				return fmt.Errorf("lookup tenant %s: %w", tid, err)
			}

			store, err := persistence.NewInfluencerStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init influencer store: %w", err)
			}

			im, err := importer.New(repo.NewPostgresRepository(store), logger, importer.WithConcurrency(concurrency))
			if err != nil {
				return err
			}

			res, err := im.ImportFile(ctx, storage.NewSource(client), file, tid)
			if err != nil {
				return fmt.Errorf("import %s: %w", file, err)
			}

			for _, rej := range res.Rejected {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", rej.Error())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d influencers (%d rejected, %d duplicate handles).\n",
				res.Imported, len(res.Rejected), res.Duplicates)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	c.Flags().StringVar(&tenantID, "tenant", "", "Target tenant UUID")
	c.Flags().StringVar(&file, "file", "", "Import file: local path or gs://bucket/object (.json, .yaml, .yml)")
	c.Flags().IntVar(&concurrency, "concurrency", 4, "Maximum concurrent upserts")
	c.Flags().StringVar(&credentialsFile, "gcs-credentials-file", "", "Service account JSON for gs:// sources (defaults to ADC)")
	c.Flags().StringVar(&logLevel, "log-level", "info", "Log level")

	_ = c.MarkFlagRequired("database-url")
	_ = c.MarkFlagRequired("tenant")
	_ = c.MarkFlagRequired("file")

	return c
}
