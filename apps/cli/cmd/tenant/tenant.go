package tenantcmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/taippa-io/taippa/platform/go/persistence"
)

// Command groups tenant-related helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Tenant utilities",
	}

	cmd.AddCommand(createCommand())
	return cmd
}

func createCommand() *cobra.Command {
	var (
		databaseURL string
		tenantID    string
		tenantSlug  string
		tenantName  string
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Register a tenant (returns the existing tenant when the slug is taken)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			id := uuid.New()
			if tenantID != "" {
				parsed, err := uuid.Parse(tenantID)
				if err != nil {
					return fmt.Errorf("invalid tenant-id uuid: %w", err)
				}
				id = parsed
			}

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			store, err := persistence.NewTenantStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init tenant store: %w", err)
			}

			name := tenantName
			if name == "" {
				name = tenantSlug
			}

			t, err := store.Create(ctx, persistence.TenantRecord{TenantID: id, Slug: tenantSlug, DisplayName: name})
			if err != nil {
				if !errors.Is(err, persistence.ErrTenantConflict) {
					return fmt.Errorf("create tenant: %w", err)
				}
				existing, getErr := store.GetBySlug(ctx, tenantSlug)
				if getErr != nil {
					return fmt.Errorf("tenant exists but could not fetch: %w", getErr)
				}
				t = existing
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Tenant: %s (%s)\n", t.Slug, t.TenantID)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	c.Flags().StringVar(&tenantID, "tenant-id", "", "Tenant UUID (generated when omitted)")
	c.Flags().StringVar(&tenantSlug, "slug", "", "Tenant slug (kebab-case)")
	c.Flags().StringVar(&tenantName, "name", "", "Display name for tenant (defaults to slug)")

	_ = c.MarkFlagRequired("database-url")
	_ = c.MarkFlagRequired("slug")

	return c
}
