package brand

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/taippa-io/taippa/platform/go/catalog"
	"github.com/taippa-io/taippa/platform/go/persistence"
)

// Command groups brand helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brand",
		Short: "Brand utilities",
	}

	cmd.AddCommand(createCommand())
	return cmd
}

func createCommand() *cobra.Command {
	var (
		databaseURL    string
		tenantID       string
		ownerID        string
		name           string
		description    string
		industry       string
		targetAudience string
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Create a brand owned by a client user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			tid, err := uuid.Parse(tenantID)
			if err != nil {
				return fmt.Errorf("invalid tenant uuid: %w", err)
			}

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			store, err := persistence.NewBrandStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init brand store: %w", err)
			}

			b, err := store.Create(ctx, catalog.Brand{
				TenantID:       tid,
				OwnerID:        ownerID,
				Name:           name,
				Description:    strPtrOrNil(description),
				Industry:       strPtrOrNil(industry),
				TargetAudience: strPtrOrNil(targetAudience),
			})
			if err != nil {
				return fmt.Errorf("create brand: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Brand: %s (%s)\n", b.Name, b.ID)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	c.Flags().StringVar(&tenantID, "tenant", "", "Owning tenant UUID")
	c.Flags().StringVar(&ownerID, "owner-id", "", "Auth subject of the owning client user")
	c.Flags().StringVar(&name, "name", "", "Brand name")
	c.Flags().StringVar(&description, "description", "", "Brand description")
	c.Flags().StringVar(&industry, "industry", "", "Industry")
	c.Flags().StringVar(&targetAudience, "target-audience", "", "Target audience")

	_ = c.MarkFlagRequired("database-url")
	_ = c.MarkFlagRequired("tenant")
	_ = c.MarkFlagRequired("owner-id")
	_ = c.MarkFlagRequired("name")

	return c
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
