package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sandeepkv93/product-catalog-api/internal/config"
	"github.com/sandeepkv93/product-catalog-api/internal/database"
	"github.com/sandeepkv93/product-catalog-api/internal/tools/common"
	"github.com/sandeepkv93/product-catalog-api/internal/tools/ui"
)

type options struct {
	envFile string
	migrate bool
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Demo catalog seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().BoolVar(&opts.migrate, "migrate", true, "create the products table before seeding")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts))
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Insert the demo catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			details, err := run(opts, "seed apply", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				sqlDB, _ := db.DB()
				defer func() { _ = sqlDB.Close() }()

				if opts.migrate {
					if err := database.Migrate(db); err != nil {
						return nil, err
					}
				}
				report, err := database.Seed(db)
				if err != nil {
					return nil, err
				}
				return []string{
					fmt.Sprintf("created_products=%d", report.CreatedProducts),
					fmt.Sprintf("skipped_products=%d", report.SkippedProducts),
					fmt.Sprintf("noop=%t", report.Noop),
				}, nil
			})
			common.RecordRun(cmd.Context(), "seed", "apply", start, err)
			if opts.ci {
				common.PrintCIResult(err == nil, "seed apply", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would insert",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			details, err := run(opts, "seed dry-run", func(ctx context.Context) ([]string, error) {
				catalog := database.DemoCatalog()
				details := make([]string, 0, len(catalog)+1)
				for _, p := range catalog {
					details = append(details, fmt.Sprintf("would ensure product %q price=%s quantity=%d", p.Title, p.Price.StringFixed(2), p.Quantity))
				}
				return append(details, "products with an existing title are skipped"), nil
			})
			common.RecordRun(cmd.Context(), "seed", "dry-run", start, err)
			if opts.ci {
				common.PrintCIResult(err == nil, "seed dry-run", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		return fn(context.Background())
	}
	return ui.Run(title, 2*time.Minute, fn)
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required for seeding")
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
