package migrate

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sandeepkv93/product-catalog-api/internal/config"
	"github.com/sandeepkv93/product-catalog-api/internal/database"
	"github.com/sandeepkv93/product-catalog-api/internal/domain"
	"github.com/sandeepkv93/product-catalog-api/internal/tools/common"
	"github.com/sandeepkv93/product-catalog-api/internal/tools/ui"
)

const exitMigrateFailed = 3

type options struct {
	envFile string
	dsn     string
	timeout time.Duration
	ci      bool
}

// dbAction runs against an open, pinged database and returns report lines.
type dbAction func(ctx context.Context, db *gorm.DB) ([]string, error)

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Products table schema tooling",
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "database DSN, overrides DATABASE_URL (sqlite://path selects SQLite)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")

	cmd.AddCommand(
		newDBCommand(opts, "up", "Create the products table if it is missing", up),
		newDBCommand(opts, "status", "Report dialect, schema state and catalog size", status),
		newDBCommand(opts, "plan", "Show what up would change without executing it", plan),
	)
	return cmd
}

func newDBCommand(opts *options, name, short string, action dbAction) *cobra.Command {
	title := "migrate " + name
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			details, err := run(opts, title, func(ctx context.Context) ([]string, error) {
				db, err := openDB(opts)
				if err != nil {
					return nil, err
				}
				sqlDB, err := db.DB()
				if err != nil {
					return nil, err
				}
				defer func() { _ = sqlDB.Close() }()
				if err := sqlDB.PingContext(ctx); err != nil {
					return nil, fmt.Errorf("db ping: %w", err)
				}
				return action(ctx, db)
			})
			common.RecordRun(cmd.Context(), "migrate", name, start, err)
			if opts.ci {
				common.PrintCIResult(err == nil, title, details, err)
			}
			if err != nil {
				os.Exit(exitMigrateFailed)
			}
			return nil
		},
	}
}

func up(_ context.Context, db *gorm.DB) ([]string, error) {
	pending := database.PendingMigrations(db)
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	details := []string{"dialect=" + db.Dialector.Name()}
	if len(pending) == 0 {
		return append(details, "products_table=already present"), nil
	}
	for _, step := range pending {
		details = append(details, "applied="+step)
	}
	return details, nil
}

func status(ctx context.Context, db *gorm.DB) ([]string, error) {
	details := []string{"dialect=" + db.Dialector.Name()}
	pending := database.PendingMigrations(db)
	if len(pending) > 0 {
		return append(details, fmt.Sprintf("pending_steps=%d", len(pending))), nil
	}
	var count int64
	if err := db.WithContext(ctx).Model(&domain.Product{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	return append(details, "pending_steps=0", fmt.Sprintf("products=%d", count)), nil
}

func plan(_ context.Context, db *gorm.DB) ([]string, error) {
	pending := database.PendingMigrations(db)
	details := make([]string, 0, len(pending)+1)
	for _, step := range pending {
		details = append(details, "would "+step)
	}
	if len(pending) == 0 {
		details = append(details, "schema up to date")
	}
	return append(details, "no mutation executed in plan mode"), nil
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		defer cancel()
		return fn(ctx)
	}
	return ui.Run(title, opts.timeout, fn)
}

// openDB resolves the DSN from --dsn first, then the env file and process
// environment. The full service config is not validated here so the tool
// works without media credentials.
func openDB(opts *options) (*gorm.DB, error) {
	dsn := opts.dsn
	if dsn == "" {
		if err := common.LoadEnvFile(opts.envFile); err != nil {
			return nil, err
		}
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL (or --dsn) is required for migrations")
	}
	return database.Open(&config.Config{DatabaseURL: dsn})
}
