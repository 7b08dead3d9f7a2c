package main

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"disaster-bot/internal/config"
	"disaster-bot/internal/database"
	"disaster-bot/internal/middleware"
	"disaster-bot/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbURL, dir := config.LoadDatabaseURL()
		ctx := cmd.Context()

		pool, err := database.NewPostgresPool(ctx, dbURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := database.RunMigrations(ctx, pool, dir); err != nil {
			return err
		}
		log.Println("✓ Database migrations applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace all data with the reference disasters, alerts and resources",
	Long: `Seed truncates every table and loads a reference dataset of active
disasters, alerts and relief resources across India. Migrations are applied
first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbURL, dir := config.LoadDatabaseURL()
		ctx := cmd.Context()

		pool, err := database.NewPostgresPool(ctx, dbURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := database.RunMigrations(ctx, pool, dir); err != nil {
			return err
		}

		res, err := repository.Seed(ctx, pool, time.Now())
		if err != nil {
			return err
		}
		log.Printf("✓ Seeded %d disasters, %d alerts, %d resources", res.Disasters, res.Alerts, res.Resources)
		return nil
	},
}

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <operator-name>",
	Short: "Mint an operator JWT for the protected /api/v1/operator routes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jwtAuth := middleware.NewJWTAuth(config.LoadJWTSecret())
		token, err := jwtAuth.GenerateOperatorToken(args[0], tokenTTL)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")
}
