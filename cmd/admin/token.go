package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radif/imagehost/internal/account"
	"github.com/radif/imagehost/internal/auth"
	"github.com/radif/imagehost/internal/db"
)

var (
	tokenAccountID string
	tokenUsername  string
	tokenTTL       = auth.DefaultTokenTTL
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issues a bearer token for an existing account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if (tokenAccountID == "") == (tokenUsername == "") {
			return errors.New("exactly one of --account or --username is required")
		}

		ctx := cmd.Context()
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		repo := account.NewRepository(pool)
		var a *account.Account
		if tokenAccountID != "" {
			a, err = repo.GetByID(ctx, tokenAccountID)
		} else {
			a, err = repo.GetByUsername(ctx, tokenUsername)
		}
		if err != nil {
			return err
		}
		if a.TierName == nil {
			return fmt.Errorf("account %s: %w", a.ID, account.ErrNoTier)
		}

		tok, err := auth.IssueToken([]byte(cfg.JWTSecret), a.ID, *a.TierName, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenAccountID, "account", "", "account id")
	tokenCmd.Flags().StringVar(&tokenUsername, "username", "", "account username")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.DefaultTokenTTL, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
