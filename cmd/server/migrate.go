package main

import (
	"errors"

	"github.com/spf13/cobra"

	"referearn/internal/referral/store"
)

var errNoDatabase = errors.New("DATABASE_URL is not set, nothing to migrate")

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the referral schema to DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, _, err := store.ParseURL(a.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			if kind == store.KindMemory {
				return errNoDatabase
			}
			// Opening a SQL backend applies its schema.
			st, _, err := store.Open(cmd.Context(), a.cfg.DatabaseURL)
			if err != nil {
				a.log.Error("migration failed", "store", kind, "error", err)
				return err
			}
			a.log.Info("migrations applied", "store", kind)
			return st.Close()
		},
	}
}
