/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samvaad/apiserver/config"
	"github.com/samvaad/apiserver/internal/db"
	"github.com/samvaad/apiserver/internal/store"
	"github.com/samvaad/apiserver/types"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// seedAdminCmd creates the deployment admin account from ADMIN_EMAIL
// and ADMIN_PASSWORD. It is idempotent: an existing account with that
// email is left untouched.
var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the admin account if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		email := strings.TrimSpace(cfg.Admin.Email)
		if email == "" || cfg.Admin.Password == "" {
			return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required")
		}

		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		accounts := store.NewAccountRepository(conn)

		if _, err := accounts.GetByEmail(cmd.Context(), email); err == nil {
			fmt.Printf("admin account %s already exists\n", email)
			return nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		created, err := accounts.Create(cmd.Context(), types.Account{
			Email:        email,
			Name:         "Administrator",
			Role:         types.RoleAdmin,
			Status:       types.StatusApproved,
			PasswordHash: string(hashed),
		})
		if err != nil {
			return err
		}

		fmt.Printf("created admin account %s (id %d)\n", created.Email, created.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedAdminCmd)
}
