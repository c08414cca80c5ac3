// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/canonical/customer-portal/internal/config"
	"github.com/canonical/customer-portal/internal/db"
	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/pkg/accounts"
)

var profileFlags accounts.NewProfile

var roleFlags struct {
	userID    string
	accountID string
	role      string
	grantedBy string
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Link users to customer accounts",
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage user profiles",
}

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage account roles",
}

var profileCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the profile linking an identity to an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, o, err := newAccountService()
		if err != nil {
			return err
		}
		defer o.Close()

		p, err := service.CreateProfile(cmd.Context(), profileFlags)
		if err != nil {
			return err
		}

		return printJSON(cmd, p)
	},
}

var roleAssignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Grant a role, super_admin grants are platform wide",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, o, err := newAccountService()
		if err != nil {
			return err
		}
		defer o.Close()

		r, err := assignRole(cmd.Context(), o.db, service, roleFlags.userID, roleFlags.accountID, types.AppRole(roleFlags.role), roleFlags.grantedBy)
		if err != nil {
			return err
		}

		return printJSON(cmd, r)
	},
}

type roleAssigner interface {
	AssignRole(ctx context.Context, userID, accountID string, role types.AppRole, grantedBy string) (*types.UserRole, error)
}

// assignRole runs the grant in one transaction, the role row is rolled back
// when the tuple write fails.
func assignRole(ctx context.Context, tx db.DBClientInterface, service roleAssigner, userID, accountID string, role types.AppRole, grantedBy string) (*types.UserRole, error) {
	var r *types.UserRole

	err := tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		r, err = service.AssignRole(ctx, userID, accountID, role, grantedBy)
		return err
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

// fgaSpec is the part of the server environment operator commands need to
// keep OpenFGA in sync.
type fgaSpec struct {
	AuthorizationEnabled bool   `envconfig:"authorization_enabled" default:"false"`
	OpenfgaApiURL        string `envconfig:"openfga_api_url"`
	OpenfgaApiToken      string `envconfig:"openfga_api_token"`
	OpenfgaStoreId       string `envconfig:"openfga_store_id"`
	OpenfgaModelId       string `envconfig:"openfga_authorization_model_id"`
}

// newAccountService writes role tuples to OpenFGA too when the
// environment enables authorization. The caller closes the operator.
func newAccountService() (*accounts.Service, *operator, error) {
	fga := new(fgaSpec)
	if err := envconfig.Process("", fga); err != nil {
		return nil, nil, fmt.Errorf("issues with environment sourcing: %w", err)
	}

	o, err := newOperator()
	if err != nil {
		return nil, nil, err
	}

	specs := &config.EnvSpec{
		AuthorizationEnabled: fga.AuthorizationEnabled,
		OpenfgaApiURL:        fga.OpenfgaApiURL,
		OpenfgaApiToken:      fga.OpenfgaApiToken,
		OpenfgaStoreId:       fga.OpenfgaStoreId,
		OpenfgaModelId:       fga.OpenfgaModelId,
	}

	authorizer, err := newAuthorizer(specs, o.tracer, o.monitor, o.logger)
	if err != nil {
		o.Close()
		return nil, nil, err
	}

	return accounts.NewService(o.store, authorizer, o.tracer, o.monitor, o.logger), o, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	return nil
}

func init() {
	pf := profileCreateCmd.Flags()
	pf.StringVar(&profileFlags.UserID, "user-id", "", "identity ID")
	pf.StringVar(&profileFlags.AccountID, "account-id", "", "account to link the user to")
	pf.StringVar(&profileFlags.Email, "email", "", "email address")
	pf.StringVar(&profileFlags.FirstName, "first-name", "", "first name")
	pf.StringVar(&profileFlags.LastName, "last-name", "", "last name")
	pf.StringVar(&profileFlags.Locale, "locale", accounts.DefaultLocale, "preferred locale")

	for _, f := range []string{"user-id", "account-id", "email"} {
		_ = profileCreateCmd.MarkFlagRequired(f)
	}

	rf := roleAssignCmd.Flags()
	rf.StringVar(&roleFlags.userID, "user-id", "", "identity ID")
	rf.StringVar(&roleFlags.accountID, "account-id", "", "account the grant is recorded on, super_admin applies platform wide")
	rf.StringVar(&roleFlags.role, "role", string(types.RoleAccountUser), "super_admin, account_admin or account_user")
	rf.StringVar(&roleFlags.grantedBy, "granted-by", "", "identity ID of the granting user")

	_ = roleAssignCmd.MarkFlagRequired("user-id")

	profileCmd.AddCommand(profileCreateCmd)
	roleCmd.AddCommand(roleAssignCmd)
	accountCmd.AddCommand(profileCmd, roleCmd)
	rootCmd.AddCommand(accountCmd)
}
