package main

import (
	"fmt"

	"pgstay/pkg/auth"
	"pgstay/pkg/config"

	"github.com/spf13/cobra"
)

func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed principal token",
		Example: "  pgstayctl token --role admin --user ops\n" +
			"  pgstayctl token --role tenant --user <user-id> --tenant <tenant-id>",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			userID, _ := cmd.Flags().GetString("user")
			tenantID, _ := cmd.Flags().GetString("tenant")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			principal, err := principalFromFlags(role, userID, tenantID)
			if err != nil {
				return err
			}

			cfg := config.FromEnv(ToolName + "-token")
			if len(cfg.JWTSecret) < config.MinJWTSecretLen {
				return fmt.Errorf("%s must be at least %d characters", config.EnvJWTSecret, config.MinJWTSecretLen)
			}
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}

			token, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, ttl).Issue(principal)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("role", string(auth.RoleAdmin), "principal role: admin or tenant")
	cmd.Flags().String("user", "", "user id of the principal")
	cmd.Flags().String("tenant", "", "tenant profile id, required for the tenant role")
	cmd.Flags().Duration("ttl", 0, "token lifetime, defaults to TOKEN_TTL")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func principalFromFlags(role, userID, tenantID string) (auth.Principal, error) {
	p := auth.Principal{UserID: userID, Role: auth.Role(role), TenantID: tenantID}
	switch p.Role {
	case auth.RoleAdmin:
		p.TenantID = ""
	case auth.RoleTenant:
		if tenantID == "" {
			return auth.Principal{}, fmt.Errorf("--tenant is required for the tenant role")
		}
	default:
		return auth.Principal{}, fmt.Errorf("role must be %s or %s, got %q", auth.RoleAdmin, auth.RoleTenant, role)
	}
	return p, nil
}
