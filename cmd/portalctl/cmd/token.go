package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vhu/portal/internal/config"
	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/service"
)

// TokenCmd issues a signed API token, for operators and local testing.
// Production tokens come from the identity provider.
func TokenCmd() *cobra.Command {
	var (
		userID int64
		roles  []string
		expiry time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the media and content API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if expiry <= 0 {
				expiry = cfg.JWTExpiry
			}

			for i, role := range roles {
				roles[i] = strings.ToUpper(role)
				if roles[i] != model.RoleAdmin && roles[i] != model.RoleEditor {
					return fmt.Errorf("unknown role %q", role)
				}
			}

			auth := service.NewAuthService(cfg.JWTSecret, expiry)
			token, err := auth.GenerateJWT(&model.Principal{UserID: userID, Roles: roles})
			if err != nil {
				return err
			}

			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 1, "user id placed in the token")
	cmd.Flags().StringSliceVar(&roles, "role", []string{model.RoleEditor}, "roles (ADMIN, EDITOR)")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "token lifetime (default JWT_EXPIRY)")
	return cmd
}
