// Package perms is the operator CLI for role permissions. It talks to the
// backend API as a signed-in admin, with the same refresh and session-end
// handling the dashboard uses.
package perms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inventra-labs/gatekeeper/internal/console/apiclient"
	"github.com/inventra-labs/gatekeeper/internal/console/permstore"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
)

const passwordEnv = "GATEKEEPER_ADMIN_PASSWORD"

type options struct {
	api      string
	email    string
	password string
	timeout  time.Duration
	output   string
}

func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "perms",
		Short: "Inspect and edit role permissions",
		Long: `Inspect and edit role permissions through the backend API.

The password may be given with --password or the ` + passwordEnv + ` environment variable.
Every change reloads the role table and rebuilds the server-side permission cache.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.api, "api", "http://localhost:8080", "Backend API base URL")
	cmd.PersistentFlags().StringVar(&opts.email, "email", "", "Admin email")
	cmd.PersistentFlags().StringVar(&opts.password, "password", "", "Admin password")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Per-request timeout")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format: table, json or yaml")

	cmd.AddCommand(
		newListCommand(opts),
		newCatalogCommand(opts),
		newSetCommand(opts),
		newAddCommand(opts),
		newRemoveCommand(opts),
	)
	return cmd
}

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the permissions of every role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, s *permstore.Store) error {
				if err := s.Fetch(ctx); err != nil {
					return err
				}
				return printRoles(cmd.OutOrStdout(), opts.output, s)
			})
		},
	}
}

func newCatalogCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Show every assignable permission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, s *permstore.Store) error {
				if err := s.FetchCatalog(ctx); err != nil {
					return err
				}
				if opts.output != "table" {
					return encode(cmd.OutOrStdout(), opts.output, s.Catalog())
				}
				for _, p := range s.Catalog() {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return nil
			})
		},
	}
}

func newSetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set ROLE [PERMISSION...]",
		Short: "Replace the permission set of a role",
		Long:  `Replace the permission set of a role. With no permissions the role is emptied.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, perms := strings.ToUpper(args[0]), args[1:]
			return mutate(cmd, opts, func(ctx context.Context, s *permstore.Store) (bool, error) {
				return s.UpdateRole(ctx, role, perms)
			})
		},
	}
}

func newAddCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add ROLE PERMISSION",
		Short: "Grant one permission to a role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, opts, func(ctx context.Context, s *permstore.Store) (bool, error) {
				return s.AddPermission(ctx, strings.ToUpper(args[0]), args[1])
			})
		},
	}
}

func newRemoveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ROLE PERMISSION",
		Short: "Revoke one permission from a role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, opts, func(ctx context.Context, s *permstore.Store) (bool, error) {
				return s.RemovePermission(ctx, strings.ToUpper(args[0]), args[1])
			})
		},
	}
}

func mutate(cmd *cobra.Command, opts *options, fn func(context.Context, *permstore.Store) (bool, error)) error {
	return withStore(cmd, opts, func(ctx context.Context, s *permstore.Store) error {
		applied, err := fn(ctx, s)
		if err != nil {
			return err
		}
		if !applied {
			return errors.New("change not applied")
		}
		return printRoles(cmd.OutOrStdout(), opts.output, s)
	})
}

// withStore signs in, runs fn and signs out again.
func withStore(cmd *cobra.Command, opts *options, fn func(context.Context, *permstore.Store) error) error {
	switch opts.output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", opts.output)
	}

	password := opts.password
	if password == "" {
		password = os.Getenv(passwordEnv)
	}
	if opts.email == "" || password == "" {
		return fmt.Errorf("--email and --password (or %s) are required", passwordEnv)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := newClient(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if _, err := client.Login(ctx, opts.email, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	defer func() {
		if err := client.Logout(context.Background()); err != nil {
			logger.Get().Debug("logout failed", "error", err)
		}
	}()

	return fn(ctx, permstore.New(client, logger.NewLogger().Named("permstore")))
}

func newClient(opts *options, stderr io.Writer) (*apiclient.Client, error) {
	return apiclient.NewClient(opts.api,
		apiclient.WithTimeout(opts.timeout),
		apiclient.WithLogger(logger.NewLogger().Named("apiclient")),
		apiclient.WithLocation(func() string { return "/dashboard/permissions" }),
		apiclient.WithNavigator(apiclient.NavigatorFunc(func(location string) {
			fmt.Fprintf(stderr, "session ended, sign in again: %s\n", location)
		})),
		apiclient.WithNotifier(apiclient.NewDedupNotifier(apiclient.NotifyFunc(func(key, message string) {
			fmt.Fprintf(stderr, "%s: %s\n", key, message)
		}), apiclient.DefaultNotifyWindow)),
	)
}

func printRoles(w io.Writer, format string, s *permstore.Store) error {
	if format != "table" {
		return encode(w, format, s.Roles())
	}

	roles := s.Roles()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tPERMISSIONS")
	for _, name := range s.RoleNames() {
		perms := roles[name]
		list := "-"
		if len(perms) > 0 {
			list = strings.Join(perms, ", ")
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, list)
	}
	return tw.Flush()
}

func encode(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
