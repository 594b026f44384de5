package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/cinehub/backoffice/internal/auth"
	"github.com/cinehub/backoffice/internal/config"
	"github.com/cinehub/backoffice/internal/db"
	"github.com/cinehub/backoffice/internal/db/models"
)

func newUserCommand(load func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage back office accounts",
	}
	cmd.AddCommand(newUserListCommand(load))
	cmd.AddCommand(newUserCreateCommand(load))
	return cmd
}

func openDatabase(load func() (*config.Config, error)) (*db.Database, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataPath, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return db.NewSQLite(cfg.DBPath)
}

func newUserListCommand(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDatabase(load)
			if err != nil {
				return err
			}
			defer database.Close()

			users, err := database.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			writeUsers(cmd.OutOrStdout(), users)
			return nil
		},
	}
}

type userCreateOptions struct {
	username  string
	password  string
	email     string
	firstName string
	lastName  string
	role      string
}

func newUserCreateCommand(load func() (*config.Config, error)) *cobra.Command {
	var opts userCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := opts.user()
			if err != nil {
				return err
			}
			database, err := openDatabase(load)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.CreateUser(cmd.Context(), u); err != nil {
				if errors.Is(err, db.ErrDuplicate) {
					return fmt.Errorf("user %q already exists", u.Username)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q (id %d)\n", u.Role, u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.username, "username", "u", "", "Login name (required)")
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "Password (required)")
	cmd.Flags().StringVar(&opts.email, "email", "", "Email address")
	cmd.Flags().StringVar(&opts.firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&opts.lastName, "last-name", "", "Last name")
	cmd.Flags().StringVarP(&opts.role, "role", "r", models.RoleViewer, "Role: admin, editor or viewer")
	return cmd
}

func (o userCreateOptions) user() (*models.User, error) {
	username := strings.TrimSpace(o.username)
	if username == "" {
		return nil, errors.New("--username is required")
	}
	if o.password == "" {
		return nil, errors.New("--password is required")
	}
	if !models.ValidRole(o.role) {
		return nil, fmt.Errorf("unknown role %q", o.role)
	}
	hash, err := auth.HashPassword(o.password)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Username:  username,
		Email:     strings.TrimSpace(o.email),
		FirstName: strings.TrimSpace(o.firstName),
		LastName:  strings.TrimSpace(o.lastName),
		Password:  hash,
		Role:      o.role,
		IsActive:  true,
	}, nil
}

// writeUsers renders a table on a terminal and tab-separated rows otherwise.
func writeUsers(w io.Writer, users []*models.User) {
	headers := []string{"ID", "Username", "Name", "Email", "Role", "Active", "Created"}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			strconv.FormatInt(u.ID, 10),
			u.Username,
			u.DisplayName(),
			u.Email,
			u.Role,
			strconv.FormatBool(u.IsActive),
			humanize.Time(u.CreatedAt),
		})
	}

	if !isTerminal(w) {
		fmt.Fprintln(w, strings.Join(headers, "\t"))
		for _, r := range rows {
			fmt.Fprintln(w, strings.Join(r, "\t"))
		}
		return
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}
		tw.AppendRow(row)
	}
	fmt.Fprintln(w, tw.Render())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
