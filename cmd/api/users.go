package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deskline/helpdesk-service/internal/domain"
	"github.com/deskline/helpdesk-service/internal/persistence"
	"github.com/deskline/helpdesk-service/internal/repository"
	"github.com/deskline/helpdesk-service/internal/service"
)

var (
	usersCmd = &cobra.Command{
		Use:   "users",
		Short: "Manage helpdesk accounts",
	}
	usersCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		RunE:  runUsersCreate,
	}
	usersListCmd = &cobra.Command{
		Use:   "list",
		Short: "List accounts of a role",
		RunE:  runUsersList,
	}

	newUser  service.CreateUserInput
	listRole string
)

func init() {
	flags := usersCreateCmd.Flags()
	flags.StringVar(&newUser.Username, "username", "", "login name")
	flags.StringVar(&newUser.DisplayName, "name", "", "display name")
	flags.StringVar(&newUser.Role, "role", "", "EMPLOYEE, ADMIN or TECHNICIAN")
	flags.StringVar(&newUser.Password, "password", "", "initial password")
	flags.StringVar(&newUser.Email, "email", "", "notification address")
	flags.StringVar(&newUser.EmployeeCode, "emp-id", "", "employee code")
	flags.StringVar(&newUser.Department, "department", "", "department")
	flags.StringVar(&newUser.ReportsTo, "reports-to", "", "manager username or display name")
	flags.StringVar(&newUser.MailUsername, "mail-username", "", "personal SMTP username")
	flags.StringVar(&newUser.MailPassword, "mail-password", "", "personal SMTP password")
	for _, name := range []string{"username", "name", "role", "password"} {
		_ = usersCreateCmd.MarkFlagRequired(name)
	}

	usersListCmd.Flags().StringVar(&listRole, "role", string(domain.RoleAdmin), "role to list")

	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersListCmd)
}

func withDirectory(ctx context.Context, fn func(*service.DirectoryService) error) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := persistence.OpenDatabase(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(service.NewDirectoryService(repository.NewUserRepository(db.Pool()), cfg.Auth.BcryptCost))
}

func runUsersCreate(cmd *cobra.Command, _ []string) error {
	return withDirectory(cmd.Context(), func(directory *service.DirectoryService) error {
		user, err := directory.CreateUser(cmd.Context(), newUser)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%d\n", user.Username, user.Role, user.ID)
		return nil
	})
}

func runUsersList(cmd *cobra.Command, _ []string) error {
	role, ok := domain.ParseRole(listRole)
	if !ok {
		return fmt.Errorf("unknown role %q", listRole)
	}
	return withDirectory(cmd.Context(), func(directory *service.DirectoryService) error {
		var (
			users []domain.User
			err   error
		)
		switch role {
		case domain.RoleAdmin:
			users, err = directory.ListAddressees(cmd.Context())
		case domain.RoleTechnician:
			users, err = directory.ListTechnicians(cmd.Context())
		default:
			return fmt.Errorf("listing %s accounts is not supported", role)
		}
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tNAME")
		for _, user := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\n", user.ID, user.Username, user.DisplayName)
		}
		return w.Flush()
	})
}
