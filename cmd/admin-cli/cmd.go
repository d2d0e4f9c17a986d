package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/noah-isme/sma-admin-core/internal/models"
	"github.com/noah-isme/sma-admin-core/pkg/database"
)

var (
	readPasswordFunc = term.ReadPassword
	migrateFunc      = database.Migrate
	statusFunc       = database.MigrationStatus

	errHelp = errors.New("help provided")
)

type userAdmin interface {
	Create(ctx context.Context, actor models.Actor, payload models.UserPayload) (*models.User, error)
	ResetPasswordByUsername(ctx context.Context, actor models.Actor, username, password string) (bool, error)
}

type commandLine struct {
	db    *sqlx.DB
	users userAdmin
	out   io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate [status] - apply pending schema migrations, or show their state")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME [-role ROLE] - create a user, the password is prompted next")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME - reset a user's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.out)
	addUsername := addUserCmd.String("username", "", "The new user's username.")
	addRole := addUserCmd.String("role", string(models.RoleAdmin), "One of "+roleList()+".")
	addFirstName := addUserCmd.String("first-name", "", "Student first name.")
	addLastName := addUserCmd.String("last-name", "", "Student last name.")
	addDOB := addUserCmd.String("dob", "", "Student date of birth, YYYY-MM-DD.")
	addClassCode := addUserCmd.String("class-code", "", "Student class code.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetUsername := resetPasswordCmd.String("username", "", "The user's username. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) > 2 && args[2] == "status" {
			return statusFunc(context.Background(), cli.db)
		}
		return migrateFunc(context.Background(), cli.db)
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUsername == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		role := models.Role(strings.ToUpper(*addRole))
		payload := models.UserPayload{Username: addUsername, Password: &pwd, Role: &role}
		if role == models.RoleStudent {
			payload.FirstName = addFirstName
			payload.LastName = addLastName
			payload.DOB = addDOB
			payload.ClassCode = addClassCode
		}
		return cli.addUser(payload)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetUsername == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetUsername, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func roleList() string {
	roles := models.Roles()
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	return strings.Join(names, ", ")
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) addUser(payload models.UserPayload) error {
	user, err := cli.users.Create(context.Background(), models.SystemActor, payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %s user %q with id %d\n", user.Role, user.Username, user.ID)
	return nil
}

func (cli *commandLine) resetPassword(username, pwd string) error {
	ok, err := cli.users.ResetPasswordByUsername(context.Background(), models.SystemActor, username, pwd)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %q not found", username)
	}
	fmt.Fprintf(cli.out, "password for %q reset\n", username)
	return nil
}
