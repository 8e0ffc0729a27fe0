// minkadm is the operator CLI for direct database administration: creating
// accounts, resetting passwords, and clearing user data without going through
// the HTTP API. It connects to the same DSN the server uses.
//
// Usage:
//
//	minkadm create-user -username NAME -email ADDR [-role admin|user]
//	minkadm reset-password -username NAME
//	minkadm clear-data -username NAME
//
// Passwords are prompted without echo; they never appear in argv or shell
// history.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/minkvault/mink/internal/logging"
	"github.com/minkvault/mink/internal/server/config"
	"github.com/minkvault/mink/internal/server/repomanager"
	"github.com/minkvault/mink/internal/server/users"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// getPassword prompts on w and reads a password from the terminal without
// echo.
func getPassword(w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// confirm asks a yes/no question and accepts only an explicit "yes".
func confirm(reader *bufio.Reader, w io.Writer, prompt string) bool {
	fmt.Fprint(w, prompt+" (yes/no): ")
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	return strings.TrimSpace(line) == "yes"
}

func newUserService(dsn string, pepper string) (*users.Service, error) {
	db, rm, err := repomanager.Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, err
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	return users.NewService(db, rm.Users(db), rm.Notes(db), rm.Folders(db), rm.Bookmarks(db),
		pepper, logger), nil
}

func run() error {
	if len(os.Args) < 2 {
		return errors.New("usage: minkadm <create-user|reset-password|clear-data> [flags]")
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	username := fs.String("username", "", "account username")
	email := fs.String("email", "", "account email (create-user)")
	role := fs.String("role", users.RoleUser, "account role (create-user)")
	dsn := fs.String("d", "", "database DSN (defaults to server config)")
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("-username is required")
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()
	if *dsn != "" {
		cfg.DatabaseDSN = *dsn
	}

	svc, err := newUserService(cfg.DatabaseDSN, cfg.EncryptionPepper)
	if err != nil {
		return err
	}

	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	switch command {
	case "create-user":
		if *email == "" {
			return errors.New("-email is required")
		}
		password, err := getPassword(os.Stdout, "Enter password")
		if err != nil {
			return err
		}
		user, err := svc.CreateUser(ctx, *username, *email, password, *role)
		if err != nil {
			return err
		}
		fmt.Printf("created %s account %s (%s)\n", user.Role, user.Username, user.ID)

	case "reset-password":
		user, err := findUser(ctx, svc, *username)
		if err != nil {
			return err
		}
		fmt.Println("WARNING: resetting the password does not re-encrypt the vault;")
		fmt.Println("existing records will become permanently unreadable.")
		if !confirm(reader, os.Stdout, "Continue?") {
			return errors.New("aborted")
		}
		password, err := getPassword(os.Stdout, "Enter new password")
		if err != nil {
			return err
		}
		if err := svc.ResetPassword(ctx, user.ID, password); err != nil {
			return err
		}
		fmt.Printf("password reset for %s\n", user.Username)

	case "clear-data":
		user, err := findUser(ctx, svc, *username)
		if err != nil {
			return err
		}
		if !confirm(reader, os.Stdout, fmt.Sprintf("Delete ALL data for %s?", user.Username)) {
			return errors.New("aborted")
		}
		if err := svc.ClearUserData(ctx, user.ID); err != nil {
			return err
		}
		fmt.Printf("data cleared for %s\n", user.Username)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func findUser(ctx context.Context, svc *users.Service, username string) (*users.User, error) {
	infos, err := svc.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Username == username {
			return svc.GetByID(ctx, info.ID)
		}
	}
	return nil, fmt.Errorf("no such user %q", username)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
