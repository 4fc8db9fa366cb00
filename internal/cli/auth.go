package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskdeck/internal/api"
	"github.com/valter-silva-au/taskdeck/internal/observability"
)

// recordAuthEvent mirrors a session transition into the event log.
// Recording is diagnostic; a missing log is not an error.
func recordAuthEvent(eventType, msg string, data map[string]any) {
	if EventLog == nil {
		return
	}
	_ = EventLog.Write(observability.Event{
		Level:   observability.LevelInfo,
		Type:    eventType,
		Message: msg,
		Data:    data,
	})
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the session (login, signup, logout, whoami)",
}

var authLoginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and store the session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Gateway == nil || Sessions == nil {
			return fmt.Errorf("client not initialized")
		}

		password, err := promptPassword()
		if err != nil {
			return err
		}

		creds, err := Gateway.SignIn(cmd.Context(), args[0], password)
		if err != nil {
			return fmt.Errorf("logging in: %w", err)
		}
		if err := Sessions.SetSession(creds.AccessToken, creds.User); err != nil {
			return err
		}

		recordAuthEvent("auth.signed_in", "session started", map[string]any{"email": args[0]})
		if creds.User != nil {
			fmt.Printf("Signed in as %s\n", creds.User.Email)
		} else {
			fmt.Println("Signed in")
		}
		return nil
	},
}

var authSignupCmd = &cobra.Command{
	Use:   "signup <email>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Gateway == nil || Sessions == nil {
			return fmt.Errorf("client not initialized")
		}

		name, _ := cmd.Flags().GetString("name")
		password, err := promptPassword()
		if err != nil {
			return err
		}

		creds, err := Gateway.SignUp(cmd.Context(), args[0], password, name)
		if err != nil {
			return fmt.Errorf("signing up: %w", err)
		}
		if err := Sessions.SetSession(creds.AccessToken, creds.User); err != nil {
			return err
		}

		recordAuthEvent("auth.signed_up", "account created", map[string]any{"email": args[0]})
		fmt.Printf("Account created for %s\n", args[0])
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the local session",
	Long: `Discard the local session token.

Server-side invalidation is attempted but not waited on past a short
deadline; the local token is cleared either way.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Gateway == nil || Sessions == nil {
			return fmt.Errorf("client not initialized")
		}
		if Sessions.Token() == "" {
			fmt.Println("Not signed in")
			return nil
		}

		// Best effort: the token dies locally regardless.
		ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
		defer cancel()
		_ = Gateway.SignOut(ctx)

		Sessions.Clear()
		recordAuthEvent("auth.signed_out", "session discarded", nil)
		fmt.Println("Signed out")
		return nil
	},
}

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Verify the session and print the signed-in identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if Sessions == nil {
			return fmt.Errorf("client not initialized")
		}
		if Sessions.Token() == "" {
			return fmt.Errorf("not signed in (use 'taskdeck auth login')")
		}

		user, err := Sessions.Verify(cmd.Context())
		if err != nil {
			if errors.Is(err, api.ErrUnauthenticated) {
				recordAuthEvent("auth.expired", "token rejected on verify", nil)
				return fmt.Errorf("session expired, sign in again with 'taskdeck auth login'")
			}
			return err
		}

		fmt.Printf("%s <%s>\n", user.Name, user.Email)
		return nil
	},
}

// promptPassword reads a password line from stdin. Reading plain
// stdin (rather than a raw terminal) keeps the command scriptable.
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	return password, nil
}

func init() {
	authSignupCmd.Flags().String("name", "", "display name for the new account")
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authSignupCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authWhoamiCmd)
	rootCmd.AddCommand(authCmd)
}
