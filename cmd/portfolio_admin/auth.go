package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nathanieluriri/omas-portfolio/internal/session"
)

const messageSignInFailed = "Sign-in failed"

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the tokens issued by the OAuth sign-in",
	Long:  "Store the access and refresh tokens delivered by the OAuth success redirect, then confirm them by loading the signed-in user. Tokens that do not work are discarded.",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE:  runLogout,
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the signed-in admin",
	RunE:  runMe,
}

var (
	loginAccessToken  string
	loginRefreshToken string
)

func init() {
	loginCmd.Flags().StringVar(&loginAccessToken, "access-token", "", "Access token from the sign-in redirect (required)")
	loginCmd.Flags().StringVar(&loginRefreshToken, "refresh-token", "", "Refresh token from the sign-in redirect")
	_ = loginCmd.MarkFlagRequired("access-token")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(meCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	tokens := session.Tokens{
		AccessToken:  strings.TrimSpace(loginAccessToken),
		RefreshToken: strings.TrimSpace(loginRefreshToken),
	}
	if tokens.AccessToken == "" {
		return fmt.Errorf("--access-token is required")
	}
	if err := a.sessions.Set(tokens); err != nil {
		return err
	}

	user, err := a.client.Me(cmd.Context())
	if err != nil {
		if clearErr := a.sessions.Clear(); clearErr != nil {
			a.logger.Warn("failed to clear session", zap.Error(clearErr))
		}
		return fmt.Errorf("%s: %w", messageSignInFailed, err)
	}

	a.logger.Info("signed in", zap.String("user_id", user.ID))
	if a.cfg.Verbose {
		a.printer.PrintUser(user)
		return nil
	}
	a.printf("Signed in as %s <%s>\n", user.DisplayName(), user.Email)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.sessions.Clear(); err != nil {
		return err
	}
	a.printf("Signed out\n")
	return nil
}

func runMe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if a.sessions.Get().Empty() {
		return fmt.Errorf("not signed in (run 'portfolio_admin login')")
	}
	user, err := a.client.Me(cmd.Context())
	if err != nil {
		return a.explain(err)
	}
	a.printer.PrintUser(user)
	return nil
}
