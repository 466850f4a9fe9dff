package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nathanieluriri/omas-portfolio/internal/content"
	"github.com/nathanieluriri/omas-portfolio/internal/theme"
	"github.com/nathanieluriri/omas-portfolio/internal/types"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show, create or delete the portfolio",
}

var portfolioShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the public portfolio as JSON",
	Long:  "Print the public portfolio of --user-id as JSON. Without a user id the signed-in admin's portfolio is shown.",
	RunE:  runPortfolioShow,
}

var portfolioInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty portfolio for the signed-in admin",
	RunE:  runPortfolioInit,
}

var portfolioDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the signed-in admin's portfolio",
	RunE:  runPortfolioDelete,
}

var (
	showThemeCSS bool
	deleteYes    bool
)

func init() {
	portfolioShowCmd.Flags().BoolVar(&showThemeCSS, "theme-css", false, "Also print the theme as CSS custom properties")
	portfolioDeleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "Confirm deletion")

	portfolioCmd.AddCommand(portfolioShowCmd)
	portfolioCmd.AddCommand(portfolioInitCmd)
	portfolioCmd.AddCommand(portfolioDeleteCmd)
	rootCmd.AddCommand(portfolioCmd)
}

func runPortfolioShow(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	user, doc, err := a.fetchPortfolio(cmd.Context())
	if err != nil {
		return a.explain(err)
	}

	if a.cfg.Verbose && user != nil {
		a.printer.PrintUser(user)
	}
	if doc.IsNull() {
		a.printf("No portfolio yet.\n")
		return nil
	}
	if err := a.printDocument(doc); err != nil {
		return err
	}
	if showThemeCSS {
		a.printf("%s\n", theme.FromPortfolio(doc))
	}
	return nil
}

// fetchPortfolio loads the public portfolio. With a configured user id the
// signed-in user (if any) is fetched alongside it; otherwise the signed-in user
// decides whose portfolio is loaded.
func (a *app) fetchPortfolio(ctx context.Context) (*types.User, content.Value, error) {
	signedIn := !a.sessions.Get().Empty()

	if a.cfg.UserID == "" {
		if !signedIn {
			return nil, content.Null(), fmt.Errorf("no user id: pass --user-id or sign in first")
		}
		user, err := a.client.Me(ctx)
		if err != nil {
			return nil, content.Null(), err
		}
		doc, err := a.client.Portfolio(ctx, user.ID)
		return user, doc, err
	}

	var (
		user *types.User
		doc  content.Value
	)
	g, gctx := errgroup.WithContext(ctx)
	if signedIn {
		g.Go(func() error {
			u, err := a.client.Me(gctx)
			if err != nil {
				// The public read does not need a session.
				a.logger.Debug("failed to load signed-in user", zap.Error(err))
				return nil
			}
			user = u
			return nil
		})
	}
	g.Go(func() error {
		var err error
		doc, err = a.client.Portfolio(gctx, a.cfg.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, content.Null(), err
	}
	return user, doc, nil
}

func runPortfolioInit(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.loadDraft(cmd)
	if err != nil {
		return err
	}
	if !store.Authoritative().IsNull() {
		return fmt.Errorf("a portfolio already exists (use 'portfolio delete' first)")
	}

	store.SetDraft(content.EmptyPortfolio())
	if _, err := store.Save(cmd.Context()); err != nil {
		return a.explain(err)
	}
	a.printer.PrintDraftStatus(a.status(store))
	return nil
}

func runPortfolioDelete(cmd *cobra.Command, _ []string) error {
	if !deleteYes {
		return fmt.Errorf("refusing to delete the portfolio without --yes")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.client.DeletePortfolio(cmd.Context()); err != nil {
		return a.explain(err)
	}
	a.printf("Portfolio deleted\n")
	return nil
}
