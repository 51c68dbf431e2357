package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/typequest/internal/identity"
	"github.com/verte-zerg/typequest/internal/model"
	"github.com/verte-zerg/typequest/internal/store"
)

var (
	profileName string
	profileHide bool
	profileShow bool
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login NAME",
		Short: "Sign in, creating the profile if needed",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoginCmd,
	}
}

func runLoginCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	p, created, err := newSession().Login(ctx, st, args[0])
	if err != nil {
		return fmt.Errorf("failed to sign in: %w", err)
	}
	verb := "Signed in as"
	if created {
		verb = "Created profile and signed in as"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, p.Username)
	return err
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := newSession().SignOut(); err != nil {
				return fmt.Errorf("failed to sign out: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return err
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fileCfg, err := loadFileConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cmd, fileCfg)
			if err != nil {
				return err
			}
			defer closeStore(st)
			p, err := currentProfile(st)
			if err != nil {
				return err
			}
			visibility := "shown"
			if !p.ShowOnLeaderboard {
				visibility = "hidden"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, leaderboard: %s)\n", p.Username, p.UserID, visibility)
			return err
		},
	}
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Rename yourself or change leaderboard visibility",
		Args:  cobra.NoArgs,
		RunE:  runProfileCmd,
	}
	cmd.Flags().StringVar(&profileName, "name", "", "new username")
	cmd.Flags().BoolVar(&profileHide, "hide", false, "hide from the leaderboard")
	cmd.Flags().BoolVar(&profileShow, "show", false, "show on the leaderboard")
	cmd.MarkFlagsMutuallyExclusive("hide", "show")
	return cmd
}

func runProfileCmd(cmd *cobra.Command, _ []string) error {
	if profileName == "" && !profileHide && !profileShow {
		return fmt.Errorf("nothing to change (use --name, --hide or --show)")
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	p, err := currentProfile(st)
	if err != nil {
		return err
	}
	if name := strings.TrimSpace(profileName); name != "" {
		p.Username = name
	}
	switch {
	case profileHide:
		p.ShowOnLeaderboard = false
	case profileShow:
		p.ShowOnLeaderboard = true
	}
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	if err := st.UpdateProfile(ctx, p); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if profileName != "" {
		if _, _, err := newSession().Login(ctx, st, p.Username); err != nil {
			return fmt.Errorf("failed to refresh session: %w", err)
		}
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s\n", p.Username)
	return err
}

func currentProfile(st *store.Store) (model.Profile, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	p, err := identity.NewResolver(newSession(), st).CurrentProfile(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return model.Profile{}, identity.ErrSignedOut
	}
	return p, err
}
