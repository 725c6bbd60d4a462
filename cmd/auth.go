package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/lukman83/buysmart/internal/session"
	"github.com/lukman83/buysmart/internal/userdata"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the credential locally",
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored credential",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().String("email", "", "Account email")
		c.Flags().String("password", "", "Account password (default $BUYSMART_PASSWORD)")
	}
	registerCmd.Flags().String("name", "", "Display name")
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

func credentialFlags(cmd *cobra.Command) (email, password string) {
	email, _ = cmd.Flags().GetString("email")
	password, _ = cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv("BUYSMART_PASSWORD")
	}
	return email, password
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	email, password := credentialFlags(cmd)
	s, err := a.Session.Login(context.Background(), email, password)
	if err != nil {
		return err
	}
	printSignedIn(cmd, s, a.Panel.Snapshot())
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("name")
	email, password := credentialFlags(cmd)
	s, err := a.Session.Register(context.Background(), name, email, password)
	if err != nil {
		return err
	}
	printSignedIn(cmd, s, a.Panel.Snapshot())
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	a.Session.Logout(context.Background())
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	s := a.Session.Bootstrap(context.Background())
	if s.Anonymous() {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
		return nil
	}
	if outputFormat(cmd) == "json" {
		return printJSON(cmd.OutOrStdout(), s.User)
	}
	printSignedIn(cmd, s, a.Panel.Snapshot())
	return nil
}

func printSignedIn(cmd *cobra.Command, s session.Session, snap userdata.Snapshot) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Signed in as %s <%s>\n", s.User.Name, s.User.Email)
	fmt.Fprintf(out, "Wishlist %d  |  Purchases %d  |  Recent searches %d\n",
		len(snap.Wishlist), len(snap.Purchases), len(snap.History))
	for _, name := range snap.Failed {
		fmt.Fprintf(out, "  (could not load %s)\n", name)
	}
}
