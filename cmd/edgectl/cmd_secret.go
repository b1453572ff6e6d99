package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/webfutureiorepo/supabase/internal/infrastructure/security"
	"github.com/webfutureiorepo/supabase/pkg/config"
)

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue visitor tokens",
	}

	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a visitor JWT with JWT_SECRET or --secret",
		RunE:  runTokenIssue,
	}
	issueCmd.Flags().String("subject", "", "user id placed in the sub claim")
	issueCmd.Flags().String("secret", "", "signing secret, defaults to JWT_SECRET")
	issueCmd.Flags().Duration("ttl", time.Hour, "token lifetime")
	_ = issueCmd.MarkFlagRequired("subject")

	tokenCmd.AddCommand(issueCmd)
	return tokenCmd
}

func runTokenIssue(cmd *cobra.Command, _ []string) error {
	subject, _ := cmd.Flags().GetString("subject")
	secret, _ := cmd.Flags().GetString("secret")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	if secret == "" {
		secret = config.JWTSecret
	}
	if secret == "" {
		return fmt.Errorf("no signing secret: pass --secret or set JWT_SECRET")
	}

	token, err := security.GenerateVisitorToken(subject, secret, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func newSecretCmd() *cobra.Command {
	secretCmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate server secrets",
	}

	jwtCmd := &cobra.Command{
		Use:   "jwt",
		Short: "Generate a random JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			length, _ := cmd.Flags().GetInt("length")
			if length < 32 {
				return fmt.Errorf("length must be at least 32")
			}
			key, err := security.GenerateSecureKey(length)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	jwtCmd.Flags().Int("length", 64, "number of hex characters")

	sysopCmd := &cobra.Command{
		Use:   "sysop <password>",
		Short: "Hash a sysop password for SYSOP_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := security.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	secretCmd.AddCommand(jwtCmd, sysopCmd)
	return secretCmd
}
