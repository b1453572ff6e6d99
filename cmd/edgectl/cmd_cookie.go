package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/webfutureiorepo/supabase/internal/domain/attribution"
)

var errNoCookie = errors.New("no valid first-referrer cookie")

func newCookieCmd() *cobra.Command {
	cookieCmd := &cobra.Command{
		Use:   "cookie",
		Short: "Inspect first-referrer cookies",
	}

	decodeCmd := &cobra.Command{
		Use:   "decode <cookie-header>",
		Short: "Decode a Cookie header or a bare cookie value",
		Args:  cobra.ExactArgs(1),
		RunE:  runCookieDecode,
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Show whether a request would be stamped",
		Long: `Show whether a request would receive a new first-referrer cookie and,
if so, the cookie value and attributes it would get.`,
		RunE: runCookieCheck,
	}
	checkCmd.Flags().Bool("cookie", false, "the request already carries the cookie")
	checkCmd.Flags().String("referrer", "", "Referer header of the request")
	checkCmd.Flags().String("url", "", "absolute request URL")
	_ = checkCmd.MarkFlagRequired("url")

	cookieCmd.AddCommand(decodeCmd, checkCmd)
	return cookieCmd
}

func runCookieDecode(cmd *cobra.Command, args []string) error {
	header := args[0]
	if !strings.Contains(header, attribution.CookieName+"=") {
		header = attribution.CookieName + "=" + header
	}

	payload, ok := attribution.ParseFirstReferrerCookie(header, time.Now())
	if !ok {
		return errNoCookie
	}
	return printJSON(cmd, payload)
}

type cookieCheckResult struct {
	Stamp            bool                       `json:"stamp"`
	ExternalReferrer bool                       `json:"externalReferrer"`
	PaidSignals      bool                       `json:"paidSignals"`
	Value            string                     `json:"value,omitempty"`
	Options          *attribution.CookieOptions `json:"options,omitempty"`
}

func runCookieCheck(cmd *cobra.Command, _ []string) error {
	hasCookie, _ := cmd.Flags().GetBool("cookie")
	referrer, _ := cmd.Flags().GetString("referrer")
	rawURL, _ := cmd.Flags().GetString("url")

	result := cookieCheckResult{
		ExternalReferrer: attribution.IsExternalReferrer(referrer),
	}
	hostname := ""
	if u, ok := attribution.ParseAbsoluteURL(rawURL); ok {
		result.PaidSignals = attribution.HasPaidSignals(u)
		hostname = u.Hostname()
	}

	decision := attribution.ShouldRefreshCookie(hasCookie, attribution.StampRequest{Referrer: referrer, URL: rawURL})
	result.Stamp = decision.Stamp

	if decision.Stamp {
		payload := attribution.BuildFirstReferrerData(attribution.LandingInput{Referrer: referrer, LandingURL: rawURL}, time.Now())
		value, err := attribution.SerializeFirstReferrerCookie(payload)
		if err != nil {
			return fmt.Errorf("failed to serialize cookie: %w", err)
		}
		opts := attribution.CookieOptionsForHost(hostname)
		result.Value = value
		result.Options = &opts
	}
	return printJSON(cmd, result)
}

func printJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}
