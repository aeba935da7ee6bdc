// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var errMissingTokenEndpoint = errors.New("either --token-url or --issuer-url must be provided")

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Fetch an access token for the organization API",
	Long: `Fetch an access token with the OAuth2 client credentials grant.

The token can be passed to the other commands through --token or the
ORGANIZATION_SERVICE_TOKEN environment variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		clientID, _ := flags.GetString("client-id")
		clientSecret, _ := flags.GetString("client-secret")
		tokenURL, _ := flags.GetString("token-url")
		issuerURL, _ := flags.GetString("issuer-url")
		scopes, _ := flags.GetStringSlice("scopes")
		format, _ := flags.GetString("format")

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		endpoint, err := resolveTokenURL(ctx, tokenURL, issuerURL)
		if err != nil {
			return err
		}

		config := clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     endpoint,
			Scopes:       scopes,
		}

		token, err := config.Token(ctx)
		if err != nil {
			return fmt.Errorf("client credentials grant against %s: %w", endpoint, err)
		}

		return printToken(cmd, token, format)
	},
}

// resolveTokenURL prefers an explicit endpoint and falls back to OIDC discovery.
func resolveTokenURL(ctx context.Context, tokenURL, issuerURL string) (string, error) {
	if tokenURL != "" {
		return tokenURL, nil
	}

	if issuerURL == "" {
		return "", errMissingTokenEndpoint
	}

	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return "", fmt.Errorf("discover %s: %w", issuerURL, err)
	}

	return provider.Endpoint().TokenURL, nil
}

func printToken(cmd *cobra.Command, token *oauth2.Token, format string) error {
	if format != "json" {
		fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
		return nil
	}

	return json.NewEncoder(cmd.OutOrStdout()).Encode(struct {
		AccessToken string    `json:"access_token"`
		TokenType   string    `json:"token_type"`
		Expiry      time.Time `json:"expiry"`
	}{
		AccessToken: token.AccessToken,
		TokenType:   token.Type(),
		Expiry:      token.Expiry,
	})
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("client-id", "", "OAuth2 client ID")
	tokenCmd.Flags().String("client-secret", "", "OAuth2 client secret")
	tokenCmd.Flags().String("token-url", "", "Token endpoint")
	tokenCmd.Flags().String("issuer-url", "", "Issuer URL, used for OIDC discovery when --token-url is unset")
	tokenCmd.Flags().StringSlice("scopes", []string{}, "Scopes to request, comma separated")
	tokenCmd.Flags().StringP("format", "f", "text", "Output format (text or json)")

	_ = tokenCmd.MarkFlagRequired("client-id")
	_ = tokenCmd.MarkFlagRequired("client-secret")
}
