package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/gmailmcp/internal/config"
	"github.com/teemow/gmailmcp/internal/google"
)

type authOptions struct {
	credentialsFile string
	tokenFile       string
	noBrowser       bool
}

func newAuthCmd() *cobra.Command {
	var opts authOptions

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Gmail access and write the token file",
		Long: `Authorize gmailmcp to access your mailbox.

The consent page is opened in your browser. After granting access, paste the
authorization code, or the whole URL the browser was redirected to, here.
The token is written with owner-only permissions and refreshed in memory by
the server from then on.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load("")
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("credentials") {
				cfg.CredentialsFile = opts.credentialsFile
			}
			if cmd.Flags().Changed("token") {
				cfg.TokenFile = opts.tokenFile
			}
			return runAuth(cmd.Context(), cmd.InOrStdin(), cmd.ErrOrStderr(), cfg, opts.noBrowser)
		},
	}

	cmd.Flags().StringVar(&opts.credentialsFile, "credentials", "", "Path to the OAuth client credentials file. Can also use "+config.EnvCredentialsPath+" env var.")
	cmd.Flags().StringVar(&opts.tokenFile, "token", "", "Path to write the token to. Can also use "+config.EnvTokenPath+" env var.")
	cmd.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "Print the consent URL without opening a browser")

	return cmd
}

func runAuth(ctx context.Context, in io.Reader, out io.Writer, cfg config.Config, noBrowser bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	conf, err := google.LoadOAuthConfig(cfg.CredentialsFile, google.GmailScopes...)
	if err != nil {
		return err
	}

	verifier := oauth2.GenerateVerifier()
	state := oauth2.GenerateVerifier()
	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	fmt.Fprintf(out, "Open this URL in your browser and grant access:\n\n  %s\n\n", authURL)
	if !noBrowser {
		if err := browser.OpenURL(authURL); err != nil {
			fmt.Fprintf(out, "Could not open a browser (%v); open the URL manually.\n", err)
		}
	}
	fmt.Fprint(out, "Authorization code or redirect URL: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}
	code, err := extractCode(line, state)
	if err != nil {
		return err
	}

	tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if err := google.SaveToken(cfg.TokenFile, tok); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nToken written to %s\n", cfg.TokenFile)
	return nil
}

// extractCode accepts a bare authorization code or the URL the consent page
// redirected to. A URL must carry the state of the request.
func extractCode(input, state string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("no authorization code given")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization denied: %s", e)
	}
	if q.Get("state") != state {
		return "", errors.New("redirect URL does not belong to this authorization request")
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.New("redirect URL carries no code parameter")
	}
	return code, nil
}
