package main

import (
	"errors"
	"strconv"
	"time"

	"github.com/cmstar/go-errx"
	"github.com/cmstar/go-signauth"
	"github.com/spf13/cobra"
)

var errDenied = errors.New("cookie denied")

func newCookieCmd(g *globalFlags) *cobra.Command {
	var timestamp string

	cmd := &cobra.Command{
		Use:   "cookie <username>",
		Short: "Mint a cookie value for the given user",
		Long: `Mint the value of the authorization cookie, in the form {username}|{timestamp}|{sign}.
The value is percent-encoded as it is sent in the Set-Cookie header.
The timestamp defaults to the current time.

Examples:
  signauth cookie root --cookie-secret you-api-token`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}

			if timestamp == "" {
				timestamp = signauth.UnixTimestamp(time.Now())
			} else if _, err := strconv.ParseInt(timestamp, 10, 64); err != nil {
				return errx.Wrap("invalid timestamp", err)
			}

			opts := cfg.Cookie
			value := signauth.MakeCookieValue(opts.Secret, args[0], timestamp, opts.Separator)
			printKV(cmd,
				"name", opts.CookieName,
				"value", signauth.EncodeCookieValue(value),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&timestamp, "timestamp", "", "UNIX timestamp in seconds")
	return cmd
}

func newVerifyCookieCmd(g *globalFlags) *cobra.Command {
	var users []string

	cmd := &cobra.Command{
		Use:   "verify-cookie <value>",
		Short: "Verify a cookie value against the current time",
		Long: `Verify a cookie value the same way the cookie middleware does.
--users replaces the allowed users of the config, like the users marked on a route.

Examples:
  signauth verify-cookie "root|1700000000|23ebdff60692e1785fbd1614ace59da898e8c754" --users root,admin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}

			opts := cfg.Cookie
			opts.RenewOnSuccess = false
			a, err := signauth.NewCookieAuthorizer(opts, nil)
			if err != nil {
				return err
			}

			src := cookieValueSource{name: opts.CookieName, value: args[0]}
			d := a.Authorize(src, users)
			if !d.Allowed {
				badFmt.Fprintln(cmd.OutOrStdout(), "denied: "+d.Reason.String())
				return errDenied
			}

			okFmt.Fprintln(cmd.OutOrStdout(), "allowed: "+d.Username)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&users, "users", nil, "allowed users, comma separated")
	return cmd
}

// cookieValueSource 是只带一个 Cookie 的 [signauth.CredentialSource] 。
type cookieValueSource struct {
	name  string
	value string
}

var _ signauth.CredentialSource = cookieValueSource{}

func (s cookieValueSource) Query(string) (string, bool)  { return "", false }
func (s cookieValueSource) Header(string) (string, bool) { return "", false }

func (s cookieValueSource) Cookie(name string) (string, bool) {
	if name != s.name {
		return "", false
	}
	return signauth.DecodeCookieValue(s.value), true
}
