package main

import (
	"fmt"
	"strings"

	"github.com/cmstar/go-errx"
	"github.com/cmstar/go-signauth"
	"github.com/cmstar/go-signauth/signconf"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	keyFmt = color.New(color.FgCyan)
	okFmt  = color.New(color.FgGreen, color.Bold)
	badFmt = color.New(color.FgRed, color.Bold)
)

// globalFlags 是所有子命令共用的参数。
type globalFlags struct {
	configFile   string
	signSecret   string
	cookieSecret string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "signauth",
		Short: "Sign and verify request credentials",
		Long: `signauth computes and verifies the credentials used by the signauth middlewares.

Options are read from a YAML file given by --config, see package signconf for the format.
Without a file the defaults are used. --sign-secret and --cookie-secret override the file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configFile, "config", "c", "", "YAML config file")
	pf.StringVar(&g.signSecret, "sign-secret", "", "secret of the URL signature scheme")
	pf.StringVar(&g.cookieSecret, "cookie-secret", "", "secret of the cookie scheme")

	root.AddCommand(
		newSignCmd(g),
		newSignURLCmd(g),
		newCookieCmd(g),
		newVerifyCookieCmd(g),
		newServeCmd(g),
	)
	return root
}

// load 读取配置文件（若有），并应用命令行上的 secret 。
func (g *globalFlags) load() (*signconf.Config, error) {
	cfg := &signconf.Config{
		Sign:   signauth.DefaultSignOptions(),
		Cookie: signauth.DefaultCookieOptions(),
	}

	if g.configFile != "" {
		var err error
		cfg, err = signconf.Load(g.configFile)
		if err != nil {
			return nil, errx.Wrap("load config", err)
		}
	}

	if g.signSecret != "" {
		cfg.Sign.Secret = g.signSecret
	}
	if g.cookieSecret != "" {
		cfg.Cookie.Secret = g.cookieSecret
	}
	return cfg, nil
}

// printKV 按“key: value”的格式逐行输出，key 带颜色。
func printKV(cmd *cobra.Command, kv ...string) {
	w := cmd.OutOrStdout()
	width := 0
	for i := 0; i < len(kv); i += 2 {
		if len(kv[i]) > width {
			width = len(kv[i])
		}
	}

	for i := 0; i+1 < len(kv); i += 2 {
		keyFmt.Fprint(w, kv[i]+":"+strings.Repeat(" ", width-len(kv[i])+1))
		fmt.Fprintln(w, kv[i+1])
	}
}
