package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmstar/go-errx"
	"github.com/cmstar/go-logx"
	"github.com/cmstar/go-signauth"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a demo server protected by both schemes",
		Long: `Run a demo HTTP server:

  GET /login/{user}      issues the authorization cookie for the user
  GET /secure            requires the cookie, only root and admin are allowed
  GET /weatherforecast   requires a URL signature, see sign-url`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}

			logger := logx.NewStdLogger(nil)
			h, err := newDemoHandler(cfg.Sign, cfg.Cookie, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, addr, h, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

// newDemoHandler 创建演示服务的路由。
func newDemoHandler(signOpts signauth.SignOptions, cookieOpts signauth.CookieOptions, logger logx.Logger) (http.Handler, error) {
	signAuth, err := signauth.NewSignAuthorizer(signOpts, logger)
	if err != nil {
		return nil, err
	}

	cookieAuth, err := signauth.NewCookieAuthorizer(cookieOpts, logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Get("/login/{user}", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, cookieAuth.IssueCookie(chi.URLParam(r, "user")))
		w.WriteHeader(http.StatusNoContent)
	})

	r.Group(func(r chi.Router) {
		r.Use(cookieAuth.Middleware(signauth.ChiRouteMarks{
			"/secure": {Users: []string{"root", "admin"}},
		}))
		r.Get("/secure", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]string{"user": signauth.UsernameFromContext(r.Context())})
		})
	})

	r.With(signAuth.Middleware(signauth.MarkAll)).Get("/weatherforecast", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"date": time.Now().Format("2006-01-02"), "temperatureC": 21, "summary": "Mild"},
		})
	})

	return r, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set(signauth.HttpHeaderContentType, signauth.ContentTypeJson)
	json.NewEncoder(w).Encode(v)
}

// runServer 运行服务直到 ctx 结束，然后等待正在处理的请求完成。
func runServer(ctx context.Context, addr string, h http.Handler, logger logx.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log(logx.LevelInfo, "listening", "Addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errx.Wrap("serve", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errx.Wrap("shutdown", err)
	}

	logger.Log(logx.LevelInfo, "stopped")
	return nil
}
