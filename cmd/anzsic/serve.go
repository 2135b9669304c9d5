package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/business-anzsic-locator/internal/certs"
	"github.com/Veraticus/business-anzsic-locator/internal/config"
	"github.com/Veraticus/business-anzsic-locator/internal/server"
)

func serveCmd() *cobra.Command {
	var (
		useTLS   bool
		tlsHosts []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the identify API over HTTP",
		Long: `Serve exposes POST /api/identify, GET /api/history, GET /healthz and GET /metrics.
Without a Google API key and with places.demo disabled, identify requests fail
with a configuration error.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			metrics := server.NewMetrics()

			a, err := newApp(cmd.Context(), appOptions{recorder: metrics, history: true})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			opts := server.Options{
				Identifier: a.resolver,
				Metrics:    metrics,
				Logger:     a.logger,
				Config: server.Config{
					Addr:             a.settings.Server.Addr,
					RateLimit:        a.settings.Server.RateLimit,
					Burst:            a.settings.Server.Burst,
					LookupConfigured: a.lookupConfigured,
				},
			}
			if a.store != nil {
				opts.History = a.store
			}
			if useTLS {
				manager := certs.NewFileManager(filepath.Join(config.DataDir(), "certs"), tlsHosts...)
				opts.Config.TLS, err = certs.TLSConfig(manager)
				if err != nil {
					return err
				}
			}

			srv, err := server.New(opts)
			if err != nil {
				return err
			}
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().String("addr", ":5001", "listen address")
	cmd.Flags().BoolVar(&useTLS, "tls", false, "serve HTTPS with a self-signed certificate")
	cmd.Flags().StringSliceVar(&tlsHosts, "tls-host", nil, "host names or IPs the certificate covers (default: localhost)")
	cmd.Flags().Float64("rate-limit", 10, "requests per second across all clients (0 disables)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.rate_limit", cmd.Flags().Lookup("rate-limit"))
	return cmd
}
