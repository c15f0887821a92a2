// Copyright 2025 The snmpq Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Command snmpqd serves the snmpq HTTP API: JSON queries in, SNMPv2c GET and
// GETBULK out. Configuration comes from flags, SNMPQ_* environment
// variables, or a config file, in that order of precedence.
//
//	snmpqd --listen :8161 --community public
//	SNMPQ_COMMUNITY=private snmpqd
//	snmpqd --config /etc/snmpqd/snmpqd.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/snmpq/snmpq"
	"github.com/snmpq/snmpq/internal/httpapi"
)

var rootCmd = &cobra.Command{
	Use:   "snmpqd",
	Short: "HTTP gateway for SNMPv2c queries",
	Long: `snmpqd answers JSON requests like

    POST /agents/192.0.2.10/request
    {"requestType": "Get", "oids": ["1.3.6.1.2.1.1.1.0"]}

by querying the named agent over SNMPv2c and returning the decoded values.
Prometheus metrics are served on /metrics, liveness on /healthz.`,
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("listen", ":8161", "address the HTTP API listens on")
	flags.String("community", "public", "community string sent to agents")
	flags.Uint16("agent-port", snmpq.DefaultPort, "agent port used when a request names none")
	flags.Duration("timeout", snmpq.DefaultTimeout, "wait per SNMP attempt before re-sending")
	flags.Int("retries", snmpq.DefaultRetries, "re-sends after the first attempt")
	flags.Uint32("max-repetitions", snmpq.DefaultMaxRepetitions, "GETBULK max-repetitions when a request passes none")
	flags.Duration("request-timeout", 30*time.Second, "end-to-end bound per HTTP request")
	flags.String("config", "", "config file (default snmpqd.yaml in . or /etc/snmpqd)")
	flags.Bool("debug", false, "log at debug level, including every SNMP exchange")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	v.SetEnvPrefix("SNMPQ")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := readConfig(v); err != nil {
		return err
	}

	logCfg := zap.NewProductionConfig()
	if v.GetBool("debug") {
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client := &snmpq.Client{
		Timeout:        v.GetDuration("timeout"),
		Retries:        v.GetInt("retries"),
		MaxRepetitions: v.GetUint32("max-repetitions"),
	}
	if v.GetBool("debug") {
		client.Logger = zap.NewStdLog(logger.Named("snmp"))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler := httpapi.NewHandler(client, httpapi.Config{
		Community:      v.GetString("community"),
		AgentPort:      v.GetUint16("agent-port"),
		MaxRepetitions: v.GetUint32("max-repetitions"),
		RequestTimeout: v.GetDuration("request-timeout"),
	}, logger.Named("http"), registry)

	server := &http.Server{
		Addr:              v.GetString("listen"),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", server.Addr),
			zap.String("community", v.GetString("community")))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// readConfig loads an explicit config file, or searches the default
// locations when none is named. A missing default file is not an error.
func readConfig(v *viper.Viper) error {
	if cfg := v.GetString("config"); cfg != "" {
		v.SetConfigFile(cfg)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		return nil
	}
	v.SetConfigName("snmpqd")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/snmpqd")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}
