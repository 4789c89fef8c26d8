package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/campushub/campushub/internal/api"
	"github.com/campushub/campushub/internal/auth"
	"github.com/campushub/campushub/internal/chat"
	"github.com/campushub/campushub/internal/config"
	"github.com/campushub/campushub/internal/database"
	"github.com/campushub/campushub/internal/directory"
	"github.com/campushub/campushub/internal/notify"
	"github.com/campushub/campushub/internal/recovery"
	"github.com/campushub/campushub/internal/stats"
	_ "github.com/lib/pq"
)

const defaultSigningKey = "wT0phFUusHZIrDhL9bUKPUhwaxKhpi/SaI6PtgB+MgU="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	signingKey     string
	smtpAddr       string
	smtpFrom       string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dsn, "dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "database connection string")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.StringVar(&smtpAddr, "smtp-addr", "", "SMTP relay address for recovery mail (disabled when empty)")
	flag.StringVar(&smtpFrom, "smtp-from", "", "from address for recovery mail")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[campushub] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins, smtpAddr, smtpFrom)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.Migrate(); err != nil {
		logger.Fatal("db migrate:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)
	statsUpdater.RegisterMetric(stats.ActiveConnections)
	statsUpdater.RegisterMetric(stats.MessagesSent)
	statsUpdater.RegisterMetric(stats.RecoveryRequests)

	tokens := auth.NewTokenService(cfg.SigningKey)
	dir := directory.NewDirectory(dbConn)

	var mailer notify.Mailer
	if cfg.SMTPAddr != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
	} else {
		logger.Println("no SMTP relay configured, recovery codes will be logged")
		mailer = notify.NewLogMailer(logger)
	}

	recoverySM := recovery.NewStateMachine(logger, dir, mailer, statsUpdater)

	chatServer, err := chat.NewChatServer(logger, dbConn, tokens, dir, statsUpdater)
	if err != nil {
		logger.Fatal("new chat server:", err)
	}

	srv := api.NewCampusHubApp(mux, logger, chatServer, dbConn, dir, recoverySM, tokens, statsUpdater, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	recoverySM.Run()
	defer recoverySM.Stop()

	go chatServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down chat server...")
	if err := chatServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("chat server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
