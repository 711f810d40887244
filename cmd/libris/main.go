package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/opst/libris/pkg/assistant"
	"github.com/opst/libris/pkg/auth"
	"github.com/opst/libris/pkg/auth/key"
	"github.com/opst/libris/pkg/buildtime"
	"github.com/opst/libris/pkg/configs/server"
	kpg "github.com/opst/libris/pkg/db/postgres"
	"github.com/opst/libris/pkg/isbn"
	"github.com/opst/libris/pkg/utils/filewatch"
)

func main() {
	configPath := flag.String("config", os.Getenv("LIBRIS_CONFIG"), "path to server config")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	pversion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *pversion {
		fmt.Println("libris", buildtime.VersionString())
		return
	}
	log.Printf("libris %s", buildtime.VersionString())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conf, err := server.Load(*configPath)
	if err != nil {
		log.Fatalf("can not read configuration: %s", err)
	}
	{
		ctx_, ccan, err := filewatch.UntilModifyContext(ctx, *configPath)
		if err != nil {
			log.Fatalf("can not watch configuration: %s", err)
		}
		defer ccan()
		ctx = ctx_
	}

	db, err := kpg.New(
		ctx, conf.Database(),
		kpg.WithRules(conf.Circulation()),
		kpg.WithSchemaRepository(conf.SchemaRepository()),
	)
	if err != nil {
		log.Fatalf("can not connect to database: %s", err)
	}
	defer db.Close()
	{
		ctx_, ccan := db.Schema().Context(ctx)
		defer ccan()
		ctx = ctx_
	}

	authConf := conf.Auth()
	keychain, err := auth.NewKeychain(authConf.Secret(), key.HS256(authConf.TokenTTL()*2, 32))
	if err != nil {
		log.Fatalf("can not prepare signing keys: %s", err)
	}
	if len(authConf.Secret()) == 0 {
		log.Printf(
			"%s is not set. tokens are signed with a random key and will be invalid after restart.",
			server.EnvAuthSecret,
		)
	}
	authority := auth.NewAuthority(
		keychain,
		auth.WithIssuer(authConf.Issuer()),
		auth.WithTokenTTL(authConf.TokenTTL()),
	)

	var model assistant.Model
	if ac := conf.Assistant(); ac.Enabled() {
		g, err := assistant.NewGemini(ctx, ac.APIKey(), ac.ChatModel(), ac.EmbeddingModel())
		if err != nil {
			log.Fatalf("can not set up the assistant: %s", err)
		}
		model = g
	} else {
		log.Printf("%s is not set. the assistant chat is disabled.", server.EnvAssistantAPIKey)
	}

	e := BuildServer(
		Components{
			DB:        db,
			Issuer:    authority,
			Verifier:  authority,
			ISBN:      isbn.NewOpenLibrary(conf.ISBN().Endpoint(), conf.ISBN().Timeout()),
			Assistant: assistant.New(model, db),
			Clock:     time.Now,
		},
		*loglevel,
	)
	for _, r := range e.Routes() {
		e.Logger.Debugf("- mount handler: %s %s", strings.ToUpper(r.Method), r.Path)
	}

	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		addr := ":" + conf.Port()
		var err error
		if cert, certkey := *pcert, *pkey; cert != "" && certkey != "" {
			err = e.StartTLS(addr, cert, certkey)
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ch <- err
		}
	}()

	exit := 0
	select {
	case <-ctx.Done():
		if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
			e.Logger.Errorf("stopping: %s", cause)
			exit = 1
		} else {
			e.Logger.Info("stopping by signal")
		}
	case err := <-ch:
		if err != nil {
			e.Logger.Error("server stops with error:", err)
			exit = 1
		}
	}

	e.Logger.Info("shutting down...")
	qctx, qcancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer qcancel()
	if err := e.Shutdown(qctx); err != nil {
		e.Logger.Errorf("shutdown with error: %s", err)
		exit = 1
	}
	if exit != 0 {
		os.Exit(exit)
	}
}
