package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/opst/libris/pkg/buildtime"
	"github.com/opst/libris/pkg/configs/server"
	kpg "github.com/opst/libris/pkg/db/postgres"
	"github.com/opst/libris/pkg/loop"
	"github.com/opst/libris/pkg/utils/filewatch"
	"github.com/opst/libris/pkg/utils/try"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownLoopType = errors.New("unknown loop type")

func main() {
	logger := byLogger(log.Default(), WithTimestamp())
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	// call cancel() when this function exits
	defer cancel()

	pconfig := flag.String(
		"config", os.Getenv("LIBRIS_CONFIG"), "path to config file",
	)
	ptypes := flag.String(
		"type", strings.Join([]string{string(HoldExpiry), string(OverdueReport)}, ","),
		`comma separated loop types to run. "holds" and/or "overdue"`,
	)
	pversion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *pversion {
		fmt.Println("libris_loops", buildtime.VersionString())
		return
	}
	logger.Printf("libris_loops %s", buildtime.VersionString())

	types, err := parseLoopTypes(*ptypes)
	if err != nil {
		logger.Fatal(err)
	}

	{
		// stop when the config is modified. the supervisor restarts us with new one.
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *pconfig)
		if err != nil {
			logger.Fatal(err)
		}
		defer cancel()
		ctx = wctx
	}

	conf := try.To(server.Load(*pconfig)).OrFatal(logger)
	db := try.To(kpg.New(
		ctx, conf.Database(),
		kpg.WithRules(conf.Circulation()),
		kpg.WithSchemaRepository(conf.SchemaRepository()),
	)).OrFatal(logger)
	defer db.Close()

	{
		ctx_, ccan := db.Schema().Context(ctx)
		defer ccan()
		ctx = ctx_
	}

	sweep := conf.Sweep()
	intervals := map[LoopType]time.Duration{
		HoldExpiry:    sweep.Interval(),
		OverdueReport: sweep.OverdueInterval(),
	}

	eg, ectx := errgroup.WithContext(ctx)
	for _, t := range types {
		manifest := LoopManifest{
			Type:    t,
			Policy:  loop.Forever(intervals[t]),
			Timeout: sweep.Timeout(),
		}
		logger.Printf(`start loop "%s" /w policy "%s"`, manifest.Type, manifest.Policy)
		eg.Go(func() error {
			return StartLoop(ectx, logger, db, manifest, time.Now)
		})
	}

	err = eg.Wait()
	if err == nil || errors.Is(err, context.Canceled) {
		if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
			logger.Fatal("loops are stopped by: ", cause)
		}
		logger.Println("loops are stopped")
		return
	}
	logger.Fatal(err)
}

func parseLoopTypes(s string) ([]LoopType, error) {
	seen := map[LoopType]struct{}{}
	types := []LoopType{}
	for _, item := range strings.Split(s, ",") {
		t := LoopType(strings.TrimSpace(item))
		switch t {
		case HoldExpiry, OverdueReport:
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownLoopType, t)
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	return types, nil
}
