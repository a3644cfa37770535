package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	noColor := os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stderr.Fd())
	InitializeLogger(zerolog.InfoLevel, noColor)
}

// Populated by ldflags (ugh)
var (
	version            string
	buildUnixTimestamp string
	commitHash         string
)

func buildInfo() BuildInfo {
	ts, _ := strconv.ParseInt(buildUnixTimestamp, 10, 64)
	return BuildInfo{
		Version:   version,
		Commit:    commitHash,
		BuildTime: time.Unix(ts, 0).UTC(),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(newCrabOSFS(), os.Getenv)
	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("crabcups failed")
	}
}
