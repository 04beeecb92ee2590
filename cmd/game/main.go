package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/tomz197/hopline/internal/config"
	"github.com/tomz197/hopline/internal/loop"
	"github.com/tomz197/hopline/internal/loop/client"
)

func main() {
	settings, err := config.Load(config.GetEnv("HOPLINE_CONFIG", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := settings.NewLogger("hopline")

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	// Raw mode swallows Ctrl-C as a key; SIGTERM still ends the game.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	opts := append(settings.DriverOptions(), loop.WithJumpSource(loop.SourceManual))
	driver, err := loop.NewDriver(logger, opts...)
	if err != nil {
		logger.Error("session setup failed", "err", err)
		return
	}
	driverCtx, cancelDriver := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		driver.Run(driverCtx)
		close(done)
	}()

	c := client.NewClient(driver, bufio.NewReader(os.Stdin), os.Stdout, client.ClientOptions{Logger: logger})
	runErr := c.Run(ctx)
	cancelDriver()
	<-done

	if runErr != nil {
		_ = term.Restore(fd, oldState)
		fmt.Fprintf(os.Stderr, "game error: %v\n", runErr)
		os.Exit(1)
	}
}
