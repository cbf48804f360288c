// Command mocktest-cli runs one timed attempt of a test defined in a YAML file, offline.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lshigami/mocktest/internal/attempt"
	"github.com/lshigami/mocktest/internal/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.Init()

	file := flag.String("file", "", "YAML test definition")
	tick := flag.Duration("tick", time.Second, "countdown refresh interval")
	flag.Parse()
	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	tf, err := LoadTestFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to load test file")
	}
	test, err := tf.Test()
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Invalid test file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := &memStore{questions: test.Questions, mapping: tf.Mapping}
	a, err := attempt.Begin(ctx, store, 1, 1, test.ID, test.DurationSeconds)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start attempt")
	}
	r := &runner{attempt: a, file: tf, out: os.Stdout}

	fmt.Fprintf(r.out, "%s: %d questions, %s\n%s\n", tf.Title, len(test.Questions), clock(test.DurationSeconds), help)
	r.mu.Lock()
	r.printQuestion()
	r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	countdown := attempt.NewCountdown(a, &r.mu,
		attempt.WithInterval(*tick),
		attempt.OnExpire(func() { fmt.Fprintln(r.out, "\nTime is up, the attempt was submitted.") }),
	)
	expired := make(chan error, 1)
	go func() { expired <- countdown.Run(runCtx) }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-expired:
			if err != nil {
				log.Error().Err(err).Msg("Countdown stopped")
			}
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			if r.handle(line) != actionContinue {
				break loop
			}
		}
	}
	cancel()

	r.mu.Lock()
	submitted := a.State() == attempt.Submitted
	r.mu.Unlock()
	if !submitted {
		fmt.Fprintln(r.out, "Quit without submitting.")
		return
	}
	if err := r.finish(context.Background(), store); err != nil {
		log.Fatal().Err(err).Msg("Failed to score attempt")
	}
}
