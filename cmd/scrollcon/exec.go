package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"pkt.systems/pslog"
	"pkt.systems/scrollcon/internal/appconfig"
	"pkt.systems/scrollcon/internal/lineedit"
)

const maxChildLine = 1024 * 1024

func newExecCmd() *cobra.Command {
	var cfgPath string
	var logFile string
	var prompt string
	var trace bool
	cmd := &cobra.Command{
		Use:   "exec [flags] -- command [args...]",
		Short: "Run a command behind a scrollback console",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			screen, err := cfg.ScreenSettings()
			if err != nil {
				return err
			}
			inFd, outFd := int(os.Stdin.Fd()), int(os.Stdout.Fd())
			if !term.IsTerminal(inFd) || !term.IsTerminal(outFd) {
				return errors.New("exec requires an interactive terminal")
			}
			width, height, err := term.GetSize(outFd)
			if err != nil {
				return fmt.Errorf("terminal size: %w", err)
			}

			logger, closeLog, err := openConsoleLog(logFile, trace)
			if err != nil {
				return err
			}
			defer closeLog()
			logger = logger.With("command", args[0])

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			child := exec.CommandContext(ctx, args[0], args[1:]...)
			stdin, events, err := startChild(child)
			if err != nil {
				return err
			}
			logger.Info("process started", "pid", child.Process.Pid, "args", strings.Join(args[1:], " "))

			state, err := term.MakeRaw(inFd)
			if err != nil {
				return fmt.Errorf("raw mode: %w", err)
			}
			defer func() { _ = term.Restore(inFd, state) }()

			console, err := newLocalConsole(os.Stdout, stdin, termSize{width: width, height: height}, prompt, screen, logger)
			if err != nil {
				return err
			}
			keys := make(chan lineedit.Key, 16)
			go lineedit.ReadKeys(os.Stdin, keys)
			sizes := watchResize(ctx, outFd)
			return console.run(ctx, keys, sizes, events)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the console owns the terminal")
	cmd.Flags().StringVar(&prompt, "prompt", "$ ", "prompt shown before typed input")
	cmd.Flags().BoolVar(&trace, "trace", false, "log at trace level")
	return cmd
}

// openConsoleLog returns the logger used while the terminal is in raw mode.
// Without a file logs are discarded since stderr shares the screen.
func openConsoleLog(path string, trace bool) (pslog.Logger, func(), error) {
	level := pslog.InfoLevel
	if trace {
		level = pslog.TraceLevel
	}
	if path == "" {
		return pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, NoColor: true}), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := pslog.NewWithOptions(f, pslog.Options{
		Mode:     pslog.ModeStructured,
		NoColor:  true,
		MinLevel: level,
	})
	return logger, func() { _ = f.Close() }, nil
}

// startChild starts cmd and streams its output lines followed by its exit.
func startChild(cmd *exec.Cmd) (io.WriteCloser, <-chan childEvent, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	events := make(chan childEvent, 64)
	var wg sync.WaitGroup
	wg.Add(2)
	go pumpLines(stdout, false, events, &wg)
	go pumpLines(stderr, true, events, &wg)
	go func() {
		wg.Wait()
		events <- childEvent{exited: true, err: cmd.Wait()}
		close(events)
	}()
	return stdin, events, nil
}

func pumpLines(r io.Reader, stderr bool, events chan<- childEvent, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxChildLine)
	for scanner.Scan() {
		events <- childEvent{text: strings.TrimRight(scanner.Text(), "\r"), stderr: stderr}
	}
	if err := scanner.Err(); err != nil {
		events <- childEvent{text: fmt.Sprintf("output dropped: %v", err), stderr: true}
		// Discard the rest of the stream.
		_, _ = io.Copy(io.Discard, r)
	}
}

// watchResize reports the terminal size after every SIGWINCH.
func watchResize(ctx context.Context, fd int) <-chan termSize {
	sizes := make(chan termSize, 1)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, unix.SIGWINCH)
	go func() {
		defer signal.Stop(sig)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				width, height, err := term.GetSize(fd)
				if err != nil {
					continue
				}
				select {
				case sizes <- termSize{width: width, height: height}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return sizes
}
