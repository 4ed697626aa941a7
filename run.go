package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"socgen/emu/log"
	"socgen/soc"
)

// loadConfig loads the configuration at path, or the default one if path is
// empty.
func loadConfig(path string) soc.Config {
	if path == "" {
		return soc.DefaultConfig()
	}
	cfg, err := soc.LoadConfig(path)
	checkf(err, "invalid configuration")
	return cfg
}

// apply overrides the configuration with the command line flags.
func (o Overrides) apply(cfg *soc.Config) {
	if o.CPU != "" {
		cfg.CPU = o.CPU
	}
	if o.Baudrate != 0 {
		for i := range cfg.Periphs {
			if cfg.Periphs[i].Kind == soc.KindUART {
				cfg.Periphs[i].Baudrate = o.Baudrate
			}
		}
	}
	if o.Sim {
		cfg.Sim = true
	}
}

func buildMain(args Build) {
	cfg := loadConfig(args.Config)
	args.Overrides.apply(&cfg)

	s, err := soc.Compose(cfg, soc.WithUARTOutput(io.Discard))
	checkf(err, "failed to compose SoC")

	mm := s.MemoryMap()
	if args.JSON {
		checkf(mm.WriteJSON(os.Stdout), "failed to write memory map")
	} else {
		checkf(mm.WriteText(os.Stdout), "failed to write memory map")
	}

	if args.Graph != nil {
		defer args.Graph.Close()
		s.WriteGraph(args.Graph)
	}
}

func runMain(args Run) {
	cfg := loadConfig(args.Config)
	args.Overrides.apply(&cfg)
	if args.Firmware != "" {
		cfg.Firmware = args.Firmware
	}

	var opts []soc.Option
	if args.Trace != nil {
		defer args.Trace.Close()
		opts = append(opts, soc.WithTrace(args.Trace))
	}

	s, err := soc.Compose(cfg, opts...)
	checkf(err, "failed to compose SoC")

	if args.Statsview {
		launchStatsview(os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ticks, err := s.Run(ctx, args.Ticks)
	if err != nil {
		log.ModSoC.WarnZ("simulation interrupted").Error("err", err).End()
	}

	fmt.Fprintf(os.Stderr, "\n%d cycles simulated", ticks)
	if s.CPU.Halted() {
		fmt.Fprintf(os.Stderr, ", cpu halted")
	}
	fmt.Fprintln(os.Stderr)
	for _, trap := range s.CPU.Traps() {
		fmt.Fprintf(os.Stderr, "  %s\n", trap)
	}
	if n := s.Decoder.Errors(); n != 0 {
		fmt.Fprintf(os.Stderr, "%d bus errors\n", n)
	}
}

// checkMain validates all configurations concurrently, composing each of
// them.
func checkMain(args Check) {
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	var failed atomic.Int32
	results := make([]error, len(args.Configs))
	for i, path := range args.Configs {
		g.Go(func() error {
			cfg, err := soc.LoadConfig(path)
			if err == nil {
				_, err = soc.Compose(cfg, soc.WithUARTOutput(io.Discard))
			}
			if err != nil {
				failed.Add(1)
			}
			results[i] = err
			return nil
		})
	}
	g.Wait()

	for i, path := range args.Configs {
		if results[i] != nil {
			fmt.Printf("%s: %v\n", path, results[i])
		} else {
			fmt.Printf("%s: ok\n", path)
		}
	}
	if n := failed.Load(); n != 0 {
		fatalf("%d invalid configuration(s)", n)
	}
}

func defaultsMain() {
	buf, err := soc.DefaultConfig().Marshal()
	checkf(err, "failed to encode configuration")
	os.Stdout.Write(buf)
}
