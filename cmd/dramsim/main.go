// Command dramsim replays a memory trace through the address
// translation and page migration core and reports the run's counters.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/tinyrange/dramsim/internal/addrmap"
	"github.com/tinyrange/dramsim/internal/debug"
	"github.com/tinyrange/dramsim/internal/memsys"
	"github.com/tinyrange/dramsim/internal/sim"
	"github.com/tinyrange/dramsim/internal/simconfig"
	"github.com/tinyrange/dramsim/internal/topcache"
	"github.com/tinyrange/dramsim/internal/tracefile"
	"github.com/tinyrange/dramsim/internal/translate"
	"golang.org/x/term"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dramsim: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the simulator config file")
	tracePath := flag.String("trace", "", "override the trace path from the config")
	maxTicks := flag.Uint64("max-ticks", 0, "stop after this many frontend ticks (0 = run to completion)")
	queueDepth := flag.Int("queue-depth", 32, "per-channel controller queue depth")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		debug.Enable(os.Stderr)
	}
	if *configPath == "" {
		return fmt.Errorf("missing -config")
	}

	cfg, err := simconfig.Load(*configPath)
	if err != nil {
		return err
	}
	if *tracePath != "" {
		cfg.Trace.Path = *tracePath
	}

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	trace, err := tracefile.Load(cfg.Trace.Path, isTTY)
	if err != nil {
		return err
	}
	slog.Info("loaded trace", "path", cfg.Trace.Path, "records", len(trace.Records), "clocked", trace.Clocked)

	numChannels := cfg.DRAM.LevelSize("channel")
	if numChannels != translate.NumChannels {
		return fmt.Errorf("organization has %d channels, the migration core requires %d", numChannels, translate.NumChannels)
	}

	mapper, err := addrmap.New(cfg.AddressMapper, cfg.DRAM)
	if err != nil {
		return err
	}

	engine, err := translate.New(translate.Config{
		Seed:             cfg.Translation.Seed,
		MaxAddr:          cfg.Translation.MaxAddr,
		PageSize:         cfg.Translation.PageSize(),
		HotPageThreshold: cfg.Translation.HotPageThreshold,
		WindowSize:       cfg.Translation.WindowSize,
		CooldownWindows:  cfg.Translation.CooldownWindows,
		BandwidthGBps:    cfg.Translation.BandwidthGBps,
	})
	if err != nil {
		return err
	}

	controllers := make([]memsys.Controller, numChannels)
	for i := range controllers {
		controllers[i] = memsys.NewQueueController(i, *queueDepth, 1)
	}

	mem, err := memsys.New(mapper, topcache.New(topcache.DefaultSize), controllers)
	if err != nil {
		return err
	}

	frontend, err := sim.New(trace, engine, mem)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if isTTY {
		bar = progressbar.Default(int64(len(trace.Records)), "simulating")
	}

	ratio := int(cfg.Trace.ClockRatio)
	for !frontend.Finished() {
		if *maxTicks > 0 && frontend.Ticks() >= *maxTicks {
			slog.Warn("tick limit reached", "ticks", frontend.Ticks(), "cursor", frontend.Cursor())
			break
		}
		frontend.Tick()
		for i := 0; i < ratio; i++ {
			mem.Tick()
		}
		if bar != nil {
			_ = bar.Set(frontend.Cursor())
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	stats := mem.Stats()
	fmt.Printf("ticks:                   %d\n", frontend.Ticks())
	fmt.Printf("memory_system_cycles:    %d\n", stats.Cycles)
	fmt.Printf("total_num_read_requests: %d\n", stats.ReadRequests)
	fmt.Printf("total_num_write_requests:%d\n", stats.WriteRequests)
	fmt.Printf("total_num_other_requests:%d\n", stats.OtherRequests)
	fmt.Printf("total_cache_requests:    %d\n", stats.CacheHits)
	fmt.Printf("migrations:              %d\n", engine.Migrations())
	fmt.Printf("migration_windows:       %d\n", engine.Windows())
	return nil
}
