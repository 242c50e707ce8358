package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glidekit/glidesync/internal/dashboard"
	"github.com/glidekit/glidesync/internal/sync"
	"github.com/glidekit/glidesync/internal/ui"
	"github.com/glidekit/glidesync/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:     "watch [dir]",
	GroupID: "sync",
	Short:   "Watch a directory and push script files as they settle",
	Long: `Watch a directory tree and push script files to the instance when they
stop changing.

A save is pushed only after the file's contents hold still for the
stability window, so editors that write in bursts trigger one push
instead of five. After a push the file is briefly on cooldown and saves
landing inside it are dropped. Hidden files and directories are ignored,
and new subdirectories are picked up automatically.

With --no-auto-sync the watcher only reports changes without pushing.
With --dashboard a live WebSocket dashboard is served on
watch.dashboard_addr (default 127.0.0.1:9480).

Example usage:
  glidesync watch
  glidesync watch scripts --type sys_script
  glidesync watch --stability-window 2s --cooldown 5s
  glidesync watch --dashboard`,
	Args: cobra.MaximumNArgs(1),
	Run:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) {
	window, _ := cmd.Flags().GetDuration("stability-window")
	poll, _ := cmd.Flags().GetDuration("poll-interval")
	cooldown, _ := cmd.Flags().GetDuration("cooldown")
	noAuto, _ := cmd.Flags().GetBool("no-auto-sync")
	useDash, _ := cmd.Flags().GetBool("dashboard")
	types, _ := cmd.Flags().GetStringArray("type")

	// Untouched timer flags defer to the config.
	if !cmd.Flags().Changed("stability-window") {
		window = cfg.Watch.StabilityWindow
	}
	if !cmd.Flags().Changed("poll-interval") {
		poll = cfg.Watch.PollInterval
	}
	if !cmd.Flags().Changed("cooldown") {
		cooldown = cfg.Watch.Cooldown
	}

	dir := cfg.Sync.Dir
	if len(args) == 1 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving directory %s: %v\n", dir, err)
		os.Exit(1)
	}
	if len(types) == 0 {
		types = cfg.Sync.Types
	}

	engine, _, instance, err := connect()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	coord, err := watch.New(engine, watch.Config{
		Dir:             abs,
		Types:           types,
		AutoSync:        !noAuto,
		Instance:        instance,
		StabilityWindow: window,
		PollInterval:    poll,
		Cooldown:        cooldown,
		Logger:          logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	j := openJournal()
	if j != nil {
		defer j.Close()
	}

	var (
		server  *dashboard.Server
		handler *dashboard.Handler
	)
	if useDash {
		addr := cfg.Watch.DashboardAddr
		if addr == "" {
			addr = dashboard.DefaultConfig().Addr
		}
		server = dashboard.NewServer(&dashboard.Config{Addr: addr, Logger: logger})
		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting dashboard: %v\n", err)
			os.Exit(1)
		}
		handler = dashboard.NewHandler(server, logger)
		fmt.Printf("%s Dashboard on http://%s\n", ui.RenderAccent("📊"), server.GetAddr())
	}

	if err := coord.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting watcher: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s Watching %s\n", ui.RenderAccent("👀"), abs)
	fmt.Printf("   Instance: %s\n", instance)
	if len(types) > 0 {
		fmt.Printf("   Types: %s\n", strings.Join(types, ", "))
	}
	if noAuto {
		fmt.Printf("   Auto-sync: off (changes are reported, not pushed)\n")
	}
	fmt.Printf("\nPress Ctrl+C to stop\n\n")

	if handler != nil {
		handler.OnWatchStarted(abs, types, !noAuto, instance)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	handle := func(res sync.Result) {
		printResult(res)
		recordResult(j, res, instance)
		if handler != nil {
			handler.OnSyncResult(res)
		}
	}

	for {
		select {
		case res, ok := <-coord.Results():
			if !ok {
				return
			}
			handle(res)
		case werr, ok := <-coord.Errors():
			if ok && werr != nil {
				fmt.Fprintf(os.Stderr, "%s watcher error: %v\n", ui.RenderWarn("⚠"), werr)
			}
		case <-ctx.Done():
			fmt.Println("\nStopping watcher...")
			if err := coord.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			}
			// Stop closed the channels; hand on anything still buffered.
			for res := range coord.Results() {
				handle(res)
			}
			if server != nil {
				if err := server.Stop(); err != nil {
					fmt.Fprintf(os.Stderr, "Error stopping dashboard: %v\n", err)
				}
			}
			fmt.Println("Watcher stopped")
			return
		}
	}
}

func init() {
	watchCmd.Flags().Duration("stability-window", watch.DefaultConfig().StabilityWindow, "how long a file must hold still before it is pushed")
	watchCmd.Flags().Duration("poll-interval", watch.DefaultConfig().PollInterval, "how often pending files are re-examined")
	watchCmd.Flags().Duration("cooldown", watch.DefaultConfig().Cooldown, "how long after a push trailing saves are dropped")
	watchCmd.Flags().StringArrayP("type", "t", nil, "only push this script type (repeatable)")
	watchCmd.Flags().Bool("no-auto-sync", false, "report changes without pushing them")
	watchCmd.Flags().Bool("dashboard", false, "serve the live WebSocket dashboard")
	rootCmd.AddCommand(watchCmd)
}
