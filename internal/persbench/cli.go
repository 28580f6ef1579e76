package persbench

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gookit/color"
)

func printHelp() {
	colSuccess.Println("Usage: persbench [-s|--subset]")
	fmt.Println()
	color.Info.Println("Builds the benchmark backend software into the local workspace.")
	fmt.Println()
	fmt.Println("  -s, --subset     Only build the most important benchmark applications")
	fmt.Println("  -h, --help       Show this help")
	fmt.Println("      --version    Version information")
}

// Main is the CLI entrypoint for persbench. It returns the process exit
// code: non-zero when a fatal failure aborted the run.
func Main() int {
	// 1. CONTEXT AND SIGNAL SETUP
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigs:
			colArrow.Print("\n-> ")
			color.Danger.Printf("Received %v. Cancelling build gracefully\n", sig)
			cancel()

			// Give the running tool a moment to die, then force exit on a
			// second signal.
			select {
			case <-sigs:
				colArrow.Print("\n-> ")
				color.Danger.Println("Second interrupt received. Forcing immediate exit.")
				os.Exit(130)
			case <-time.After(2 * time.Second):
			}
		case <-ctx.Done():
		}
	}()

	// 2. FLAG PARSING
	subset := false
	for _, arg := range os.Args[1:] {
		switch arg {
		case "-s", "--subset":
			subset = true
		case "-h", "--help", "help":
			printHelp()
			return 0
		case "version", "--version":
			fmt.Printf("persbench %s (%s)\n", version, buildDate)
			return 0
		default:
			colError.Printf("Unknown argument: %s\n", arg)
			printHelp()
			return 2
		}
	}

	// 3. CONFIGURATION
	configPath := ConfigFile
	if root := os.Getenv("PERSBENCH_ROOT"); root != "" {
		configPath = filepath.Join(root, "persbench.conf")
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", configPath, err)
	}
	initConfig(cfg)

	Exec = NewExecutor(ctx)

	// 4. RUN THE PLAN
	if _, err := Run(Exec, subset); err != nil {
		colError.Printf("Build aborted: %v\n", err)
		return 1
	}
	return 0
}
