// Command dylink is a small inspection tool for the dylink module: it
// opens a candidate library and resolves a symbol, or reports on the
// process-wide Vulkan registry, from the command line.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/lazydl/dylink"
	"github.com/lazydl/dylink/library"
	"github.com/lazydl/dylink/loader"
	"github.com/lazydl/dylink/vulkan"
)

var version string

var levelByName = map[string]int{
	"quiet":   0,
	"info":    1,
	"verbose": 2,
	"debug":   3,
}

func loggerFromFlag(c *cli.Context) (dylink.Logger, error) {
	name := c.String("log-level")
	level, ok := levelByName[name]
	if !ok {
		return nil, fmt.Errorf("unknown log-level %q, want one of quiet|info|verbose|debug", name)
	}
	return &dylink.PrintfLogger{Verbosity: level}, nil
}

func resolveCommand(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: dylink resolve <candidate[,candidate...]> <symbol>")
	}
	logger, err := loggerFromFlag(c)
	if err != nil {
		return err
	}
	candidates := strings.Split(c.Args().Get(0), ",")
	symbol := c.Args().Get(1)

	lib := library.New(loader.NewSystem(), logger, candidates...)
	addr, err := lib.Resolve(symbol)
	if err != nil {
		return fmt.Errorf("resolve %s against %v: %w", symbol, candidates, err)
	}
	fmt.Printf("%s = %#x\n", symbol, addr)
	return nil
}

func forceCommand(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("usage: dylink force <candidate[,candidate...]>")
	}
	logger, err := loggerFromFlag(c)
	if err != nil {
		return err
	}
	candidates := strings.Split(c.Args().Get(0), ",")

	backend := loader.NewSystem()
	lib := library.New(backend, logger, candidates...)
	if err := lib.Force(); err != nil {
		return fmt.Errorf("force %v: %w", candidates, err)
	}
	fmt.Printf("opened one of %v\n", candidates)
	return nil
}

func listVulkanCommand(c *cli.Context) error {
	registry := vulkan.DefaultRegistry()

	instances := 0
	registry.RangeInstances(func(uintptr) (uintptr, bool) {
		instances++
		return 0, false
	})
	devices := 0
	registry.RangeDevices(func(uintptr) (uintptr, bool) {
		devices++
		return 0, false
	})
	fmt.Printf("instances=%d devices=%d\n", instances, devices)

	policy := vulkan.Default()
	if _, err := policy.ResolveSymbol("vkGetInstanceProcAddr"); err != nil {
		fmt.Printf("vkGetInstanceProcAddr: unavailable: %v\n", err)
		return nil
	}
	fmt.Println("vkGetInstanceProcAddr: available")
	return nil
}

func main() {
	app := &cli.App{
		Name:    "dylink",
		Version: version,
		Usage:   "inspect dynamic library resolution",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "quiet, info, verbose, or debug",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "resolve",
				Usage:  "open a library and resolve one symbol",
				Action: resolveCommand,
			},
			{
				Name:   "force",
				Usage:  "force a library open without resolving a symbol",
				Action: forceCommand,
			},
			{
				Name:   "list-vulkan",
				Usage:  "report the process-wide Vulkan registry and bootstrap status",
				Action: listVulkanCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
