package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"socgen/emu/log"
	"socgen/hw/cpu"
)

type mode byte

const (
	buildMode    mode = iota // Compose a SoC and show its memory map
	runMode                  // Compose and simulate a SoC
	checkMode                // Validate configuration files
	defaultsMode             // Print the default configuration
	versionMode              // Show socgen version
)

type (
	CLI struct {
		Build    Build    `cmd:"" help:"Compose a SoC and print its memory map."`
		Run      Run      `cmd:"" help:"Compose a SoC and simulate it."`
		Check    Check    `cmd:"" help:"Validate configuration files."`
		Defaults Defaults `cmd:"" help:"Print the default SoC configuration."`
		Version  Version  `cmd:"" help:"Show socgen version."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Overrides struct {
		CPU      string `name:"cpu" help:"CPU variant (${cpus}), overrides the configuration."`
		Baudrate uint32 `name:"baudrate" help:"UART baudrate, overrides the configuration."`
		Sim      bool   `name:"sim" help:"Use simulation friendly peripheral timings."`
	}

	Build struct {
		Config    string `arg:"" name:"/path/to/config" help:"${config_help}" type:"existingfile" optional:""`
		Overrides `embed:""`

		JSON  bool     `name:"json" help:"Print the memory map as JSON."`
		Graph *outfile `name:"graph" help:"Write a DOT graph of the SoC." placeholder:"FILE|stdout|stderr"`
	}

	Run struct {
		Config    string `arg:"" name:"/path/to/config" help:"${config_help}" type:"existingfile" optional:""`
		Overrides `embed:""`

		Firmware  string   `name:"firmware" help:"Firmware image, overrides the configuration." type:"existingfile"`
		Ticks     uint64   `name:"ticks" help:"Number of clock cycles to simulate (0: until the CPU halts)." default:"0"`
		Trace     *outfile `name:"trace" help:"Write system bus trace." placeholder:"FILE|stdout|stderr"`
		Statsview bool     `name:"statsview" help:"${statsview_help}"`
	}

	Check struct {
		Configs []string `arg:"" name:"/path/to/config" help:"Configuration files." type:"existingfile"`
	}

	Defaults struct{}
	Version  struct{}
)

var vars = kong.Vars{
	"cpus":           strings.Join(cpu.Names(), ", "),
	"config_help":    "SoC configuration file (TOML). The default SoC is used if omitted.",
	"statsview_help": "Serve runtime statistics at http://" + statsviewAddr + "/debug/statsview.",
	"log_help":       "Enable logging for specified modules.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("socgen"),
		kong.Description("System-on-chip composer and cycle-level simulator."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch strings.Fields(ctx.Command())[0] {
	case "build":
		cfg.mode = buildMode
	case "check":
		cfg.mode = checkMode
	case "defaults":
		cfg.mode = defaultsMode
	case "version":
		cfg.mode = versionMode
	default:
		cfg.mode = runMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if ctx.Command() == "" {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n\t"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
