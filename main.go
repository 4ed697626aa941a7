package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

func main() {
	cfg := parseArgs(os.Args[1:])

	switch cfg.mode {
	case buildMode:
		buildMain(cfg.Build)
	case runMode:
		runMain(cfg.Run)
	case checkMode:
		checkMain(cfg.Check)
	case defaultsMode:
		defaultsMain()
	case versionMode:
		fmt.Println("socgen", version())
	}
}

func version() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" {
		return "(devel)"
	}
	return bi.Main.Version
}
