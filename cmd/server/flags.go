package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"stitch-ai/internal/appdirs"
	"stitch-ai/internal/deps"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func handleCLIFlags() (bool, int) {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	showVersion := flags.Bool("version", false, "print version information")
	showDiagnose := flags.Bool("diagnose", false, "print runtime diagnostics")
	installDeps := flags.Bool("install-deps", false, "download missing media dependencies, then exit")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return true, 2
	}

	if !*showVersion && !*showDiagnose && !*installDeps {
		return false, 0
	}

	if *showVersion {
		printVersion()
	}

	if *showDiagnose {
		if *showVersion {
			fmt.Println()
		}
		printDiagnose()
	}

	if *installDeps {
		if *showVersion || *showDiagnose {
			fmt.Println()
		}
		return true, runDependencyInstall()
	}

	return true, 0
}

func printVersion() {
	fmt.Printf("version: %s\ncommit: %s\ndate: %s\n", version, commit, date)
}

func printDiagnose() {
	fmt.Printf("runtime: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("version: %s\n", version)
	fmt.Printf("commit: %s\n", commit)
	fmt.Printf("date: %s\n", date)

	if wd, err := os.Getwd(); err == nil {
		fmt.Printf("working_dir: %s\n", wd)
	} else {
		fmt.Printf("working_dir: <error: %v>\n", err)
	}

	if exePath, err := os.Executable(); err == nil {
		fmt.Printf("executable: %s\n", exePath)
	} else {
		fmt.Printf("executable: <error: %v>\n", err)
	}

	paths, err := appdirs.Resolve()
	if err != nil {
		fmt.Printf("app_dirs: <error: %v>\n", err)
	}
	fmt.Printf("portable: %v\n", paths.Portable)
	printPath("config", paths.ConfigFile)
	printPath("effective_log_dir", paths.LogDir)
	printPath("output", paths.OutputDir)
	printPath("cache", paths.CacheDir)

	printDependency("ffmpeg")
	printDependency("ffprobe")
}

func printDependency(name string) {
	if path, err := exec.LookPath(name); err == nil {
		fmt.Printf("dependency.%s: found (%s)\n", name, path)
	} else {
		fmt.Printf("dependency.%s: missing (%v)\n", name, err)
	}
}

// runDependencyInstall fetches whatever the resolver reports missing.
// Exits non-zero when a must-tier dependency is still unavailable
// afterwards, so scripts can gate on it.
func runDependencyInstall() int {
	states := deps.ResolveDependencyInventory()
	fmt.Println(deps.FormatDependencyReport(states))

	failed := false
	for _, state := range states {
		if state.Status == deps.DependencyStatusOK {
			continue
		}
		if !deps.CanAutoInstallDependency(state.ID) {
			if state.Tier == deps.DependencyTierMust {
				fmt.Printf("install.%s: no automatic installer for %s/%s, install it manually\n",
					state.ID, runtime.GOOS, runtime.GOARCH)
				failed = true
			}
			continue
		}

		fmt.Printf("install.%s: starting\n", state.ID)
		err := deps.InstallDependency(state.ID, func(progress deps.InstallProgress) {
			fmt.Printf("install.%s: %s (%.0f%%)\n", progress.DependencyID, progress.Stage, progress.Percent*100)
		})
		if err != nil {
			fmt.Printf("install.%s: failed (%v)\n", state.ID, err)
			failed = true
			continue
		}
		fmt.Printf("install.%s: done\n", state.ID)
	}

	fmt.Println()
	fmt.Println(deps.FormatDependencyReport(deps.ResolveDependencyInventory()))
	if failed {
		return 1
	}
	return 0
}

func printPath(name, value string) {
	absPath, err := filepath.Abs(value)
	if err != nil {
		fmt.Printf("path.%s: %s (abs_error=%v)\n", name, value, err)
		return
	}

	if _, err = os.Stat(absPath); err == nil {
		fmt.Printf("path.%s: %s (exists)\n", name, absPath)
		return
	}
	if os.IsNotExist(err) {
		fmt.Printf("path.%s: %s (missing)\n", name, absPath)
		return
	}

	fmt.Printf("path.%s: %s (error=%v)\n", name, absPath, err)
}
