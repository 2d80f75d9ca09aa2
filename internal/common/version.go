// Package common holds build metadata and console helpers shared by the binaries.
package common

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/ternarybob/banner"
)

// Version information (set via -ldflags during build)
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// FullVersion returns version with build info.
func FullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", Version, Build, GitCommit)
}

// PrintBanner displays the application banner.
func PrintBanner(name string) {
	banner.PrintSimple(name, Version)
}

var (
	okLabel   = color.New(color.FgGreen, color.Bold).SprintFunc()
	failLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	infoLabel = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Info prints a highlighted progress line to stdout.
func Info(format string, args ...any) {
	fmt.Println(infoLabel("==>"), fmt.Sprintf(format, args...))
}

// Success prints a green summary line to stdout.
func Success(format string, args ...any) {
	fmt.Println(okLabel("ok"), fmt.Sprintf(format, args...))
}

// Failure prints a red error line to stdout.
func Failure(format string, args ...any) {
	fmt.Println(failLabel("failed"), fmt.Sprintf(format, args...))
}
