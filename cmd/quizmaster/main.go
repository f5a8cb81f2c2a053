// Package main is the entry point for the quizmaster game-master CLI.
// It only handles flag parsing and dependency wiring; the game rules live
// in internal/game and the synchronization layer in internal/channel.
package main

import (
	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	cfg := &Config{}
	cobra.CheckErr(newRootCmd(cfg).Execute())
}
