package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/board"
)

var (
	// Global flags
	verbose   bool
	boardName string
	boardFile string
	useRaw    bool
	useSim    bool
)

var rootCmd = &cobra.Command{
	Use:   "otg",
	Short: "OpenTraceGPIO - GPIO and PWM pin control",
	Long: `OpenTraceGPIO (otg) controls GPIO and PWM pins on embedded Linux
boards through sysfs or memory-mapped registers.

Examples:
  otg gpio get 17 --raw               # Read kernel pin 17 directly
  otg gpio set 3 1 --board rpi        # Drive logical pin 3 high
  otg gpio watch 4 --edge rising      # Print edge events until interrupted
  otg pwm duty 0 0.25                 # 25% duty cycle on PWM pin 0
  otg gpio set 3 1 --sim              # Exercise the pipeline without hardware`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&boardName, "board", "rpi", "built-in board map (rpi, generic)")
	rootCmd.PersistentFlags().StringVar(&boardFile, "board-file", "", "YAML board descriptor (overrides --board)")
	rootCmd.PersistentFlags().BoolVar(&useRaw, "raw", false, "treat pin numbers as kernel sysfs numbers")
	rootCmd.PersistentFlags().BoolVar(&useSim, "sim", false, "use the in-memory simulator instead of hardware")
}

// selectedBoard resolves the board map from the global flags.
func selectedBoard() (board.Map, error) {
	if boardFile != "" {
		return board.LoadFile(boardFile)
	}
	switch boardName {
	case "rpi", "raspberrypi":
		return board.RaspberryPi(), nil
	case "generic":
		return board.Passthrough{}, nil
	}
	return nil, fmt.Errorf("unknown board %q (want rpi or generic, or use --board-file)", boardName)
}
