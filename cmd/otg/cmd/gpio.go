package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/gpio"
)

var gpioCmd = &cobra.Command{
	Use:   "gpio",
	Short: "GPIO pin operations",
	Long:  `Read, write, configure, and watch GPIO pins through sysfs or memory-mapped registers`,
}

var (
	gpioMmap bool
	gpioEdge string
)

var gpioGetCmd = &cobra.Command{
	Use:   "get <pin>",
	Short: "Read a pin level",
	Args:  cobra.ExactArgs(1),
	RunE:  runGPIOGet,
}

var gpioSetCmd = &cobra.Command{
	Use:   "set <pin> <0|1>",
	Short: "Drive a pin",
	Args:  cobra.ExactArgs(2),
	RunE:  runGPIOSet,
}

var gpioDirCmd = &cobra.Command{
	Use:   "dir <pin> <in|out>",
	Short: "Set pin direction",
	Args:  cobra.ExactArgs(2),
	RunE:  runGPIODir,
}

var gpioWatchCmd = &cobra.Command{
	Use:   "watch <pin>",
	Short: "Print edge events until interrupted",
	Long: `Registers an edge callback on the pin and prints one line per event.
Stop with Ctrl-C; the watcher is joined and the pin released before exit.

Examples:
  otg gpio watch 4 --edge rising
  otg gpio watch 17 --raw --edge both`,
	Args: cobra.ExactArgs(1),
	RunE: runGPIOWatch,
}

func init() {
	rootCmd.AddCommand(gpioCmd)
	gpioCmd.AddCommand(gpioGetCmd, gpioSetCmd, gpioDirCmd, gpioWatchCmd)

	gpioCmd.PersistentFlags().BoolVar(&gpioMmap, "mmap", false,
		"use memory-mapped registers for reads and writes")
	gpioWatchCmd.Flags().StringVar(&gpioEdge, "edge", "both",
		"edge to watch (rising, falling, both)")
}

// openPin builds a pin context from the global flags. One-shot commands
// pass keep=true so Close leaves the pin exported and its level intact;
// watch passes keep=false and cleans up the pin it exported.
func openPin(arg string, keep bool) (*gpio.Pin, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("bad pin number %q: %w", arg, err)
	}
	var p *gpio.Pin
	switch {
	case useSim:
		p = gpio.OpenSim(gpio.NewSim())
	case useRaw:
		p, err = gpio.OpenRaw(n)
	default:
		m, merr := selectedBoard()
		if merr != nil {
			return nil, merr
		}
		p, err = gpio.Open(m, n)
	}
	if err != nil {
		return nil, err
	}
	if gpioMmap {
		if err := p.UseMem(true); err != nil {
			p.Close()
			return nil, err
		}
	}
	if keep {
		p.SetOwner(false)
	}
	if verbose {
		log.Printf("opened %s", p)
	}
	return p, nil
}

func runGPIOGet(cmd *cobra.Command, args []string) error {
	p, err := openPin(args[0], true)
	if err != nil {
		return err
	}
	defer p.Close()
	v, err := p.Read()
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}

func runGPIOSet(cmd *cobra.Command, args []string) error {
	v, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad value %q: %w", args[1], err)
	}
	p, err := openPin(args[0], true)
	if err != nil {
		return err
	}
	defer p.Close()
	if err := p.SetDirection(gpio.DirOut); err != nil {
		return err
	}
	return p.Write(v)
}

func runGPIODir(cmd *cobra.Command, args []string) error {
	var d gpio.Direction
	switch args[1] {
	case "in":
		d = gpio.DirIn
	case "out":
		d = gpio.DirOut
	default:
		return fmt.Errorf("bad direction %q (want in or out)", args[1])
	}
	p, err := openPin(args[0], true)
	if err != nil {
		return err
	}
	defer p.Close()
	return p.SetDirection(d)
}

func runGPIOWatch(cmd *cobra.Command, args []string) error {
	var e gpio.Edge
	switch gpioEdge {
	case "rising":
		e = gpio.EdgeRising
	case "falling":
		e = gpio.EdgeFalling
	case "both":
		e = gpio.EdgeBoth
	default:
		return fmt.Errorf("bad edge %q (want rising, falling, or both)", gpioEdge)
	}
	p, err := openPin(args[0], false)
	if err != nil {
		return err
	}
	defer p.Close()
	if err := p.SetDirection(gpio.DirIn); err != nil {
		return err
	}

	events := make(chan struct{}, 16)
	err = p.Watch(e, func(arg any) {
		// Callback runs on the watcher goroutine; hand off and return.
		select {
		case arg.(chan struct{}) <- struct{}{}:
		default:
		}
	}, events)
	if err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	fmt.Printf("watching %s for %s edges, Ctrl-C to stop\n", p, e)
	n := 0
	for {
		select {
		case <-events:
			n++
			v, _ := p.Read()
			fmt.Printf("event %d: level=%d\n", n, v)
		case <-sig:
			return p.Unwatch()
		}
	}
}
