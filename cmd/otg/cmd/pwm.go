package cmd

import (
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/pwm"
)

var pwmCmd = &cobra.Command{
	Use:   "pwm",
	Short: "PWM channel operations",
	Long:  `Configure period, duty cycle, and enable state of PWM channels`,
}

var (
	pwmChip    int
	pwmChannel int
)

var pwmPeriodCmd = &cobra.Command{
	Use:   "period <pin> <microseconds>",
	Short: "Set the PWM period",
	Args:  cobra.ExactArgs(2),
	RunE:  runPWMPeriod,
}

var pwmDutyCmd = &cobra.Command{
	Use:   "duty <pin> <fraction>",
	Short: "Set the duty cycle as a fraction in [0,1]",
	Args:  cobra.ExactArgs(2),
	RunE:  runPWMDuty,
}

var pwmEnableCmd = &cobra.Command{
	Use:   "enable <pin> <0|1>",
	Short: "Enable or disable the output",
	Args:  cobra.ExactArgs(2),
	RunE:  runPWMEnable,
}

func init() {
	rootCmd.AddCommand(pwmCmd)
	pwmCmd.AddCommand(pwmPeriodCmd, pwmDutyCmd, pwmEnableCmd)

	pwmCmd.PersistentFlags().IntVar(&pwmChip, "chip", 0,
		"pwm chip id (with --raw)")
	pwmCmd.PersistentFlags().IntVar(&pwmChannel, "channel", 0,
		"pwm channel number (with --raw)")
}

// openPWM builds a channel context from the global flags. All PWM commands
// are one-shot, so ownership is dropped and Close leaves the channel
// exported with the state the command configured.
func openPWM(arg string) (*pwm.PWM, error) {
	var (
		p   *pwm.PWM
		err error
	)
	if useRaw {
		p, err = pwm.OpenRaw(pwmChip, pwmChannel)
	} else {
		n, cerr := strconv.Atoi(arg)
		if cerr != nil {
			return nil, fmt.Errorf("bad pin number %q: %w", arg, cerr)
		}
		m, merr := selectedBoard()
		if merr != nil {
			return nil, merr
		}
		p, err = pwm.Open(m, n)
	}
	if err != nil {
		return nil, err
	}
	p.SetOwner(false)
	if verbose {
		log.Printf("opened %s, period %gs", p, p.CurrentPeriod())
	}
	return p, nil
}

func runPWMPeriod(cmd *cobra.Command, args []string) error {
	us, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad period %q: %w", args[1], err)
	}
	p, err := openPWM(args[0])
	if err != nil {
		return err
	}
	defer p.Close()
	return p.PeriodUs(us)
}

func runPWMDuty(cmd *cobra.Command, args []string) error {
	frac, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("bad fraction %q: %w", args[1], err)
	}
	p, err := openPWM(args[0])
	if err != nil {
		return err
	}
	defer p.Close()
	return p.Write(frac)
}

func runPWMEnable(cmd *cobra.Command, args []string) error {
	v, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad value %q: %w", args[1], err)
	}
	p, err := openPWM(args[0])
	if err != nil {
		return err
	}
	defer p.Close()
	return p.Enable(v != 0)
}
