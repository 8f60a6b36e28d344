package main

import (
	"github.com/embedwatch/overwatcher/internal/engine"
	"github.com/spf13/cobra"
)

var runFlags endpointFlags
var runTelnet bool
var runEndr bool

var runCmd = &cobra.Command{
	Use:   "run <test>",
	Short: "Dial a device and drive it through a test description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		server, port, sleepSockWait, err := resolveEndpoint(&runFlags)
		if err != nil {
			return err
		}

		cfg := engine.Config{
			Server:        server,
			Port:          port,
			Telnet:        runTelnet,
			Endr:          runEndr,
			SleepSockWait: sleepSockWait,
		}

		outcome, err := runEngine(args[0], cfg, &runFlags)
		return toExitErr(outcome, err)
	},
}

func init() {
	addEndpointFlags(runCmd, &runFlags)
	runCmd.Flags().BoolVar(&runTelnet, "telnet", false, "bare-CR terminator and telnet reboot-aware reopen policy")
	runCmd.Flags().BoolVar(&runEndr, "endr", false, "append CR LF instead of LF on serial")
	rootCmd.AddCommand(runCmd)
}
