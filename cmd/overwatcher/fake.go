package main

import (
	"github.com/embedwatch/overwatcher/internal/engine"
	"github.com/spf13/cobra"
)

var fakeFlags endpointFlags

// fakeCmd is the "fake" server variant (§4.1): it binds and accepts one
// connection instead of dialing out, driving the same test description
// and engine core against whatever connects. It takes the test
// description path as its positional argument, the same as run --
// the engine's own behavior differs only in the link manager's
// construction-time Listener flag, per §4.1 ("this is selected by a
// construction-time flag and is the only behavioral difference").
var fakeCmd = &cobra.Command{
	Use:   "fake <test>",
	Short: "Bind and accept a connection instead of dialing out",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		server, port, sleepSockWait, err := resolveEndpoint(&fakeFlags)
		if err != nil {
			return err
		}

		cfg := engine.Config{
			Server:        server,
			Port:          port,
			Listener:      true,
			SleepSockWait: sleepSockWait,
		}

		outcome, err := runEngine(args[0], cfg, &fakeFlags)
		return toExitErr(outcome, err)
	},
}

func init() {
	addEndpointFlags(fakeCmd, &fakeFlags)
	rootCmd.AddCommand(fakeCmd)
}
