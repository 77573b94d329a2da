package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/gordonklaus/portaudio"
	"github.com/spf13/cobra"

	"github.com/metalblueberry/intonation/pkg/audio"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := portaudio.Initialize(); err != nil {
				return fmt.Errorf("portaudio: %w", err)
			}
			defer portaudio.Terminate()

			inputs, err := audio.Inputs()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tHOST API\tCHANNELS\tRATE")
			for _, d := range inputs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%.0f\n", d.Name, d.HostApi.Name, d.MaxInputChannels, d.DefaultSampleRate)
			}
			return w.Flush()
		},
	}
}
