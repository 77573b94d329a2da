package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/metalblueberry/intonation/pkg/engine"
	"github.com/metalblueberry/intonation/pkg/intonation"
	"github.com/metalblueberry/intonation/pkg/notes"
	"github.com/metalblueberry/intonation/pkg/replay"
	"github.com/metalblueberry/intonation/pkg/tuning"
)

func newReplayCmd(g *globals) *cobra.Command {
	var (
		realtime bool
		tuner    bool
	)

	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Feed a recorded sample script through the engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			script, err := replay.Decode(f)
			if err != nil {
				return err
			}

			eng := engine.New(notes.Standard(),
				engine.WithGate(cfg.Tuner),
				engine.WithIntonation(cfg.Intonation),
				engine.WithHistory(cfg.History),
			)

			var session *intonation.Session
			if !tuner {
				session = eng.StartIntonation()
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := script.Play(ctx, time.Now(), realtime, eng.Feed); err != nil {
				return err
			}

			return printResult(cmd.OutOrStdout(), eng, session)
		},
	}

	cmd.Flags().BoolVar(&realtime, "realtime", false, "wait for each sample's offset")
	cmd.Flags().BoolVar(&tuner, "tuner", false, "only tune, do not run an intonation session")
	return cmd
}

func printResult(out io.Writer, eng *engine.Engine, session *intonation.Session) error {
	r, err := eng.Reading()
	switch {
	case errors.Is(err, tuning.ErrNoReading):
		fmt.Fprintln(out, "reading: none")
	case errors.Is(err, tuning.ErrBetweenNotes):
		fmt.Fprintf(out, "reading: between notes near %s at %.2f Hz\n", r.Note.Name, r.Frequency)
	case err != nil:
		return err
	default:
		fmt.Fprintf(out, "reading: %s %.2f Hz %+.2f Hz %s\n", r.Note.Name, r.Frequency, r.Diff, r.Bucket)
	}

	if session == nil {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STRING\tLABEL\tSTATUS\tOPEN HZ\tHARMONIC HZ\tVERDICT\tERROR HZ")
	for _, slot := range session.Slots() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%.2f\t%s\t%+.2f\n",
			slot.Ordinal, slot.Label, slot.Status, slot.OpenHz, slot.HarmonicHz, slot.Verdict, slot.ErrorHz)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if session.Complete() {
		fmt.Fprintln(out, "intonation: complete")
	} else {
		fmt.Fprintf(out, "intonation: %s\n", session.Hint())
	}
	return nil
}
