package main

import (
	"errors"
	"fmt"

	"github.com/alfredjeanlab/reasons/internal/snapshot"
	"github.com/alfredjeanlab/reasons/internal/store"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:     "snapshot",
	Short:   "Record a version snapshot of the current document",
	GroupID: "run",
	RunE: func(cmd *cobra.Command, args []string) error {
		label, _ := cmd.Flags().GetString("label")

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		publisher, err := newPublisher(cfg, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()

		a := newApp(cfg, logger, publisher)
		ctx := cmd.Context()

		// Only a readable document is worth a snapshot.
		if _, err := a.store.Load(ctx); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no document at %s", a.store.Path())
			}
			return err
		}

		message := a.labeler.Label(snapshot.KindVersion, label)
		switch a.recorder.Record(ctx, message) {
		case snapshot.OutcomeCommitted:
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot recorded: %s\n", message)
		case snapshot.OutcomeSkipped:
			fmt.Fprintln(cmd.OutOrStdout(), "No changes since the last snapshot.")
		default:
			return errors.New("snapshot failed, see log for details")
		}
		return nil
	},
}

func init() {
	snapshotCmd.Flags().String("label", "", "version label (default: current time)")
}
