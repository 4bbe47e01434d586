package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alfredjeanlab/reasons/internal/client"
	"github.com/alfredjeanlab/reasons/internal/events"
	"github.com/alfredjeanlab/reasons/internal/ui"
	"github.com/alfredjeanlab/reasons/internal/vcs"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show recent snapshots and whether a remote is configured",
	GroupID: "inspect",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		limit, _ := cmd.Flags().GetInt("limit")
		serverURL, _ := cmd.Flags().GetString("server")

		var (
			report statusReport
			err    error
		)
		if serverURL != "" {
			report, err = remoteStatus(cmd.Context(), serverURL, limit)
		} else {
			report, err = localStatus(cmd.Context(), limit)
		}
		if err != nil {
			return err
		}

		if jsonOut {
			return printStatusJSON(os.Stdout, report)
		}
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		printStatus(os.Stdout, report)
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("json", false, "output as JSON")
	statusCmd.Flags().Int("limit", 0, "number of snapshots to show (default from config)")
	statusCmd.Flags().String("server", "", "read status from a running server at this URL instead of the local repository")
}

// localStatus reads the repository in the configured directory.
func localStatus(ctx context.Context, limit int) (statusReport, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return statusReport{}, err
	}
	if limit <= 0 {
		limit = cfg.HistoryLimit
	}
	a := newApp(cfg, logger, &events.NoopPublisher{})
	return statusReport{
		OK:        true,
		HasRemote: a.history.HasRemote(ctx),
		Commits:   a.history.Recent(ctx, limit),
	}, nil
}

// remoteStatus asks a running server. The server applies its own history
// limit; limit can only shorten the list further.
func remoteStatus(ctx context.Context, serverURL string, limit int) (statusReport, error) {
	s, err := client.NewHTTPClient(serverURL).Status(ctx)
	if err != nil {
		return statusReport{}, fmt.Errorf("status from %s: %w", serverURL, err)
	}
	commits := s.Commits
	if commits == nil {
		commits = []vcs.Commit{}
	}
	if limit > 0 && len(commits) > limit {
		commits = commits[:limit]
	}
	return statusReport{OK: true, HasRemote: s.HasRemote, Commits: commits}, nil
}

// statusReport mirrors the GET /api/status response.
type statusReport struct {
	OK        bool         `json:"ok"`
	HasRemote bool         `json:"hasRemote"`
	Commits   []vcs.Commit `json:"commits"`
}

func printStatusJSON(w io.Writer, report statusReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printStatus(w io.Writer, report statusReport) {
	remote := ui.RenderWarn("no remote")
	if report.HasRemote {
		remote = ui.RenderOK("origin configured")
	}
	fmt.Fprintf(w, "%s %s\n", ui.RenderHeading("Remote:"), remote)

	if len(report.Commits) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("No snapshots yet."))
		return
	}
	fmt.Fprintln(w, ui.RenderHeading("Snapshots:"))
	for _, c := range report.Commits {
		fmt.Fprintf(w, "  %s  %s\n", ui.RenderHash(c.Hash), c.Message)
	}
}
