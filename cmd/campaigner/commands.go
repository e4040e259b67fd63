package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/engine"
	"github.com/spetersoncode/campaigner/export"
	"github.com/spetersoncode/campaigner/internal/docload"
)

func newRunCmd() *cobra.Command {
	var (
		companyName string
		companyURL  string
		webFile     string
		docsDir     string
		brandVoice  string
		brandTone   string
		pillars     []string
		snapshot    string
		auto        bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a new campaign run",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			eng, gw, err := newEngine(cmd, log)
			if err != nil {
				return err
			}

			in := campaigner.Inputs{
				CompanyName:      companyName,
				CompanyURL:       companyURL,
				BrandVoice:       brandVoice,
				BrandTone:        brandTone,
				MessagingPillars: pillars,
			}

			if webFile != "" {
				data, err := os.ReadFile(webFile)
				if err != nil {
					return fmt.Errorf("read web content file: %w", err)
				}
				in.WebContent = string(data)
			}
			if in.WebContent == "" && companyURL != "" {
				content, err := gw.Fetch(cmd.Context(), companyURL)
				if err != nil {
					return fmt.Errorf("fetch %s: %w", companyURL, err)
				}
				in.WebContent = content
			}
			if docsDir != "" {
				docs, err := docload.LoadDir(docsDir)
				if err != nil {
					return err
				}
				in.DocContent = docs
			}

			run := eng.NewRun(in)
			fmt.Fprintf(cmd.OutOrStdout(), "run %s started\n", run.ID)
			return driveRun(cmd, eng, run, snapshot, auto)
		},
	}

	cmd.Flags().StringVar(&companyName, "company", "", "company name (extracted from inputs if empty)")
	cmd.Flags().StringVar(&companyURL, "url", "", "company website to fetch")
	cmd.Flags().StringVar(&webFile, "web-file", "", "file with pre-fetched web content")
	cmd.Flags().StringVar(&docsDir, "docs", "", "directory of .txt/.md supporting documents")
	cmd.Flags().StringVar(&brandVoice, "voice", "", "brand voice guideline")
	cmd.Flags().StringVar(&brandTone, "tone", "", "brand tone guideline")
	cmd.Flags().StringSliceVar(&pillars, "pillar", nil, "messaging pillar (repeatable)")
	cmd.Flags().StringVarP(&snapshot, "snapshot", "s", "campaign.json", "snapshot file path")
	cmd.Flags().BoolVar(&auto, "auto", false, "resume checkpoints automatically without review")

	return cmd
}

func newResumeCmd() *cobra.Command {
	var (
		snapshot  string
		stateFile string
		auto      bool
	)

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume a run suspended at a review checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			eng, _, err := newEngine(cmd, log)
			if err != nil {
				return err
			}

			run, err := engine.LoadFile(snapshot)
			if err != nil {
				return err
			}

			var edited *campaigner.CampaignState
			if stateFile != "" {
				data, err := os.ReadFile(stateFile)
				if err != nil {
					return fmt.Errorf("read edited state: %w", err)
				}
				edited = &campaigner.CampaignState{}
				if err := json.Unmarshal(data, edited); err != nil {
					return fmt.Errorf("parse edited state: %w", err)
				}
			}

			if err := eng.Resume(run, edited); err != nil {
				return err
			}
			return driveRun(cmd, eng, run, snapshot, auto)
		},
	}

	cmd.Flags().StringVarP(&snapshot, "snapshot", "s", "campaign.json", "snapshot file path")
	cmd.Flags().StringVar(&stateFile, "state", "", "JSON file with the edited campaign state")
	cmd.Flags().BoolVar(&auto, "auto", false, "resume later checkpoints automatically")

	return cmd
}

// driveRun advances until the next checkpoint or a terminal status, saving
// the snapshot on every stop.
func driveRun(cmd *cobra.Command, eng *engine.Engine, run *engine.WorkflowRun, snapshot string, auto bool) error {
	out := cmd.OutOrStdout()
	for {
		runErr := eng.Run(cmd.Context(), run)
		if err := engine.SaveFile(snapshot, run); err != nil {
			return err
		}
		if runErr != nil {
			return fmt.Errorf("run %s failed at %s: %w", run.ID, run.Current, runErr)
		}

		switch run.Status {
		case engine.StatusAwaitingReview:
			if auto {
				if err := eng.Resume(run, nil); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintf(out, "run paused after %s for review; snapshot saved to %s\n", run.Current, snapshot)
			fmt.Fprintf(out, "inspect with 'campaigner status -s %s', continue with 'campaigner resume -s %s'\n", snapshot, snapshot)
			return nil
		case engine.StatusCompleted:
			fmt.Fprintf(out, "run %s completed; snapshot saved to %s\n", run.ID, snapshot)
			return nil
		default:
			return fmt.Errorf("run %s stopped in status %s", run.ID, run.Status)
		}
	}
}

func newStatusCmd() *cobra.Command {
	var snapshot string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of a saved run",
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := engine.LoadFile(snapshot)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run:      %s\n", run.ID)
			fmt.Fprintf(out, "status:   %s\n", run.Status)
			fmt.Fprintf(out, "stage:    %s\n", run.Current)
			fmt.Fprintf(out, "updated:  %s\n", run.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
			if run.State.CompanyName != "" {
				fmt.Fprintf(out, "company:  %s\n", run.State.CompanyName)
			}

			if len(run.State.Manifest) > 0 {
				fmt.Fprintln(out, "\nassets:")
				for _, spec := range run.State.Manifest {
					line := fmt.Sprintf("  %-15s %-25s %s", spec.Status, spec.Type, spec.Persona)
					if a := run.State.Assets[spec.ID]; a != nil && a.Score > 0 {
						line += fmt.Sprintf(" (score %d)", a.Score)
					}
					fmt.Fprintln(out, strings.TrimRight(line, " "))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&snapshot, "snapshot", "s", "campaign.json", "snapshot file path")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		snapshot string
		outDir   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a completed campaign as a Markdown bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := engine.LoadFile(snapshot)
			if err != nil {
				return err
			}
			if run.Status != engine.StatusCompleted {
				return errors.New("only completed runs can be exported")
			}

			bundle := export.Render(run.State)
			if err := bundle.WriteDir(outDir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d files to %s\n", len(bundle.Files), outDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&snapshot, "snapshot", "s", "campaign.json", "snapshot file path")
	cmd.Flags().StringVarP(&outDir, "out", "o", "campaign_export", "output directory")
	return cmd
}
