package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"timeagent/internal/app"
	"timeagent/internal/ics"
	"timeagent/internal/scheduling"
)

var (
	planFile string
	planNow  string
)

// planInput is the YAML form of a weekly table:
//
//	kind: unavailable
//	timezone: Europe/Berlin
//	days:
//	  Monday: {startTime: "09:00", endTime: "17:00"}
type planInput struct {
	Kind     string                           `yaml:"kind"`
	TimeZone string                           `yaml:"timezone"`
	Days     map[string]scheduling.TimePeriod `yaml:"days"`
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the recurring events a weekly table would create, as iCalendar",
	Long: `Plan working or unavailable hours offline from a YAML file and print
the resulting recurring events as an .ics document. Nothing is written to
any calendar.

Examples:
  timeagent plan -f hours.yaml
  timeagent plan -f hours.yaml --now 2026-10-19T08:00:00+02:00 > hours.ics
`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "YAML file with kind, timezone and days")
	planCmd.Flags().StringVar(&planNow, "now", "", "reference time (RFC3339), defaults to the current time")
	_ = planCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	ref := time.Now()
	if planNow != "" {
		t, err := time.Parse(time.RFC3339, planNow)
		if err != nil {
			return fmt.Errorf("--now: %w", err)
		}
		ref = t
	}

	f, err := os.Open(planFile)
	if err != nil {
		return err
	}
	defer f.Close()

	events, err := buildPlan(f, ref)
	if err != nil {
		return err
	}
	doc, err := ics.Encode(events, time.Now())
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), doc)
	return err
}

// buildPlan decodes a planInput and plans its events relative to ref,
// interpreted in the file's time zone.
func buildPlan(r io.Reader, ref time.Time) ([]scheduling.ScheduledEvent, error) {
	var in planInput
	if err := yaml.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	kind, err := app.ParseHoursKind(in.Kind)
	if err != nil {
		return nil, err
	}
	loc := time.UTC
	if in.TimeZone != "" {
		if loc, err = time.LoadLocation(in.TimeZone); err != nil {
			return nil, fmt.Errorf("timezone: %w", err)
		}
	}
	schedule, err := scheduling.ParseWeeklySchedule(in.Days)
	if err != nil {
		return nil, err
	}
	if kind == app.WorkingHours {
		return scheduling.PlanWorkingHours(schedule, ref.In(loc))
	}
	return scheduling.PlanUnavailableHours(schedule, ref.In(loc))
}
