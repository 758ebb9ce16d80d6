package output

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/qualiscan/qsctl/pkg/qsctl/client"
	"github.com/qualiscan/qsctl/pkg/qsctl/hooks"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
}

func WriteProjectTable(w io.Writer, projects []client.Project) {
	tw := newTabWriter(w)
	_, _ = fmt.Fprintln(tw, "KEY\tNAME\tVISIBILITY\tLAST_ANALYSIS")
	for _, p := range projects {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Key, p.Name, orDash(p.Visibility), formatTimestamp(p.LastAnalysisDate))
	}
	_ = tw.Flush()
}

func WriteIssueTable(w io.Writer, issues []client.Issue) {
	tw := newTabWriter(w)
	_, _ = fmt.Fprintln(tw, "KEY\tSEVERITY\tSTATUS\tCOMPONENT\tLINE\tMESSAGE")
	for _, issue := range issues {
		line := "-"
		if issue.Line > 0 {
			line = strconv.Itoa(issue.Line)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			issue.Key, issue.Severity, issue.Status, issue.Component, line, issue.Message)
	}
	_ = tw.Flush()
}

func WriteQualityGateTable(w io.Writer, status *client.QualityGateStatus) {
	_, _ = fmt.Fprintf(w, "Quality gate: %s\n", status.Status)
	if len(status.Conditions) == 0 {
		return
	}
	tw := newTabWriter(w)
	_, _ = fmt.Fprintln(tw, "METRIC\tSTATUS\tACTUAL\tTHRESHOLD")
	for _, c := range status.Conditions {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Metric, c.Status, orDash(c.ActualValue), orDash(c.ErrorThreshold))
	}
	_ = tw.Flush()
}

func WriteHookStatusTable(w io.Writer, statuses []hooks.Status) {
	tw := newTabWriter(w)
	_, _ = fmt.Fprintln(tw, "AGENT\tINSTALLED\tSERVER\tSETTINGS")
	for _, s := range statuses {
		installed := "no"
		if s.Installed {
			installed = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Agent, installed, orDash(s.Server), s.SettingsPath)
	}
	_ = tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTimestamp(s string) string {
	if s == "" {
		return "-"
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format("2006-01-02 15:04")
		}
	}
	return s
}
