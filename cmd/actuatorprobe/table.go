package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/actuatorprobe/actuatorprobe/internal/bus"
	"github.com/actuatorprobe/actuatorprobe/internal/metrics"
	"github.com/actuatorprobe/actuatorprobe/pkg/utils"
)

// renderMessages prints the messages published during the run.
func renderMessages(w io.Writer, msgs []bus.Message) {
	if len(msgs) == 0 {
		fmt.Fprintf(w, "%s\n", text.FgYellow.Sprint("No messages published"))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("#"),
		text.FgHiCyan.Sprint("KEY"),
		text.FgHiCyan.Sprint("VALUE"),
		text.FgHiCyan.Sprint("TAGS"),
	})

	for i, m := range msgs {
		key, ok := m.Key()
		if !ok {
			key = text.FgHiGreen.Sprint("(sentinel)")
		}
		t.AppendRow(table.Row{i + 1, key, m.Message, m.Variables[bus.VarTags]})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d messages", len(msgs)), msgs[0].PluginName})
	t.Render()
}

// renderOperations prints the per-operation tracking of the collector.
// Nothing is printed when no operation was recorded.
func renderOperations(w io.Writer, ops map[string]*metrics.OperationMetrics) {
	if len(ops) == 0 {
		return
	}

	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("OPERATION"),
		text.FgHiCyan.Sprint("COUNT"),
		text.FgHiCyan.Sprint("ERRORS"),
		text.FgHiCyan.Sprint("AVG"),
		text.FgHiCyan.Sprint("BYTES"),
	})
	for _, name := range names {
		m := ops[name]
		errs := fmt.Sprint(m.Errors)
		if m.Errors > 0 {
			errs = text.FgRed.Sprint(m.Errors)
		}
		t.AppendRow(table.Row{name, m.Count, errs, m.AvgDuration.Round(time.Millisecond), utils.FormatBytes(m.TotalBytes)})
	}
	t.Render()
}
