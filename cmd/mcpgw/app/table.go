package app

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/stacklok/mcp-vgateway/pkg/vgw"
)

func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.Options(
		tablewriter.WithHeader(headers),
		tablewriter.WithRendition(
			tw.Rendition{
				Borders: tw.Border{
					Left:   tw.State(1),
					Top:    tw.State(1),
					Right:  tw.State(1),
					Bottom: tw.State(1),
				},
			},
		),
		tablewriter.WithAlignment(tw.MakeAlign(len(headers), tw.AlignLeft)),
	)
	return table
}

// renderServerTable prints one row per deduplicated backend.
func renderServerTable(servers map[string]*vgw.ServerConfig) error {
	if len(servers) == 0 {
		fmt.Println("No backends configured.")
		return nil
	}

	table := newTable([]string{"Server ID", "Transport", "Target", "Auth"})
	for _, cfg := range servers {
		target := cfg.URL
		if cfg.IsStdio() {
			target = cfg.Command
		}
		if err := table.Append([]string{cfg.ID, string(cfg.Transport), target, string(cfg.Auth)}); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	return table.Render()
}

// renderToolTable prints one row per virtual tool with its current
// validation status, matching the original's per-tool /status fields
// (original_name, source_version_pin, validation_status).
func renderToolTable(tools []*vgw.VirtualTool) error {
	if len(tools) == 0 {
		fmt.Println("No tools loaded.")
		return nil
	}

	table := newTable([]string{"Tool", "Original Name", "Version Pin", "Status", "Disabled"})
	for _, t := range tools {
		disabled := "no"
		if t.Disabled() {
			disabled = "yes"
		}
		if err := table.Append([]string{
			t.Name,
			t.OriginalName,
			t.SourceVersionPin,
			string(t.ValidationStatus),
			disabled,
		}); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	return table.Render()
}
