package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YantaoMou/mcp-droid/coord"
	"github.com/YantaoMou/mcp-droid/device"
	"github.com/YantaoMou/mcp-droid/droid"
	"github.com/YantaoMou/mcp-droid/schedule"
	"github.com/YantaoMou/mcp-droid/tool"
)

// NewToolsCmd creates the "tools" subcommand: an offline listing of the
// registered toolset, without touching adb.
func NewToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the server exposes",
		RunE:  runTools,
	}
	cmd.Flags().Bool("json", false, "Emit the full descriptors as JSON")
	return cmd
}

func runTools(cmd *cobra.Command, _ []string) error {
	descriptors, err := offlineDescriptors()
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(descriptors)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, d := range descriptors {
		fmt.Fprintf(w, "%s\t%s\n", d.Name, d.Description)
	}
	return w.Flush()
}

// offlineDescriptors builds the toolset against a static device manager so
// listing works without a device or a running server.
func offlineDescriptors() ([]tool.Descriptor, error) {
	devices := device.NewStaticManager()
	coordinator := coord.New(devices, nil)
	scheduler, err := schedule.NewScheduler(schedule.SchedulerConfig{Executor: coordinator})
	if err != nil {
		return nil, err
	}

	registry := tool.NewRegistry(nil)
	droid.RegisterAll(registry, &droid.Toolset{
		Coordinator: coordinator,
		Devices:     devices,
		Scheduler:   scheduler,
	})
	return registry.List(), nil
}
