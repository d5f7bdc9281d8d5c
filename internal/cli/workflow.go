package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewWorkflowCmd создаёт группу команд для управления workflows.
func NewWorkflowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Manage workflows",
	}

	cmd.AddCommand(
		newWorkflowListCmd(clientFn, outputFn),
		newWorkflowCreateCmd(clientFn, outputFn),
		newWorkflowShowCmd(clientFn, outputFn),
		newWorkflowDeleteCmd(clientFn, outputFn),
		newWorkflowSaveCmd(clientFn, outputFn),
		newWorkflowPublishCmd(clientFn, outputFn),
		newWorkflowVariablesCmd(clientFn, outputFn),
		newWorkflowLayoutCmd(clientFn, outputFn),
		newWorkflowVersionsCmd(clientFn, outputFn),
		newWorkflowExportCmd(clientFn, outputFn),
		newWorkflowImportCmd(clientFn, outputFn),
		newWorkflowWatchCmd(),
	)

	return cmd
}

func workflowRow(wf *WorkflowResponse) []string {
	return []string{
		wf.ID, wf.Title, wf.Mode, wf.Status,
		strconv.Itoa(wf.Version), wf.UpdatedBy, wf.UpdatedAt,
	}
}

var workflowHeaders = []string{"ID", "TITLE", "MODE", "STATUS", "VERSION", "UPDATED_BY", "UPDATED"}

func newWorkflowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			workflows, err := client.ListWorkflows()
			if err != nil {
				return err
			}

			rows := make([][]string, len(workflows))
			for i := range workflows {
				rows[i] = workflowRow(&workflows[i])
			}

			out.Print(workflowHeaders, rows, workflows)
			return nil
		},
	}
}

func newWorkflowCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var title, description, mode, user string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new workflow draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			wf, err := client.CreateWorkflow(CreateWorkflowRequest{
				Title:       title,
				Description: description,
				Mode:        mode,
				User:        user,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow created: %s", wf.ID))
			out.Print(workflowHeaders, [][]string{workflowRow(wf)}, wf)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Workflow title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Workflow description")
	cmd.Flags().StringVar(&mode, "mode", "graph", "Addressing mode: legacy or graph")
	cmd.Flags().StringVar(&user, "user", "", "Acting user")
	cmd.MarkFlagRequired("title")

	return cmd
}

func newWorkflowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show workflow details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			wf, err := client.GetWorkflow(args[0])
			if err != nil {
				return err
			}

			out.Print(workflowHeaders, [][]string{workflowRow(wf)}, wf)
			return nil
		},
	}
}

func newWorkflowDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a workflow and its version history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteWorkflow(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow deleted: %s", args[0]))
			return nil
		},
	}
}

func newWorkflowSaveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file, user string
	var expectedVersion int

	cmd := &cobra.Command{
		Use:   "save ID",
		Short: "Save a workflow snapshot from file",
		Long: `Save a workflow snapshot read from a JSON or YAML file.

The save is accepted only if --expected-version matches the stored
version; otherwise the command fails with the conflicting version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			snapshot, err := readSnapshotFile(file)
			if err != nil {
				return err
			}

			res, err := client.SaveWorkflow(args[0], SaveWorkflowRequest{
				ExpectedVersion: expectedVersion,
				User:            user,
				Workflow:        snapshot,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Saved as version %d", res.Version))
			out.Print(
				[]string{"STATUS", "VERSION", "SAVED_BY", "TIMESTAMP"},
				[][]string{{res.Status, strconv.Itoa(res.Version), res.SavedBy, res.Timestamp}},
				res,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Snapshot file, JSON or YAML (required)")
	cmd.Flags().IntVar(&expectedVersion, "expected-version", 0, "Last version seen by the client")
	cmd.Flags().StringVar(&user, "user", "", "Acting user")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newWorkflowPublishCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "publish ID",
		Short: "Publish a workflow after full validation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			wf, err := client.PublishWorkflow(args[0], user)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow published: %s", wf.ID))
			out.Print(workflowHeaders, [][]string{workflowRow(wf)}, wf)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Acting user")

	return cmd
}

func newWorkflowVariablesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "variables ID",
		Short: "List variables declared by question steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			vars, err := client.ListVariables(args[0])
			if err != nil {
				return err
			}

			headers := []string{"POSITION", "NAME", "TYPE", "STEP"}
			rows := make([][]string, len(vars))
			for i, v := range vars {
				rows[i] = []string{strconv.Itoa(v.Position), v.Name, v.Type, v.StepKey}
			}

			out.Print(headers, rows, vars)
			return nil
		},
	}
}

func newWorkflowLayoutCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "layout ID",
		Short: "Show the computed canvas layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			lay, err := client.GetLayout(args[0])
			if err != nil {
				return err
			}

			headers := []string{"STEP", "X", "Y"}
			rows := make([][]string, 0, len(lay.Positions))
			for key, pos := range lay.Positions {
				rows = append(rows, []string{
					key,
					strconv.FormatFloat(pos["x"], 'f', -1, 64),
					strconv.FormatFloat(pos["y"], 'f', -1, 64),
				})
			}

			out.Print(headers, rows, lay)
			return nil
		},
	}
}

func newWorkflowVersionsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "versions ID",
		Short: "List workflow version history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			versions, err := client.ListVersions(args[0])
			if err != nil {
				return err
			}

			headers := []string{"VERSION", "SAVED_BY", "CREATED"}
			rows := make([][]string, len(versions))
			for i, v := range versions {
				rows[i] = []string{strconv.Itoa(v.Version), v.SavedBy, v.CreatedAt}
			}

			out.Print(headers, rows, versions)
			return nil
		},
	}
}

func newWorkflowExportCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file string
	var version int

	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Export a workflow snapshot to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var snapshot any
			if cmd.Flags().Changed("version") {
				v, err := client.GetVersion(args[0], version)
				if err != nil {
					return err
				}
				snapshot = v.Snapshot
			} else {
				wf, err := client.GetWorkflow(args[0])
				if err != nil {
					return err
				}
				snapshot = wf
			}

			data, err := yaml.Marshal(snapshot)
			if err != nil {
				return fmt.Errorf("failed to marshal snapshot: %w", err)
			}

			if file == "" {
				fmt.Fprint(os.Stdout, string(data))
				return nil
			}
			if err := os.WriteFile(file, data, 0o644); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}

			out.Success(fmt.Sprintf("Exported to %s", file))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Output file (default: stdout)")
	cmd.Flags().IntVar(&version, "version", 0, "Export a specific history version")

	return cmd
}

func newWorkflowImportCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file, user string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create a workflow from an exported snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			snapshot, err := readSnapshotFile(file)
			if err != nil {
				return err
			}

			title, _ := snapshot["title"].(string)
			if title == "" {
				return fmt.Errorf("snapshot has no title")
			}
			description, _ := snapshot["description"].(string)
			mode, _ := snapshot["mode"].(string)

			wf, err := client.CreateWorkflow(CreateWorkflowRequest{
				Title:       title,
				Description: description,
				Mode:        mode,
				User:        user,
			})
			if err != nil {
				return err
			}

			res, err := client.SaveWorkflow(wf.ID, SaveWorkflowRequest{
				ExpectedVersion: 0,
				User:            user,
				Workflow:        snapshot,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Imported workflow %s at version %d", wf.ID, res.Version))
			out.Print(workflowHeaders, [][]string{workflowRow(wf)}, wf)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Snapshot file, JSON or YAML (required)")
	cmd.Flags().StringVar(&user, "user", "", "Acting user")
	cmd.MarkFlagRequired("file")

	return cmd
}

// readSnapshotFile читает снапшот workflow из JSON или YAML файла.
func readSnapshotFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snapshot map[string]any
	if json.Valid(data) {
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot JSON: %w", err)
		}
		return snapshot, nil
	}

	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot YAML: %w", err)
	}
	return snapshot, nil
}
