package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskdeck/pkg/models"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects (list, add, edit, rm)",
	Long: `Project commands.

Projects group tasks. Deleting a project leaves its tasks in place;
they keep their project reference until edited.`,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		if Gateway == nil {
			return fmt.Errorf("client not initialized")
		}

		projects, err := Gateway.ListProjects(cmd.Context())
		if err != nil {
			return describeAuthErr(err)
		}
		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}

		fmt.Printf("  %-38s %-24s %s\n", "ID", "NAME", "DESCRIPTION")
		for _, p := range projects {
			fmt.Printf("  %-38s %-24s %s\n", p.ID, p.Name, p.Description)
		}
		return nil
	},
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Gateway == nil {
			return fmt.Errorf("client not initialized")
		}

		desc, _ := cmd.Flags().GetString("desc")
		project, err := Gateway.CreateProject(cmd.Context(), models.ProjectDraft{
			Name:        args[0],
			Description: desc,
		})
		if err != nil {
			return describeAuthErr(err)
		}

		fmt.Printf("Created project %s (%s)\n", project.ID, project.Name)
		return nil
	},
}

var projectEditCmd = &cobra.Command{
	Use:   "edit <project-id>",
	Short: "Update a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Gateway == nil {
			return fmt.Errorf("client not initialized")
		}

		var patch models.ProjectPatch
		if cmd.Flags().Changed("name") {
			v, _ := cmd.Flags().GetString("name")
			patch.Name = &v
		}
		if cmd.Flags().Changed("desc") {
			v, _ := cmd.Flags().GetString("desc")
			patch.Description = &v
		}

		project, err := Gateway.UpdateProject(cmd.Context(), args[0], patch)
		if err != nil {
			return describeAuthErr(err)
		}

		fmt.Printf("Updated project %s (%s)\n", project.ID, project.Name)
		return nil
	},
}

var projectRmCmd = &cobra.Command{
	Use:   "rm <project-id>",
	Short: "Delete a project (tasks keep their reference)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Gateway == nil {
			return fmt.Errorf("client not initialized")
		}

		if err := Gateway.DeleteProject(cmd.Context(), args[0]); err != nil {
			return describeAuthErr(err)
		}

		fmt.Printf("Deleted project %s\n", args[0])
		return nil
	},
}

func init() {
	projectAddCmd.Flags().String("desc", "", "project description")
	projectEditCmd.Flags().String("name", "", "new name")
	projectEditCmd.Flags().String("desc", "", "new description")

	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectEditCmd)
	projectCmd.AddCommand(projectRmCmd)
	rootCmd.AddCommand(projectCmd)
}
