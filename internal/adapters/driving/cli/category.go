package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var categoryDescription string

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"categories"},
	Short:   "Manage classification categories",
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE:  runCategoryList,
}

var categoryAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a category",
	Long: `Add a category. New emails may be classified into it; the description
is shown to the model alongside the name.`,
	Args: cobra.ExactArgs(1),
	RunE: runCategoryAdd,
}

var categoryRenameCmd = &cobra.Command{
	Use:   "rename [id] [name]",
	Short: "Rename a category and move its emails",
	Args:  cobra.ExactArgs(2),
	RunE:  runCategoryRename,
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a category, moving its emails to Unclassified",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoryDelete,
}

func init() {
	categoryAddCmd.Flags().StringVarP(&categoryDescription, "description", "d", "", "what belongs in the category")
	categoryRenameCmd.Flags().StringVarP(&categoryDescription, "description", "d", "", "new description")

	categoryCmd.AddCommand(categoryListCmd, categoryAddCmd, categoryRenameCmd, categoryDeleteCmd)
	rootCmd.AddCommand(categoryCmd)
}

func requireCategoryService(cmd *cobra.Command) error {
	if err := ensureServices(cmd); err != nil {
		return err
	}
	if categoryService == nil {
		return fmt.Errorf("category service: %w", errNotConfigured)
	}
	return nil
}

func runCategoryList(cmd *cobra.Command, _ []string) error {
	if err := requireCategoryService(cmd); err != nil {
		return err
	}

	categories, err := categoryService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}
	for _, c := range categories {
		desc := ""
		if c.Description != "" {
			desc = "  " + c.Description
		}
		cmd.Printf("  #%-3d %-16s%s\n", c.ID, c.Name, desc)
	}
	return nil
}

func runCategoryAdd(cmd *cobra.Command, args []string) error {
	if err := requireCategoryService(cmd); err != nil {
		return err
	}

	c, err := categoryService.Add(cmd.Context(), args[0], categoryDescription)
	if err != nil {
		return fmt.Errorf("adding category: %w", err)
	}
	cmd.Printf("Added category #%d %s\n", c.ID, c.Name)
	return nil
}

func runCategoryRename(cmd *cobra.Command, args []string) error {
	if err := requireCategoryService(cmd); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	description := categoryDescription
	if !cmd.Flags().Changed("description") {
		description = currentDescription(cmd, id)
	}
	if err := categoryService.Update(cmd.Context(), id, args[1], description); err != nil {
		return fmt.Errorf("renaming category: %w", err)
	}
	cmd.Printf("Renamed category #%d to %s\n", id, args[1])
	return nil
}

func runCategoryDelete(cmd *cobra.Command, args []string) error {
	if err := requireCategoryService(cmd); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	if err := categoryService.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	cmd.Printf("Deleted category #%d\n", id)
	return nil
}

// currentDescription returns the stored description so that a plain rename
// keeps it.
func currentDescription(cmd *cobra.Command, id int64) string {
	categories, err := categoryService.List(cmd.Context())
	if err != nil {
		return ""
	}
	for _, c := range categories {
		if c.ID == id {
			return c.Description
		}
	}
	return ""
}
