package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webfutureiorepo/supabase/internal/domain/storage"
)

func newFolderCmd() *cobra.Command {
	folderCmd := &cobra.Command{
		Use:   "folder",
		Short: "Apply the storage explorer naming rules",
	}

	validateCmd := &cobra.Command{
		Use:   "validate <name>",
		Short: "Check a folder name against the allowed characters",
		Args:  cobra.ExactArgs(1),
		RunE:  runFolderValidate,
	}

	sanitizeCmd := &cobra.Command{
		Use:   "sanitize <name>",
		Short: "Resolve a name against the names already in a folder",
		Args:  cobra.ExactArgs(1),
		RunE:  runFolderSanitize,
	}
	sanitizeCmd.Flags().StringSlice("existing", nil, "names already present in the folder")
	sanitizeCmd.Flags().StringSlice("editing", nil, "names currently being edited, ignored for conflicts")
	sanitizeCmd.Flags().Bool("autofix", false, "rename on conflict instead of failing")

	folderCmd.AddCommand(validateCmd, sanitizeCmd)
	return folderCmd
}

func runFolderValidate(cmd *cobra.Command, args []string) error {
	if message, invalid := storage.ValidateFolderName(args[0]); invalid {
		return errors.New(message)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "valid")
	return nil
}

func runFolderSanitize(cmd *cobra.Command, args []string) error {
	existing, _ := cmd.Flags().GetStringSlice("existing")
	editing, _ := cmd.Flags().GetStringSlice("editing")
	autofix, _ := cmd.Flags().GetBool("autofix")

	column := storage.Column{}
	for _, name := range existing {
		column.Items = append(column.Items, storage.Item{Object: storage.Object{Name: name}, Status: storage.StatusReady})
	}
	for _, name := range editing {
		column.Items = append(column.Items, storage.Item{Object: storage.Object{Name: name}, Status: storage.StatusEditing})
	}

	var notice string
	name, ok := storage.SanitizeNameForDuplicateInColumn(
		[]storage.Column{column},
		storage.SanitizeOptions{Name: args[0], Autofix: autofix},
		storage.NotifierFunc(func(message string) { notice = message }),
	)
	if !ok {
		return errors.New(notice)
	}
	fmt.Fprintln(cmd.OutOrStdout(), name)
	return nil
}
