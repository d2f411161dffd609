package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boviclouds/muzzle-id/internal/registry"
)

var cowsCmd = &cobra.Command{
	Use:   "cows",
	Short: "Manage enrolled cows",
}

var cowsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all enrolled cows",
	RunE:  runCowsList,
}

var cowsDeleteCmd = &cobra.Command{
	Use:   "delete <cow-id>",
	Short: "Remove an enrolled cow from the gallery",
	Long: `Remove a cow from the identification gallery.

The persisted gallery is backed up before removal, and the retained
muzzle crops from enrollment are deleted from local disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runCowsDelete,
}

func init() {
	rootCmd.AddCommand(cowsCmd)
	cowsCmd.AddCommand(cowsListCmd)
	cowsCmd.AddCommand(cowsDeleteCmd)
}

func runCowsList(cmd *cobra.Command, args []string) error {
	svc, err := newServices(cmd.Context())
	if err != nil {
		return err
	}

	labels := svc.registry.Labels()
	if len(labels) == 0 {
		fmt.Println("No cows enrolled")
		return nil
	}

	for _, label := range labels {
		fmt.Println(label)
	}
	fmt.Printf("Total: %d\n", len(labels))
	return nil
}

func runCowsDelete(cmd *cobra.Command, args []string) error {
	cowID := args[0]

	svc, err := newServices(cmd.Context())
	if err != nil {
		return err
	}

	res, err := svc.registry.Remove(cmd.Context(), cowID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fmt.Errorf("%s is not enrolled", cowID)
		}
		return err
	}

	fmt.Printf("Removed %s (%d crops deleted, %d cows remaining)\n", cowID, res.CropsDeleted, res.Remaining)
	if res.BackupKey != "" {
		fmt.Printf("Backup: %s\n", res.BackupKey)
	}
	if !res.Saved {
		fmt.Println("Warning: the updated gallery could not be persisted")
	}
	return nil
}
