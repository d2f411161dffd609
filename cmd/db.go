package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect and maintain the persisted gallery",
}

var dbInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show where the gallery lives and how big it is",
	RunE:  runDbInfo,
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the persisted gallery to a timestamped backup",
	RunE:  runDbBackup,
}

var dbReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the gallery from the object store",
	RunE:  runDbReload,
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbInfoCmd)
	dbCmd.AddCommand(dbBackupCmd)
	dbCmd.AddCommand(dbReloadCmd)
}

func runDbInfo(cmd *cobra.Command, args []string) error {
	svc, err := newServices(cmd.Context())
	if err != nil {
		return err
	}

	info, err := svc.store.Info(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Location: %s\n", info.Location)
	if !info.Exists {
		fmt.Println("The gallery document does not exist yet")
		return nil
	}
	fmt.Printf("Size:     %d bytes\n", info.Size)
	fmt.Printf("Modified: %s\n", info.LastModified.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Cows:     %d\n", svc.registry.Size())
	return nil
}

func runDbBackup(cmd *cobra.Command, args []string) error {
	svc, err := newServices(cmd.Context())
	if err != nil {
		return err
	}

	key, err := svc.store.Backup(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Backup created: %s\n", key)
	return nil
}

func runDbReload(cmd *cobra.Command, args []string) error {
	svc, err := newServices(cmd.Context())
	if err != nil {
		return err
	}

	n, err := svc.registry.Reload(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Gallery reloaded: %d cows\n", n)
	return nil
}
