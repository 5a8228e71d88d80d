package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dukerupert/goalpost/internal/backup"
	"github.com/dukerupert/goalpost/internal/logging"
	"github.com/spf13/cobra"
)

func newBackupManager(a *app, callback backup.StatusCallback) *backup.Manager {
	b := a.cfg.Backup
	return backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  b.Endpoint,
			Bucket:    b.Bucket,
			Region:    b.Region,
			AccessKey: b.AccessKey,
			SecretKey: b.SecretKey,
		},
		Passphrase:    b.Passphrase,
		Schedule:      b.Schedule,
		RetentionDays: b.RetentionDays,
	}, a.db, callback, logging.Component(a.logger, "backup"))
}

// openBackup opens the app and a snapshot manager, failing when snapshots are
// not configured.
func openBackup(cmd *cobra.Command, configPath string) (*app, *backup.Manager, error) {
	a, err := openApp(configPath, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	if !a.cfg.Backup.Enabled() || a.db == nil {
		a.close()
		return nil, nil, errors.New("backup: snapshots need the sqlite engine and a configured bucket")
	}
	return a, newBackupManager(a, nil), nil
}

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage encrypted database snapshots",
	}
	cmd.AddCommand(newBackupRunCmd())
	cmd.AddCommand(newBackupListCmd())
	cmd.AddCommand(newBackupRestoreCmd())
	cmd.AddCommand(newBackupDecryptCmd())
	return cmd
}

func newBackupRunCmd() *cobra.Command {
	var (
		configPath string
		prune      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Take a snapshot now",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, mgr, err := openBackup(cmd, configPath)
			if err != nil {
				return err
			}
			defer a.close()

			snap, err := mgr.Run(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Uploaded %s (%d bytes)\n", snap.Key, snap.Size)

			if prune {
				removed, err := mgr.Prune(cmd.Context(), a.cfg.Backup.RetentionDays)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d snapshot(s) older than %d days\n", removed, a.cfg.Backup.RetentionDays)
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&prune, "prune", false, "delete snapshots past the retention window afterwards")
	return cmd
}

func newBackupListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, mgr, err := openBackup(cmd, configPath)
			if err != nil {
				return err
			}
			defer a.close()

			snaps, err := mgr.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(snaps) == 0 {
				fmt.Fprintln(out, "No snapshots found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tTAKEN\tSIZE")
			for _, s := range snaps {
				fmt.Fprintf(w, "%s\t%s\t%d\n", s.Key, s.TakenAt.Format(time.RFC3339), s.Size)
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newBackupRestoreCmd() *cobra.Command {
	var (
		configPath string
		target     string
	)

	cmd := &cobra.Command{
		Use:   "restore <key>",
		Short: "Restore a snapshot into a database file",
		Long: `Downloads, decrypts and integrity-checks a snapshot, then writes it over
the target file (the configured db_path by default). Stop any running
server on that file first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, mgr, err := openBackup(cmd, configPath)
			if err != nil {
				return err
			}
			if target == "" {
				target = a.cfg.Storage.DBPath
			}
			// Release the target before it is replaced.
			a.close()

			if err := mgr.Restore(cmd.Context(), args[0], target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s into %s\n", args[0], target)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&target, "target", "", "database file to write (default: configured db_path)")
	return cmd
}

func newBackupDecryptCmd() *cobra.Command {
	var passphrase string

	cmd := &cobra.Command{
		Use:   "decrypt <snapshot-file> <output-file>",
		Short: "Decrypt a downloaded snapshot file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return errors.New("backup: --passphrase is required")
			}
			if err := backup.DecryptFile(args[0], args[1], passphrase); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Decrypted %s into %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&passphrase, "passphrase", "", "snapshot passphrase")
	return cmd
}
