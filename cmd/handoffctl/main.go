package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/imrishuroy/pos-handoff/internal/aws"
	"github.com/imrishuroy/pos-handoff/internal/codegen"
	"github.com/imrishuroy/pos-handoff/internal/config"
	"github.com/imrishuroy/pos-handoff/internal/handoff"
	"github.com/imrishuroy/pos-handoff/internal/staffauth"
	"github.com/imrishuroy/pos-handoff/internal/store"
)

var envFile string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "handoffctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "handoffctl",
		Short: "Operator CLI for the POS handoff service",
		Long: `handoffctl manages the POS handoff backend: it creates the SQL schema, hashes
staff secrets, mints staff session tokens and inspects handoffs by code.
Configuration is read from the same environment variables as the api.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.AddCommand(
		newMigrateCmd(),
		newHashSecretCmd(),
		newIssueTokenCmd(),
		newGenCodeCmd(),
		newInspectCmd(),
	)
	return cmd
}

func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the handoff schema for the configured SQL backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := store.Migrate(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", cfg.StoreBackend)
			return nil
		},
	}
}

func newHashSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret <value>",
		Short: "Print a bcrypt hash for STAFF_LOGIN_PASSWORD_HASH or a STAFF_PINS entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := staffauth.HashSecret(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newIssueTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "issue-token <staffId>",
		Short: "Mint a staff session token with STAFF_AUTH_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			token, sess, err := staffauth.NewSigner(cfg.StaffAuthSecret).Issue(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", sess.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
}

func newGenCodeCmd() *cobra.Command {
	var length int
	cmd := &cobra.Command{
		Use:   "gen-code",
		Short: "Print a random handoff code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if length <= 0 {
				return errors.New("--length must be positive")
			}
			fmt.Fprintln(cmd.OutOrStdout(), codegen.Generate(length))
			return nil
		},
	}
	cmd.Flags().IntVarP(&length, "length", "n", codegen.DefaultLength, "Code length")
	return cmd
}

func newInspectCmd() *cobra.Command {
	var storeID string
	cmd := &cobra.Command{
		Use:   "inspect <code>",
		Short: "Show a handoff and its effective status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if storeID == "" {
				storeID = cfg.PrimaryStoreID()
			}

			var clients *aws.AWSClients
			if cfg.StoreBackend == config.BackendDynamoDB {
				if clients, err = aws.NewAWSClients(ctx); err != nil {
					return err
				}
			}
			st, closeStore, err := store.Open(ctx, cfg, clients)
			if err != nil {
				return err
			}
			defer closeStore()

			svc := handoff.NewService(st, handoff.Config{AllowedStoreIDs: cfg.AllowedStoreIDs, Expiry: cfg.Expiry()})
			rec, err := svc.Retrieve(ctx, args[0], storeID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				*handoff.Record
				ClaimedBy string             `json:"claimedBy,omitempty"`
				CartLines []handoff.CartLine `json:"cartLines"`
			}{rec, rec.ClaimedByStaffID, handoff.ProjectCartLines(rec.Items)})
		},
	}
	cmd.Flags().StringVar(&storeID, "store", "", "Store id (defaults to the first allowed store)")
	return cmd
}
