package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"smsrelay/internal/domain"
	"smsrelay/internal/processor"
	"smsrelay/internal/store"
)

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <channel>",
		Short: "Create a new channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ch := domain.NewChannel(args[0])
			if err := st.Create(cmd.Context(), ch); err != nil {
				if errors.Is(err, domain.ErrConflict) {
					return fmt.Errorf("channel already exists: %s", args[0])
				}
				return err
			}
			logger.Info("channel created", "channel", ch.ID)
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <channel>",
		Short: "Delete a channel and its membership",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if !yes {
				fmt.Printf("Delete channel %q and all its members? [y/N]: ", args[0])
				reader := bufio.NewReader(os.Stdin)
				line, _ := reader.ReadString('\n')
				if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("no such channel: %s", args[0])
				}
				return err
			}
			logger.Info("channel deleted", "channel", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ids, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("No channels.")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Channel", "Users", "Phones", "Backend"})
			for _, id := range ids {
				ch, err := st.Read(cmd.Context(), id)
				if err != nil {
					return err
				}
				table.Append([]string{
					ch.ID,
					strconv.Itoa(len(ch.Users)),
					strconv.Itoa(len(ch.Phones)),
					ch.Backend.Module,
				})
			}
			table.Render()
			return nil
		},
	}
}

func enterCmd() *cobra.Command {
	var nick string
	cmd := &cobra.Command{
		Use:   "enter <channel>",
		Short: "Open an interactive operator session on a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ch, err := readChannel(cmd, st, args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Entering channel: %s.\n", ch.ID)
			proc := processor.New(processor.Config{Channel: ch, Logger: logger})
			sess := processor.NewSession(processor.SessionConfig{Processor: proc, Logger: logger})
			runErr := sess.RunInteractive(ctx, nick)
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}

			fmt.Println("Writing channel configuration...")
			return st.Update(cmd.Context(), ch)
		},
	}
	cmd.Flags().StringVarP(&nick, "nick", "n", "Admin", "operator nick for the session")
	return cmd
}

func processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <channel>",
		Short: "Drain and evaluate pending inbound messages once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ch, err := readChannel(cmd, st, args[0])
			if err != nil {
				return err
			}

			proc := processor.New(processor.Config{Channel: ch, Logger: logger})
			sess := processor.NewSession(processor.SessionConfig{Processor: proc, Logger: logger})
			if err := sess.ProcessInbound(cmd.Context()); err != nil {
				return err
			}
			return st.Update(cmd.Context(), ch)
		},
	}
}

func exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <channel>",
		Short: "Write a channel snapshot as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ch, err := readChannel(cmd, st, args[0])
			if err != nil {
				return err
			}
			data, err := store.EncodeSnapshot(ch)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default: stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create a channel from a YAML snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			ch, err := store.DecodeSnapshot(data)
			if err != nil {
				return fmt.Errorf("invalid snapshot: %w", err)
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Create(cmd.Context(), ch); err != nil {
				if errors.Is(err, domain.ErrConflict) {
					return fmt.Errorf("channel already exists: %s", ch.ID)
				}
				return err
			}
			logger.Info("channel imported", "channel", ch.ID, "file", args[0])
			return nil
		},
	}
}

func readChannel(cmd *cobra.Command, st *store.SQLiteStore, id string) (*domain.Channel, error) {
	ch, err := st.Read(cmd.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no such channel: %s", id)
		}
		return nil, err
	}
	return ch, nil
}
