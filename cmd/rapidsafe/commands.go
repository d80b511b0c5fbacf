package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"RapidSafe/internal/device/lockscreen"
	"RapidSafe/internal/models"
	"RapidSafe/pkg/config"
)

func newRootCmd() *cobra.Command {
	var cfg *config.AgentConfig
	var a *agent

	root := &cobra.Command{
		Use:           "rapidsafe",
		Short:         "RapidSafe device agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg = config.LoadAgent()
			if t, _ := cmd.Flags().GetString("transport"); t != "" {
				cfg.Transport = t
			}
			var err error
			a, err = openAgent(cfg)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a != nil {
				a.Close()
			}
		},
	}
	root.PersistentFlags().String("transport", "", "backend transport: http or grpc (default AGENT_TRANSPORT)")

	get := func() *agent { return a }
	root.AddCommand(
		newSetPinsCmd(get),
		newContactsCmd(get),
		newUnlockCmd(get),
		newSOSCmd(get),
		newHistoryCmd(get),
		newEndCmd(get, "resolve", models.AlertStatusResolved),
		newEndCmd(get, "cancel", models.AlertStatusCancelled),
	)
	return root
}

func newSetPinsCmd(a func() *agent) *cobra.Command {
	return &cobra.Command{
		Use:   "set-pins NORMAL DURESS",
		Short: "Store the normal and duress PINs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a().settings.SetPins(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "PINs saved")
			return nil
		},
	}
}

func newContactsCmd(a func() *agent) *cobra.Command {
	cmd := &cobra.Command{Use: "contacts", Short: "Manage emergency contacts"}
	cmd.AddCommand(
		&cobra.Command{
			Use:  "add NAME PHONE",
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a().settings.AddContact(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:  "list",
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				list, err := a().settings.ListContacts(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tPHONE")
				for _, c := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.PhoneNumber)
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:  "rm ID",
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a().settings.RemoveContact(cmd.Context(), args[0])
			},
		},
	)
	return cmd
}

func newUnlockCmd(a func() *agent) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock CODE",
		Short: "Enter a PIN on the lock screen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ag := a()
			if err := ag.connect(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			screen := lockscreen.New(ag.cfg.UserID, ag.settings, ag.client, ag.history)
			resp, err := screen.Submit(ctx, args[0])
			if err != nil {
				return err
			}
			if resp.Route == lockscreen.RouteHome {
				fmt.Fprintln(cmd.OutOrStdout(), "Unlocked")
				return nil
			}
			// 错误 PIN 与胁迫 PIN 的输出和进程行为完全一致：
			// 只显示提示并停留在锁屏，直到被中断
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			<-ctx.Done()
			return nil
		},
	}
}

func newSOSCmd(a func() *agent) *cobra.Command {
	return &cobra.Command{
		Use:   "sos",
		Short: "Raise a manual SOS alert",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ag := a()
			if err := ag.connect(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			contacts, err := ag.settings.ListContacts(ctx)
			if err != nil {
				return err
			}
			res := ag.client.InitiateSOS(ctx, ag.cfg.UserID, models.TriggerNormalSOS, contacts)
			if res.Success {
				if _, err := ag.history.Append(ctx, lockscreen.Entry(models.TriggerNormalSOS, res, contacts)); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "history:", err)
				}
			}
			if err := printJSON(cmd, res); err != nil {
				return err
			}
			ag.holdStreaming(ctx, cmd.ErrOrStderr())
			return nil
		},
	}
}

// newEndCmd closes an alert raised from this device and stops streaming.
func newEndCmd(a func() *agent, verb, status string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " ALERT_ID",
		Short: "Mark an alert " + status,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ag := a()
			if err := ag.connect(); err != nil {
				return err
			}
			snap, err := ag.client.EndSOS(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), snap.AlertID, snap.Status)
			return nil
		},
	}
}

func newHistoryCmd(a func() *agent) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show sent alerts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a().history.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTYPE\tSTATUS\tALERT\tDESCRIPTION")
			for _, e := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format(time.DateTime), e.Type, e.Status, e.AlertID, e.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "max entries, 0 for all")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

