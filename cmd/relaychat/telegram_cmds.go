package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgard/relaychat/internal/telegram"
)

func newWebhookCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Telegram webhook registration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set [url]",
		Short: "Register the webhook; defaults to <server.base_url>/telegram-webhook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := ""
			if len(args) == 1 {
				url = args[0]
			} else if base := strings.TrimRight(c.cfg.Server.BaseURL, "/"); base != "" {
				url = base + "/telegram-webhook"
			}
			if url == "" {
				return fmt.Errorf("webhook url is required: pass it or set server.base_url")
			}

			comps, err := c.buildComponents()
			if err != nil {
				return err
			}
			defer comps.Close()

			resp, err := comps.webhooks.Set(cmd.Context(), url)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook and drop pending updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			comps, err := c.buildComponents()
			if err != nil {
				return err
			}
			defer comps.Close()

			resp, err := comps.webhooks.Delete(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show the current webhook registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			comps, err := c.buildComponents()
			if err != nil {
				return err
			}
			defer comps.Close()

			info, err := comps.webhooks.Info(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	})

	return cmd
}

func newChatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List chats that recently messaged the bot",
		Long:  "Lists chats found in recent updates. Fails while a webhook is registered; delete it first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			comps, err := c.buildComponents()
			if err != nil {
				return err
			}
			defer comps.Close()

			discovery, err := telegram.DiscoverChats(cmd.Context(), comps.client)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), discovery)
		},
	}
}

func newSendCmd(c *cli) *cobra.Command {
	var chatID string

	cmd := &cobra.Command{
		Use:   "send <text>",
		Short: "Send a message to the configured chat or --chat-id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comps, err := c.buildComponents()
			if err != nil {
				return err
			}
			defer comps.Close()

			var target any
			if chatID != "" {
				target = chatID
			}
			result := comps.service.Notify(cmd.Context(), "", target, strings.Join(args, " "))
			if !result.Success {
				return result.Err
			}
			return printJSON(cmd.OutOrStdout(), result.Response)
		},
	}
	cmd.Flags().StringVar(&chatID, "chat-id", "", "Destination chat id (defaults to telegram.chat_id).")
	return cmd
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show bot identity and webhook status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			comps, err := c.buildComponents()
			if err != nil {
				return err
			}
			defer comps.Close()

			me, err := comps.client.GetMe(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get bot info: %w", err)
			}
			info, err := comps.webhooks.Info(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get webhook info: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"bot":     me,
				"webhook": info,
				"mode":    c.cfg.Telegram.Mode,
			})
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
