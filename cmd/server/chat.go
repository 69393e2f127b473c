package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/marketwire/internal/conversation"
	"github.com/vovakirdan/marketwire/internal/transport/ws"
)

type chatOptions struct {
	api          string
	relay        string
	username     string
	conversation string
}

func newChatCmd(root *rootOptions) *cobra.Command {
	opts := chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join a buyer-seller conversation from the terminal",
		Long: strings.TrimSpace(`
Start a session against a running marketd, connect to one conversation
and relay stdin lines as messages. Incoming messages are printed as they arrive.
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.api, "api", "http://127.0.0.1:8080", "marketd HTTP base URL")
	cmd.Flags().StringVar(&opts.relay, "relay", "", "relay WebSocket URL (default: relay_url from config)")
	cmd.Flags().StringVar(&opts.username, "username", "cli-user", "display name for the session")
	cmd.Flags().StringVar(&opts.conversation, "conversation", "", "conversation id to join")
	_ = cmd.MarkFlagRequired("conversation")
	return cmd
}

func runChat(cmd *cobra.Command, root *rootOptions, opts chatOptions) error {
	cfg, _, logger, err := loadConfig(root)
	if err != nil {
		return err
	}
	if opts.relay == "" {
		opts.relay = cfg.RelayURL
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, err := startSession(ctx, opts.api, opts.username)
	if err != nil {
		return err
	}

	conv := conversation.New(opts.conversation, conversation.Options{
		Transport:      ws.NewDialer(opts.relay, token, logger),
		Sender:         opts.username,
		ConnectTimeout: cfg.ConnectTimeout,
		Logger:         logger,
	})
	defer conv.Disconnect()

	conv.Connect()
	events, unsubscribe := conv.Subscribe()
	defer unsubscribe()
	if err := awaitConnected(ctx, events); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Connected to %s as %s\n", opts.conversation, opts.username)
	fmt.Fprintln(out, "Type messages and press Enter to send. Ctrl+C to exit.")

	go printEvents(ctx, out, events, opts.username)
	return sendLines(ctx, cmd.InOrStdin(), conv, logger)
}

func startSession(ctx context.Context, api, username string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": username})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(api, "/")+"/api/session", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("start session: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	var s struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return "", fmt.Errorf("decode session: %w", err)
	}
	return s.Token, nil
}

func awaitConnected(ctx context.Context, events <-chan conversation.Event) error {
	for {
		select {
		case ev := <-events:
			if ev.Kind != conversation.EventStateChanged {
				continue
			}
			switch ev.State {
			case conversation.StateConnected:
				return nil
			case conversation.StateDisconnected:
				return errors.New("could not connect to the relay")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func printEvents(ctx context.Context, out io.Writer, events <-chan conversation.Event, self string) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case conversation.EventMessage:
				if ev.Message.Sender == self {
					continue
				}
				fmt.Fprintf(out, "[%s] %s: %s\n", ev.Message.SentAt.Format(time.Kitchen), ev.Message.Sender, ev.Message.Body)
			case conversation.EventStateChanged:
				fmt.Fprintf(out, "* %s\n", ev.State)
			}
		case <-ctx.Done():
			return
		}
	}
}

func sendLines(ctx context.Context, in io.Reader, conv *conversation.Conversation, logger *zerolog.Logger) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if _, err := conv.Send(ctx, text); err != nil {
				if errors.Is(err, conversation.ErrNotConnected) {
					return errors.New("connection lost")
				}
				logger.Warn().Err(err).Msg("message not sent")
			}
		}
	}
}
