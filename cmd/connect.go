package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pelusa-v/pelusa-presence/internal/chat"
)

func newConnectCommand() *cobra.Command {
	var (
		server   string
		handle   string
		password string
		register bool
	)
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Chat from the terminal. Lines are broadcast; /dm <handle> <text> sends a direct message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("PELUSA_PASSWORD")
			}
			if handle == "" || password == "" {
				return errors.New("--handle and --password (or PELUSA_PASSWORD) are required")
			}
			return connect(cmd.Context(), server, handle, password, register, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://127.0.0.1:3000", "server base URL")
	cmd.Flags().StringVar(&handle, "handle", "", "handle to log in with")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVar(&register, "register", false, "create the account first")
	return cmd
}

func connect(ctx context.Context, server, handle, password string, register bool, in io.Reader, out io.Writer) error {
	base, err := url.Parse(server)
	if err != nil {
		return errors.Wrap(err, "parse server url")
	}

	path := "/api/login"
	if register {
		path = "/api/register"
	}
	cookie, handle, err := login(ctx, base.JoinPath(path).String(), handle, password)
	if err != nil {
		return err
	}

	wsURL := *base.JoinPath("/api/ws")
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	header := http.Header{}
	header.Add("Cookie", (&http.Cookie{Name: cookie.Name, Value: cookie.Value}).String())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), header)
	if err != nil {
		return errors.Wrap(err, "dial websocket")
	}
	defer conn.Close()

	if err := writeEvent(conn, chat.Join{Handle: handle}); err != nil {
		return err
	}
	fmt.Fprintf(out, "connected as %s\n", handle)

	readErr := make(chan error, 1)
	go func() {
		for {
			var ev chat.OutboundEvent
			if err := conn.ReadJSON(&ev); err != nil {
				readErr <- err
				return
			}
			if ev.Type == chat.TypeDirect {
				fmt.Fprintf(out, "[dm %s] %s\n", ev.From, ev.Text)
			} else {
				fmt.Fprintf(out, "[%s] %s\n", ev.From, ev.Text)
			}
		}
	}()

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
		case err := <-readErr:
			return errors.Wrap(err, "connection lost")
		case line, ok := <-lines:
			if !ok || line == "/quit" {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
				return nil
			}
			ev := parseLine(line)
			if ev == nil {
				continue
			}
			if err := writeEvent(conn, ev); err != nil {
				return err
			}
		}
	}
}

// parseLine turns user input into an event; nil means nothing to send.
func parseLine(line string) chat.InboundEvent {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if rest, ok := strings.CutPrefix(line, "/dm "); ok {
		to, text, found := strings.Cut(strings.TrimSpace(rest), " ")
		if !found || strings.TrimSpace(text) == "" {
			return nil
		}
		return chat.Direct{To: to, Text: strings.TrimSpace(text)}
	}
	return chat.Broadcast{Text: line}
}

func writeEvent(conn *websocket.Conn, ev chat.InboundEvent) error {
	data, err := chat.EncodeInbound(ev)
	if err != nil {
		return err
	}
	return errors.Wrap(conn.WriteMessage(websocket.TextMessage, data), "write event")
}

// login returns the session cookie and the handle as the server spells it.
func login(ctx context.Context, endpoint, handle, password string) (*http.Cookie, string, error) {
	body, _ := json.Marshal(map[string]string{"handle": handle, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", errors.Wrap(err, "login request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", errors.Errorf("login failed: %s %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	var who struct {
		Handle string `json:"handle"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&who); err != nil || who.Handle == "" {
		return nil, "", errors.New("login response carried no handle")
	}
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			return c, who.Handle, nil
		}
	}
	return nil, "", errors.New("login response carried no session cookie")
}
