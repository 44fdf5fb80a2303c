package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow live queue updates",
		Long: `Connect to the websocket endpoint and print every frame the server
sends until interrupted. The connection occupies a queue slot like any
other client, so the first frames describe this connection's own seat.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := client.WebsocketURL()
			if cfg.Verbose {
				fmt.Fprintf(os.Stderr, "connecting to %s\n", url)
			}

			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer func() { _ = conn.Close() }()

			frames := make(chan json.RawMessage)
			errs := make(chan error, 1)
			go func() {
				for {
					var frame json.RawMessage
					if err := conn.ReadJSON(&frame); err != nil {
						errs <- err
						return
					}
					frames <- frame
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			out := NewOutput(cfg.Output)
			for {
				select {
				case frame := <-frames:
					printFrame(out, frame)
				case err := <-errs:
					return fmt.Errorf("connection closed: %w", err)
				case <-sigCh:
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return nil
				}
			}
		},
	}
}

func printFrame(out *Output, frame json.RawMessage) {
	var msg struct {
		Action string          `json:"action"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(frame, &msg); err != nil {
		out.PrintMessage(string(frame))
		return
	}

	if msg.Action == "queueUpdate" {
		var q QueueResult
		if err := json.Unmarshal(msg.Data, &q); err == nil {
			out.PrintMessage("queue updated:")
			out.Print(q)
			return
		}
	}

	out.PrintMessage(string(frame))
}
