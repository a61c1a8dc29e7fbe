package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hostcard/pokerroom/internal/model"
	"github.com/hostcard/pokerroom/internal/reconcile"
	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool
	var raw bool

	cmd := &cobra.Command{
		Use:   "events <code>",
		Short: "Stream room events in real-time",
		Long: `Connect to the room's SSE endpoint and stream events.

By default the stream is reduced through a local room mirror and only
the resulting notices are printed (deals, folds, reveals, showdowns,
round resets, joins and leaves). Replayed or out-of-order events are
absorbed silently. Use --raw to print every event as it arrives.

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents(args[0], jsonOutput, raw)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON lines")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw events instead of reconciled notices")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func streamEvents(roomCode string, jsonOutput, raw bool) error {
	// EventSource-style auth: the token rides the query string
	streamURL := strings.TrimSuffix(cfg.ServerURL, "/") + "/api/v1/rooms/" + roomCode + "/events"
	if cfg.Token != "" {
		streamURL += "?token=" + url.QueryEscape(cfg.Token)
	}

	req, err := http.NewRequest(http.MethodGet, streamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// Set up cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	req = req.WithContext(ctx)

	httpClient := &http.Client{
		Timeout: 0, // No timeout for SSE
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if !jsonOutput {
		fmt.Printf("Connected to room %s\n", roomCode)
	}

	mirror := reconcile.NewMirror(nil, nil)

	// Parse SSE stream
	scanner := bufio.NewScanner(resp.Body)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "event: ") {
			currentEvent = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		} else if line == "" {
			// End of event
			if currentEvent != "" {
				data := strings.Join(dataLines, "\n")
				handleEvent(mirror, currentEvent, data, jsonOutput, raw)
			}
			currentEvent = ""
			dataLines = nil
			if mirror.Ended() {
				if !jsonOutput {
					fmt.Println("Session ended")
				}
				return nil
			}
		}
	}

	if err := scanner.Err(); err != nil {
		// Context cancellation is expected
		if ctx.Err() != nil {
			if !jsonOutput {
				fmt.Println("\nDisconnected")
			}
			return nil
		}
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		fmt.Println("Disconnected")
	}
	return nil
}

func handleEvent(mirror *reconcile.Mirror, event, data string, jsonOutput, raw bool) {
	if raw {
		printRawEvent(event, data, jsonOutput)
		return
	}

	switch event {
	case "snapshot":
		// The snapshot is viewer-trimmed display state; the mirror builds
		// itself from the change events that follow.
		var state RoomState
		if err := json.Unmarshal([]byte(data), &state); err != nil {
			return
		}
		printNotice(fmt.Sprintf("room %s - stage %s, %d players",
			state.Room.ID, state.Room.Stage, len(state.Players)), jsonOutput)

	case "change":
		var change model.ChangeEvent
		if err := json.Unmarshal([]byte(data), &change); err != nil {
			return
		}
		for _, notice := range mirror.Apply(change) {
			printNotice(notice.Text, jsonOutput)
		}
	}
}

func printNotice(text string, jsonOutput bool) {
	now := time.Now()
	if jsonOutput {
		data, _ := json.Marshal(map[string]string{
			"time":   now.Format(time.RFC3339),
			"notice": text,
		})
		fmt.Println(string(data))
		return
	}
	fmt.Printf("[%s] %s\n", now.Format("15:04:05"), text)
}

func printRawEvent(event, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := SSEEvent{
			Time:  now,
			Event: event,
			Data:  data,
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Println(string(jsonData))
	} else {
		timestamp := now.Format("2006-01-02 15:04:05")
		// Truncate data if it's too long for display
		displayData := data
		if len(displayData) > 100 {
			displayData = displayData[:100] + "..."
		}
		displayData = strings.ReplaceAll(displayData, "\n", " ")
		fmt.Printf("[%s] %s: %s\n", timestamp, event, displayData)
	}
}
