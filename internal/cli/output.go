package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case QueueResult:
		o.printQueueResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// QueueEntry is one participant in the queue listing
type QueueEntry struct {
	ID       string    `json:"id"`
	Status   string    `json:"status"`
	Marker   string    `json:"marker,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
	Username string    `json:"username,omitempty"`
}

// QueueResult response type
type QueueResult struct {
	Participants []QueueEntry `json:"participants"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}

func (o *Output) printQueueResult(q QueueResult) {
	fmt.Printf("Participants (%d):\n", len(q.Participants))
	for _, p := range q.Participants {
		name := p.Username
		if name == "" {
			name = p.ID
		}
		switch p.Status {
		case "active":
			fmt.Printf("  %s  active [%s]  joined %s\n", name, p.Marker, p.JoinedAt.Format(time.RFC3339))
		default:
			fmt.Printf("  %s  waiting  joined %s\n", name, p.JoinedAt.Format(time.RFC3339))
		}
	}
}
