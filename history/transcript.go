// ABOUTME: Implements transcript persistence so a restarted run can resume the
// ABOUTME: last exchanges. Uses JSONL: one header line, then one line per message.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/2389-research/mcphub/llm"
)

const (
	lineHeader  = "transcript_header"
	lineMessage = "message"
)

type headerLine struct {
	Type      string    `json:"type"`
	Capacity  int       `json:"capacity"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messageLine struct {
	Type    string   `json:"type"`
	Role    llm.Role `json:"role"`
	Content string   `json:"content"`
}

// WriteJSONL writes the window as JSONL.
func (w *Window) WriteJSONL(out io.Writer) error {
	encoder := json.NewEncoder(out)

	header := headerLine{Type: lineHeader, Capacity: w.capacity, UpdatedAt: time.Now().UTC()}
	if err := encoder.Encode(header); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	for _, msg := range w.Messages() {
		line := messageLine{Type: lineMessage, Role: msg.Role, Content: msg.Content}
		if err := encoder.Encode(line); err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
	}
	return nil
}

// ReadJSONL rebuilds a window of the given capacity from JSONL. When the
// transcript holds more messages than fit, only the newest are kept.
func ReadJSONL(r io.Reader, capacity int) (*Window, error) {
	w := New(capacity)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var typeCheck struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(line, &typeCheck); err != nil {
			return nil, fmt.Errorf("line %d: parse type: %w", lineNum, err)
		}

		switch typeCheck.Type {
		case lineMessage:
			var entry messageLine
			if err := json.Unmarshal(line, &entry); err != nil {
				return nil, fmt.Errorf("line %d: parse message: %w", lineNum, err)
			}
			if entry.Role != llm.RoleUser && entry.Role != llm.RoleAssistant {
				return nil, fmt.Errorf("line %d: unknown role %q", lineNum, entry.Role)
			}
			w.push(llm.Message{Role: entry.Role, Content: entry.Content})
		default:
			// Header and unknown types carry nothing the window needs.
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return w, nil
}

// SaveTranscript writes the window to path.
func (w *Window) SaveTranscript(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if err := w.WriteJSONL(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadTranscript reads a window saved by SaveTranscript.
func LoadTranscript(path string, capacity int) (*Window, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return ReadJSONL(f, capacity)
}
