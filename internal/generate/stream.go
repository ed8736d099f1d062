package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/editalmaster/editalmaster/internal/action"
	"github.com/editalmaster/editalmaster/internal/llm"
)

// ErrNoStream means RunStream was called with a non-free-text action.
var ErrNoStream = errors.New("action does not stream")

// RunStream executes a free-text action, forwarding model output to w in
// arrival order. A single space is written before the first upstream read
// so the consumer sees bytes immediately; renderers treat leading
// whitespace as a no-op. Empty fragments are dropped. A mid-stream failure
// is appended to the already-delivered output as a blank line plus a JSON
// error envelope, and returned. Cancellation of ctx stops the upstream
// pulls.
func (s *Service) RunStream(ctx context.Context, act action.Action, fields action.Fields, w io.Writer) error {
	c, err := action.Compile(act, fields)
	if err != nil {
		return err
	}
	if c.Mode != action.FreeText {
		return fmt.Errorf("%w: %s", ErrNoStream, act)
	}

	flush := func() {}
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}

	if _, err := io.WriteString(w, " "); err != nil {
		return err
	}
	flush()

	stream, err := s.provider.GenerateStream(ctx, llm.Request{
		System:      c.System,
		Prompt:      c.Prompt,
		Temperature: 0.7,
	})
	if err != nil {
		writeErrorEnvelope(w, err)
		flush()
		return err
	}
	defer stream.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fragment, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			writeErrorEnvelope(w, err)
			flush()
			return err
		}
		if fragment == "" {
			continue
		}

		if _, err := io.WriteString(w, fragment); err != nil {
			// Consumer is gone; stop pulling.
			return err
		}
		flush()
	}
}

func writeErrorEnvelope(w io.Writer, err error) {
	env, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return
	}
	_, _ = io.WriteString(w, "\n\n")
	_, _ = w.Write(env)
}
