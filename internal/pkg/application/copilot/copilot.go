package copilot

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JosephMusya/majiup-tools/domain"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

const Prompt string = "Ask Majiup Copilot: "

type TankSource interface {
	Tanks(ctx context.Context) ([]domain.Tank, error)
}

// BuildPrompt appends the current tank state to the user's question.
func BuildPrompt(question string, tanks []domain.Tank) (string, error) {
	b, err := json.Marshal(tanks)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tank data: %w", err)
	}

	return fmt.Sprintf("%s\nTank data is %s", question, string(b)), nil
}

// Run reads one question per line from in and writes each answer to out. It
// returns nil when in is exhausted and ctx.Err() when ctx is cancelled. A
// failing turn is logged and the loop moves on to the next question.
func Run(ctx context.Context, in io.Reader, out io.Writer, source TankSource, completer Completer) error {
	logger := logging.GetFromContext(ctx)

	lines := make(chan string)
	scanErr := make(chan error, 1)

	// lines have no length limit
	go func() {
		defer close(lines)
		reader := bufio.NewReader(in)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				select {
				case lines <- strings.TrimRight(line, "\r\n"):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					scanErr <- err
				}
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, Prompt)

		var question string
		var ok bool

		select {
		case <-ctx.Done():
			return ctx.Err()
		case question, ok = <-lines:
		}

		if !ok {
			fmt.Fprintln(out)
			select {
			case err := <-scanErr:
				return err
			default:
				return ctx.Err()
			}
		}

		question = strings.TrimSpace(question)

		answer, err := ask(ctx, question, source, completer)
		if err != nil {
			logger.Error().Err(err).Msg("failed to answer question")
			continue
		}

		fmt.Fprintf(out, "Answer: %s\n", answer)
	}
}

func ask(ctx context.Context, question string, source TankSource, completer Completer) (string, error) {
	tanks, err := source.Tanks(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get tank data: %w", err)
	}

	prompt, err := BuildPrompt(question, tanks)
	if err != nil {
		return "", err
	}

	return completer.Complete(ctx, prompt)
}
