package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/sandevgo/shopmind/internal/config"
	"github.com/sandevgo/shopmind/internal/service/agent"
	"github.com/sandevgo/shopmind/internal/service/ui"
	"github.com/sandevgo/shopmind/pkg/log"
)

// ReadLine is the local chat transport: one terminal session, one thread.
type ReadLine struct {
	cfg      *config.AppConfig
	agent    *agent.Agent
	rl       *readline.Instance
	threadID string
}

func NewReadLine(agent *agent.Agent, cfg *config.AppConfig) (*ReadLine, error) {
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:      cfg,
		agent:    agent,
		rl:       rl,
		threadID: "cli-" + uuid.NewString(),
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Str("thread", r.threadID).Msg("chat started, type 'exit' to quit")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		if line == "/memory" {
			r.showMemory()
			continue
		}

		reply, err := r.agent.Run(ctx, r.threadID, line)
		if err != nil {
			logger.Error().Err(err).Msg("agent run failed")
			fmt.Fprintf(r.rl.Stdout(), "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(r.rl.Stdout(), "%s\n", reply)
	}
}

// showMemory dumps the compressed context the next prompt would carry.
func (r *ReadLine) showMemory() {
	rendered := r.agent.RenderMemory(r.threadID)
	if rendered == "" {
		fmt.Fprintln(r.rl.Stdout(), "(no context extracted yet)")
		return
	}
	fmt.Fprintln(r.rl.Stdout(), ui.MemoryStyle.Render(rendered))
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
