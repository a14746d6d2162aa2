package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentlaunch/core"
	"github.com/hupe1980/agentlaunch/logging"
	"github.com/hupe1980/agentlaunch/model"
)

// Options configures a ChatAgent instance.
//
// Use functional options with NewChatAgent to override defaults.
type Options struct {
	// Description summarizes the agent's purpose; it feeds deployment
	// manifests when no explicit description override is given.
	Description string
	// Instruction is the system prompt sent with every model request.
	Instruction string
	// StreamPartials emits one event per model fragment in addition to the
	// final message event. Off by default to keep event sequences compact.
	StreamPartials bool
	// MaxHistoryTurns caps how many prior conversation events are replayed
	// to the model. Zero means no cap.
	MaxHistoryTurns int
	// Logger receives diagnostic output. Defaults to the no-op logger.
	Logger logging.Logger
}

// ChatAgent is a conversational core.Agent backed by a language model. Each
// Run turns the invocation message plus bounded session history into a model
// request and emits the model's reply as events.
type ChatAgent struct {
	name        string
	description string
	instruction string
	llm         model.Model
	opts        Options
}

// NewChatAgent creates a model-backed conversational agent with sensible
// defaults: a generic helpful-assistant instruction, 20 turns of replayed
// history and no partial event streaming.
func NewChatAgent(name string, llm model.Model, optFns ...func(o *Options)) *ChatAgent {
	opts := Options{
		Description:     fmt.Sprintf("Agent %s", name),
		Instruction:     fmt.Sprintf("You are %s, a helpful AI assistant.", name),
		MaxHistoryTurns: 20,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &ChatAgent{
		name:        name,
		description: opts.Description,
		instruction: opts.Instruction,
		llm:         llm,
		opts:        opts,
	}
}

// Name implements core.Agent.
func (a *ChatAgent) Name() string { return a.name }

// Description implements core.Agent.
func (a *ChatAgent) Description() string { return a.description }

// Model returns the backing language model.
func (a *ChatAgent) Model() model.Model { return a.llm }

// Run implements core.Agent. It performs one conversational turn: history +
// message in, streamed model responses out. Partial fragments become partial
// events when StreamPartials is enabled; the completed reply is always
// emitted as a final message event.
func (a *ChatAgent) Run(ctx context.Context, inv *core.Invocation) error {
	req := model.Request{
		Instructions: a.instruction,
		Contents:     a.buildContents(inv),
		Stream:       a.opts.StreamPartials,
	}

	a.opts.Logger.Debug("model request", "agent", a.name, "model", a.llm.Info().Name, "contents", len(req.Contents))

	respCh, errCh := a.llm.Generate(ctx, req)

	var finalText strings.Builder
	sawFinal := false
	for resp := range respCh {
		if resp.Partial {
			if a.opts.StreamPartials {
				if err := inv.EmitPartial(ctx, a.name, resp.Content.Text); err != nil {
					return err
				}
			}
			continue
		}
		finalText.WriteString(resp.Content.Text)
		sawFinal = true
	}
	if err := <-errCh; err != nil {
		a.opts.Logger.Error("model call failed", "agent", a.name, "error", err)
		return fmt.Errorf("agent %s: %w", a.name, err)
	}
	if !sawFinal {
		return fmt.Errorf("agent %s: model produced no final response", a.name)
	}

	return inv.EmitMessage(ctx, a.name, finalText.String())
}

// buildContents converts bounded session history plus the current message
// into normalized model contents.
func (a *ChatAgent) buildContents(inv *core.Invocation) []model.Content {
	history := inv.History
	if a.opts.MaxHistoryTurns > 0 && len(history) > a.opts.MaxHistoryTurns {
		history = history[len(history)-a.opts.MaxHistoryTurns:]
	}

	contents := make([]model.Content, 0, len(history)+1)
	for _, ev := range history {
		if !ev.HasContent() || ev.Partial {
			continue
		}
		role := "assistant"
		if ev.Author == "user" {
			role = "user"
		}
		contents = append(contents, model.Content{Role: role, Text: ev.Text()})
	}
	return append(contents, model.Content{Role: "user", Text: inv.Message})
}
