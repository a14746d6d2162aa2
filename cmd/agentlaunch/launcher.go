package main

import (
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agentlaunch"
	"github.com/hupe1980/agentlaunch/agent"
	"github.com/hupe1980/agentlaunch/confirm"
	"github.com/hupe1980/agentlaunch/core"
	"github.com/hupe1980/agentlaunch/model"
	"github.com/hupe1980/agentlaunch/model/anthropic"
	"github.com/hupe1980/agentlaunch/model/openai"
)

// buildAgent constructs the reference agent the CLI packages: a chat agent
// over the model the configuration names, streaming partial responses so
// queries render incrementally.
func buildAgent() core.Agent {
	return agent.NewChatAgent(cliCfg.AgentName, buildModel(), func(o *agent.Options) {
		if cliCfg.AgentDescription != "" {
			o.Description = cliCfg.AgentDescription
		}
		o.StreamPartials = true
		o.Logger = cliLogger
	})
}

// buildModel picks the backing model from the configured model name:
// claude-* names talk to the Anthropic API, "mock" runs offline, anything
// else goes to OpenAI.
func buildModel() model.Model {
	name := cliCfg.ModelName

	switch {
	case name == "mock":
		return model.NewMockModel("mock", "local")
	case strings.HasPrefix(name, "claude"):
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(name)
		})
	default:
		return openai.NewModel(func(o *openai.Options) {
			o.Model = name
		})
	}
}

func newLauncher(gate confirm.Confirmer) *agentlaunch.Launcher {
	return agentlaunch.New(cliCfg, buildAgent(), func(o *agentlaunch.Options) {
		o.Logger = cliLogger
		if gate != nil {
			o.Confirmer = gate
		}
	})
}

func parseLabels(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	labels := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid label %q, expected key=value", pair)
		}
		labels[key] = value
	}

	return labels, nil
}
