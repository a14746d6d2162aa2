// Package agentlaunch provides a high-level facade over the deployment
// lifecycle of conversational agents: configuration validation, local
// packaging, provisioning on the managed platform and streamed queries
// against either side. Most applications interact with this package by:
//  1. Building a Config (config.FromEnv) and an agent (agent.NewChatAgent)
//  2. Creating a Launcher via New() (optionally overriding logger, output writer and confirmation gate)
//  3. Driving the lifecycle: ValidateAndPrepare, SmokeTest, Deploy, QueryRemote and Teardown (or Run for the whole arc)
//
// The facade delegates the actual work to config.Config, app.App and
// engine.Client while keeping setup and usage ergonomics concise. Defaults
// are safe for local development; production deployments typically supply a
// structured logger and a non-interactive confirmation policy.
package agentlaunch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hupe1980/agentlaunch/app"
	"github.com/hupe1980/agentlaunch/config"
	"github.com/hupe1980/agentlaunch/confirm"
	"github.com/hupe1980/agentlaunch/core"
	"github.com/hupe1980/agentlaunch/engine"
	"github.com/hupe1980/agentlaunch/logging"
)

// User identifiers stamped on the lifecycle's own test queries.
const (
	smokeTestUserID = "test-user"
	liveTestUserID  = "production-test-user"
)

// ErrNotDeployed is returned by remote operations before Deploy or Attach
// has produced a handle.
var ErrNotDeployed = errors.New("no deployed agent: deploy or attach first")

// Options configures the Launcher.
type Options struct {
	// Logger receives diagnostic output. Defaults to the no-op logger.
	Logger logging.Logger
	// Out receives progress banners and rendered response lines. Defaults
	// to os.Stdout.
	Out io.Writer
	// Confirmer gates teardown. Defaults to the interactive stdin gate.
	Confirmer confirm.Confirmer
	// AppOptions adjust how the agent is packaged locally.
	AppOptions []func(o *app.Options)
	// ClientOptions adjust the platform client: transport, retry and
	// polling behavior.
	ClientOptions []func(o *engine.Options)
}

// Launcher drives the end-to-end lifecycle of one agent: validate the
// configuration, smoke-test the packaged agent in process, deploy it, query
// the deployed twin and finally tear it down. Progress is written to Out;
// responses are rendered with the author prefixed, skipping events that
// carry no content (they still count toward stream completion).
//
// A Launcher holds at most one remote handle at a time: the latest Deploy or
// Attach wins. Methods may be called from one goroutine.
type Launcher struct {
	cfg    *config.Config
	agent  core.Agent
	app    *app.App
	out    io.Writer
	gate   confirm.Confirmer
	logger logging.Logger

	clientOptions []func(o *engine.Options)

	mu     sync.Mutex
	client *engine.Client
	remote *engine.RemoteAgent
}

// New packages agent into an app and binds it to cfg. Construction is
// side-effect free: nothing is validated and no network is touched until
// the lifecycle methods run.
func New(cfg *config.Config, agent core.Agent, optFns ...func(o *Options)) *Launcher {
	opts := Options{
		Logger:    logging.NoOpLogger{},
		Out:       os.Stdout,
		Confirmer: confirm.NewStdinConfirmer(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	appOptions := append([]func(o *app.Options){func(o *app.Options) {
		o.Logger = opts.Logger
	}}, opts.AppOptions...)

	return &Launcher{
		cfg:           cfg,
		agent:         agent,
		app:           app.New(agent, appOptions...),
		out:           opts.Out,
		gate:          opts.Confirmer,
		logger:        opts.Logger,
		clientOptions: opts.ClientOptions,
	}
}

// App returns the locally packaged agent, queryable without any deployment.
func (l *Launcher) App() *app.App { return l.app }

// ValidateAndPrepare prints the configuration summary, validates the
// configuration and installs the credential file into the process
// environment. It fails with the validation's *config.ConfigError or the
// installation's *config.CredentialError; on failure nothing has been
// mutated beyond the summary output.
func (l *Launcher) ValidateAndPrepare() error {
	l.cfg.Summary(l.out)

	if err := l.cfg.Validate(); err != nil {
		return err
	}

	if err := l.cfg.SetupCredentials(); err != nil {
		return err
	}

	l.logger.Info("configuration ready", "project", l.cfg.ProjectID, "location", l.cfg.Location)

	return nil
}

// SmokeTest streams one query through the packaged agent in process, before
// anything is deployed. The rendered output follows the same display rule as
// remote queries, so what the smoke test prints is what production will.
func (l *Launcher) SmokeTest(ctx context.Context, message string) error {
	l.section("Testing local agent")
	fmt.Fprintf(l.out, "Message: %s\n\n", message)

	stream, err := l.app.StreamQuery(ctx, core.Query{UserID: smokeTestUserID, Message: message})
	if err != nil {
		return fmt.Errorf("local query: %w", err)
	}

	count, err := l.render(stream)
	if err != nil {
		return fmt.Errorf("local query: %w", err)
	}

	fmt.Fprintf(l.out, "\nLocal test complete (%d events).\n", count)

	return nil
}

// Deploy provisions the packaged agent on the platform and remembers the
// returned handle for QueryRemote, Operations and Teardown.
func (l *Launcher) Deploy(ctx context.Context, optFns ...func(o *engine.DeployOptions)) (*engine.RemoteAgent, error) {
	client, err := l.connect(ctx)
	if err != nil {
		return nil, err
	}

	l.section("Deploying agent")

	remote, err := client.Deploy(ctx, l.app, optFns...)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(l.out, "Resource: %s\n", remote.ResourceName())
	fmt.Fprintf(l.out, "Project:  %s\n", l.cfg.ProjectID)
	fmt.Fprintf(l.out, "Location: %s\n", l.cfg.Location)

	l.setRemote(remote)

	return remote, nil
}

// Attach resolves an already deployed agent by resource name and makes it
// the Launcher's current handle.
func (l *Launcher) Attach(ctx context.Context, resourceName string) (*engine.RemoteAgent, error) {
	client, err := l.connect(ctx)
	if err != nil {
		return nil, err
	}

	remote, err := client.Get(ctx, resourceName)
	if err != nil {
		return nil, err
	}

	l.setRemote(remote)

	return remote, nil
}

// QueryRemote streams query against the deployed agent and renders the
// response with the display rule applied.
func (l *Launcher) QueryRemote(ctx context.Context, query core.Query) error {
	remote, err := l.currentRemote()
	if err != nil {
		return err
	}

	l.section("Querying deployed agent")
	fmt.Fprintf(l.out, "User: %s\nMessage: %s\n\n", query.UserID, query.Message)

	stream, err := remote.StreamQuery(ctx, query)
	if err != nil {
		return err
	}

	count, err := l.render(stream)
	if err != nil {
		return err
	}

	fmt.Fprintf(l.out, "\nQuery complete (%d events).\n", count)

	return nil
}

// Operations lists the operation schemas of the deployed agent, one line
// per operation.
func (l *Launcher) Operations(ctx context.Context) ([]engine.Schema, error) {
	remote, err := l.currentRemote()
	if err != nil {
		return nil, err
	}

	schemas, err := remote.OperationSchemas(ctx)
	if err != nil {
		return nil, err
	}

	l.section("Deployed agent operations")
	for _, s := range schemas {
		fmt.Fprintf(l.out, "- %s", s.Name)
		if s.Description != "" {
			fmt.Fprintf(l.out, ": %s", s.Description)
		}
		fmt.Fprintln(l.out)
	}

	return schemas, nil
}

// Teardown deletes the deployed agent after the Launcher's confirmation
// gate approves. Declining is a normal outcome: (false, nil), resource
// untouched.
func (l *Launcher) Teardown(ctx context.Context, optFns ...func(o *engine.DeleteOptions)) (bool, error) {
	remote, err := l.currentRemote()
	if err != nil {
		return false, err
	}

	l.section("Deleting deployed agent")

	deleted, err := remote.Delete(ctx, l.gate, optFns...)
	if err != nil {
		return false, err
	}

	if deleted {
		fmt.Fprintln(l.out, "Agent deleted.")
	} else {
		fmt.Fprintln(l.out, "Deletion cancelled.")
	}

	return deleted, nil
}

// Run executes the lifecycle in order: validate and prepare the
// configuration, smoke-test the agent in process, deploy it, then send the
// same message to the deployed twin. The deployed agent is left running and
// its handle returned; Teardown removes it when the caller is done.
func (l *Launcher) Run(ctx context.Context, message string) (*engine.RemoteAgent, error) {
	if err := l.ValidateAndPrepare(); err != nil {
		return nil, err
	}

	if err := l.SmokeTest(ctx, message); err != nil {
		return nil, err
	}

	remote, err := l.Deploy(ctx)
	if err != nil {
		return nil, err
	}

	if err := l.QueryRemote(ctx, core.Query{UserID: liveTestUserID, Message: message}); err != nil {
		return remote, err
	}

	l.section("Lifecycle complete")

	return remote, nil
}

// connect builds the platform client on first use, reusing it afterwards.
func (l *Launcher) connect(ctx context.Context) (*engine.Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		return l.client, nil
	}

	optFns := append([]func(o *engine.Options){func(o *engine.Options) {
		o.Logger = l.logger
	}}, l.clientOptions...)

	client, err := engine.NewClient(ctx, l.cfg, optFns...)
	if err != nil {
		return nil, err
	}

	l.client = client

	return client, nil
}

func (l *Launcher) setRemote(remote *engine.RemoteAgent) {
	l.mu.Lock()
	l.remote = remote
	l.mu.Unlock()
}

func (l *Launcher) currentRemote() (*engine.RemoteAgent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.remote == nil {
		return nil, ErrNotDeployed
	}

	return l.remote, nil
}

// render drains a stream, printing author-prefixed lines for events that
// carry content. Events without content are skipped for rendering but still
// count toward completion.
func (l *Launcher) render(stream *core.Stream) (int, error) {
	defer stream.Close()

	count := 0

	for {
		ev, ok := stream.Next()
		if !ok {
			break
		}

		count++

		if !ev.HasContent() {
			continue
		}

		fmt.Fprintf(l.out, "%s: %s\n", ev.Author, ev.Text())
	}

	return count, stream.Err()
}

func (l *Launcher) section(title string) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintf(l.out, "\n%s\n%s\n%s\n", rule, title, rule)
}
