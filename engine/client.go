package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hupe1980/agentlaunch/app"
	"github.com/hupe1980/agentlaunch/config"
	"github.com/hupe1980/agentlaunch/core"
	"github.com/hupe1980/agentlaunch/internal/util"
	"github.com/hupe1980/agentlaunch/logging"
)

const (
	apiVersion = "v1"

	defaultTimeout       = 30 * time.Second
	defaultRetryAttempts = 3
	defaultRetryDelay    = time.Second
	defaultPollInterval  = 2 * time.Second
	defaultPollAttempts  = 30

	streamBufferSize = 16
)

// Options holds dependency + configuration overrides passed to NewClient().
type Options struct {
	// HTTPClient overrides the transport for platform calls. When set it is
	// used for streaming responses too, so it must not carry an overall
	// request timeout.
	HTTPClient *http.Client
	// Logger receives diagnostic output.
	Logger logging.Logger
	// RetryAttempts bounds retries of the handshake and idempotent reads.
	RetryAttempts int
	// RetryInitialDelay is the first backoff delay; it doubles per attempt
	// up to a cap.
	RetryInitialDelay time.Duration
	// PollInterval is the pause between deployment operation polls.
	PollInterval time.Duration
	// PollAttempts bounds how many times a deployment operation is polled
	// before the deploy is reported as failed.
	PollAttempts int
}

// Client drives the remote lifecycle of deployed agents: deploy, fetch, list
// and (through RemoteAgent handles) query and delete. A Client is bound to one
// project and location for its lifetime and authenticates every call with the
// bearer token loaded at construction.
//
// Construction performs the credential handshake, so a non-nil Client has
// already been accepted by the platform. Methods are safe for concurrent use;
// lifecycle operations against a single handle are not (see RemoteAgent).
type Client struct {
	cfg        *config.Config
	baseURL    string
	token      string
	httpClient *http.Client
	// streamClient has no overall timeout: streaming responses stay open
	// well past any sane unary deadline.
	streamClient *http.Client
	logger       logging.Logger

	retryAttempts int
	retryDelay    time.Duration
	pollInterval  time.Duration
	pollAttempts  int
}

// NewClient validates cfg, loads the credential token and performs the
// authentication handshake against the platform.
//
// Failure modes, in check order:
//   - cfg fails validation: the same *config.ConfigError Validate reports.
//   - cfg.Endpoint is empty: *config.ConfigError naming the endpoint field.
//   - the credential file cannot be read: *config.CredentialError.
//   - the platform answers the handshake with 401/403: *AuthError, fatal.
//
// The handshake is retried on transient failures like any idempotent read.
func NewClient(ctx context.Context, cfg *config.Config, optFns ...func(o *Options)) (*Client, error) {
	opts := Options{
		Logger:            logging.NoOpLogger{},
		RetryAttempts:     defaultRetryAttempts,
		RetryInitialDelay: defaultRetryDelay,
		PollInterval:      defaultPollInterval,
		PollAttempts:      defaultPollAttempts,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, &config.ConfigError{Field: "endpoint", Reason: "AGENTLAUNCH_ENDPOINT must be set for remote operations"}
	}

	token, err := loadToken(cfg)
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	streamClient := opts.HTTPClient

	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
		streamClient = &http.Client{}
	}

	c := &Client{
		cfg:           cfg,
		baseURL:       strings.TrimRight(cfg.Endpoint, "/"),
		token:         token,
		httpClient:    httpClient,
		streamClient:  streamClient,
		logger:        opts.Logger,
		retryAttempts: opts.RetryAttempts,
		retryDelay:    opts.RetryInitialDelay,
		pollInterval:  opts.PollInterval,
		pollAttempts:  opts.PollAttempts,
	}

	if err := c.handshake(ctx); err != nil {
		return nil, err
	}

	c.logger.Info("platform client ready", "project", cfg.ProjectID, "location", cfg.Location, "endpoint", c.baseURL)

	return c, nil
}

// loadToken resolves the bearer token from the configured credential file, or
// from the process-wide credential path when the config carries none.
func loadToken(cfg *config.Config) (string, error) {
	path := cfg.CredentialsFile
	if path == "" {
		path = os.Getenv(config.GoogleCredentialsEnv)
	}
	if path == "" {
		// Anonymous client; the handshake decides whether that is enough.
		return "", nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", &config.CredentialError{Path: path, Err: err}
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", &config.CredentialError{Path: path, Err: errors.New("credentials file is empty")}
	}

	return token, nil
}

// DeployOptions override descriptor fields for a single Deploy call. Unset
// fields fall back to the configuration record.
type DeployOptions struct {
	DisplayName   string
	Description   string
	Requirements  []string
	ExtraPackages []string
	Labels        map[string]string
}

// Deploy submits the packaged app for provisioning and blocks until the
// platform's operation completes, then returns the handle to the new
// deployment. A rejected or failed provisioning surfaces as *DeployError.
//
// Deploy is not idempotent and is therefore never retried by the client: a
// transport failure leaves the outcome unknown, and resolving that is the
// caller's decision (List shows what actually exists).
func (c *Client) Deploy(ctx context.Context, a *app.App, optFns ...func(o *DeployOptions)) (*RemoteAgent, error) {
	opts := DeployOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	spec, err := c.buildSpec(a, opts)
	if err != nil {
		return nil, err
	}

	c.logger.Info("deploying agent", "display_name", spec.DisplayName, "project", c.cfg.ProjectID, "location", c.cfg.Location)

	start := time.Now()

	status, body, err := c.do(ctx, http.MethodPost, c.agentsURL(), spec)
	if err != nil {
		return nil, fmt.Errorf("deploy request: %w", err)
	}

	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	default:
		return nil, &DeployError{Status: status, Message: platformMessage(body)}
	}

	var op Operation
	if err := json.Unmarshal(body, &op); err != nil {
		return nil, fmt.Errorf("parse deploy operation: %w", err)
	}

	op, err = c.waitOperation(ctx, op)
	if err != nil {
		return nil, err
	}

	if op.ResourceName == "" {
		return nil, &DeployError{Message: fmt.Sprintf("operation %s completed without a resource name", op.ID)}
	}

	c.logger.Info("agent deployed", "resource", op.ResourceName, "duration", time.Since(start).String())

	return newRemoteAgent(c, op.ResourceName), nil
}

// Get resolves an existing deployment by its resource name. An identifier the
// platform does not know yields *NotFoundError. As an idempotent read, Get is
// retried on transient failures.
func (c *Client) Get(ctx context.Context, resourceName string) (*RemoteAgent, error) {
	var res agentResource

	err := doWithRetry(ctx, c.logger, c.retryAttempts, c.retryDelay, func() error {
		status, body, err := c.do(ctx, http.MethodGet, c.resourceURL(resourceName), nil)
		if err != nil {
			return err
		}
		switch {
		case status == http.StatusOK:
			res = agentResource{}
			if err := json.Unmarshal(body, &res); err != nil {
				return fmt.Errorf("parse agent resource: %w", err)
			}
			return nil
		case status == http.StatusNotFound:
			return &NotFoundError{Resource: resourceName}
		default:
			return responseError(status, body)
		}
	})
	if err != nil {
		return nil, err
	}

	name := res.Name
	if name == "" {
		name = resourceName
	}

	return newRemoteAgent(c, name), nil
}

// List returns handles for every agent deployed in the client's project and
// location. As an idempotent read, List is retried on transient failures.
func (c *Client) List(ctx context.Context) ([]*RemoteAgent, error) {
	var out listAgentsResponse

	err := doWithRetry(ctx, c.logger, c.retryAttempts, c.retryDelay, func() error {
		status, body, err := c.do(ctx, http.MethodGet, c.agentsURL(), nil)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return responseError(status, body)
		}
		out = listAgentsResponse{}
		if err := json.Unmarshal(body, &out); err != nil {
			return fmt.Errorf("parse agents list: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}

	agents := make([]*RemoteAgent, 0, len(out.Agents))
	for _, res := range out.Agents {
		agents = append(agents, newRemoteAgent(c, res.Name))
	}

	return agents, nil
}

// buildSpec assembles the wire descriptor for one deployment: caller
// overrides first, configuration defaults second.
func (c *Client) buildSpec(a *app.App, opts DeployOptions) (*DeploymentSpec, error) {
	agent := a.Agent()

	displayName := opts.DisplayName
	if displayName == "" {
		displayName = c.cfg.AgentName
	}

	description := opts.Description
	if description == "" {
		description = c.cfg.AgentDescription
	}
	if description == "" {
		description = agent.Description()
	}

	requirements := opts.Requirements
	if len(requirements) == 0 {
		var err error
		requirements, err = c.cfg.RequirementsList()
		if err != nil {
			return nil, err
		}
	}

	extraPackages := opts.ExtraPackages
	if len(extraPackages) == 0 {
		extraPackages = c.cfg.ExtraPackages
	}

	labels := opts.Labels
	if len(labels) == 0 {
		labels = c.cfg.Labels
	}

	return &DeploymentSpec{
		DisplayName:   displayName,
		Description:   description,
		Requirements:  requirements,
		ExtraPackages: extraPackages,
		StagingBucket: c.cfg.StagingBucket,
		Labels:        labels,
		Agent: AgentManifest{
			Name:        agent.Name(),
			Description: agent.Description(),
			Model:       c.cfg.ModelName,
			Operations:  manifestOperations(),
		},
	}, nil
}

// manifestOperations declares the queryable surface every deployed agent
// exposes. The registered description keeps its full text; listings truncate
// to the first line.
func manifestOperations() []Schema {
	return []Schema{
		{
			Name:        "stream_query",
			Description: "Stream a conversational answer for one user message.\nEvents arrive in production order; the final event completes the turn.",
			Parameters:  util.CreateSchema(core.Query{}),
		},
	}
}

// waitOperation polls a provisioning operation until the platform reports it
// done. The poll budget is bounded: an operation still running when the
// budget runs out fails the deploy instead of blocking forever. Transient
// poll failures consume budget and polling continues.
func (c *Client) waitOperation(ctx context.Context, op Operation) (Operation, error) {
	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		if op.Done {
			if op.State == OperationStateFailed || op.Error != "" {
				msg := op.Error
				if msg == "" {
					msg = fmt.Sprintf("operation %s failed", op.ID)
				}
				return op, &DeployError{Message: msg}
			}
			return op, nil
		}

		c.logger.Debug("waiting for deploy operation", "operation", op.ID, "state", op.State, "attempt", attempt+1)

		t := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return op, ctx.Err()
		case <-t.C:
		}

		next, err := c.getOperation(ctx, op.ID)
		if err != nil {
			var rerr *retryableError
			if errors.As(err, &rerr) {
				c.logger.Warn("operation poll failed", "operation", op.ID, "error", err.Error())
				continue
			}
			return op, fmt.Errorf("poll operation %s: %w", op.ID, err)
		}

		op = next
	}

	if op.Done {
		return op, nil
	}

	return op, &DeployError{Message: fmt.Sprintf("operation %s did not complete within the poll budget", op.ID)}
}

func (c *Client) getOperation(ctx context.Context, id string) (Operation, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.operationURL(id), nil)
	if err != nil {
		return Operation{}, err
	}
	if status != http.StatusOK {
		return Operation{}, responseError(status, body)
	}

	var op Operation
	if err := json.Unmarshal(body, &op); err != nil {
		return Operation{}, fmt.Errorf("parse operation: %w", err)
	}

	return op, nil
}

// handshake verifies the token against the configured project before any
// lifecycle call. 401/403 is an authentication rejection and fatal; other
// transient failures retry like any idempotent read.
func (c *Client) handshake(ctx context.Context) error {
	url := c.baseURL + "/" + apiVersion + "/projects/" + c.cfg.ProjectID

	return doWithRetry(ctx, c.logger, c.retryAttempts, c.retryDelay, func() error {
		status, body, err := c.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		switch {
		case status == http.StatusOK:
			return nil
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return &AuthError{Status: status, Message: platformMessage(body)}
		case status == http.StatusNotFound:
			return &NotFoundError{Resource: "projects/" + c.cfg.ProjectID}
		default:
			return responseError(status, body)
		}
	})
}

func (c *Client) agentsURL() string {
	return fmt.Sprintf("%s/%s/projects/%s/locations/%s/agents", c.baseURL, apiVersion, c.cfg.ProjectID, c.cfg.Location)
}

func (c *Client) resourceURL(resourceName string) string {
	return c.baseURL + "/" + apiVersion + "/" + strings.TrimPrefix(resourceName, "/")
}

func (c *Client) operationURL(id string) string {
	return c.baseURL + "/" + apiVersion + "/operations/" + id
}

func (c *Client) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// do issues a JSON request and returns status plus raw body. Transport and
// body-read failures come back marked retryable; whether they are actually
// retried depends on the calling operation.
func (c *Client) do(ctx context.Context, method, url string, payload any) (int, []byte, error) {
	var reqBody io.Reader

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, retryable(fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, retryable(fmt.Errorf("read response: %w", err))
	}

	return resp.StatusCode, body, nil
}

// responseError converts a non-2xx response into an error, marking transient
// statuses retryable.
func responseError(status int, body []byte) error {
	herr := &httpError{Status: status, Body: body}
	if retryableStatus(status) {
		return retryable(herr)
	}
	return herr
}
