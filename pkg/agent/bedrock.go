package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/sethvargo/go-retry"
)

// Bedrock invokes an Amazon Bedrock agent with a streamed completion.
type Bedrock struct {
	client     *bedrockagentruntime.Client
	agentID    string
	aliasID    string
	maxRetries uint64
	logger     *slog.Logger
}

// NewBedrock wires a Bedrock agent runtime client to a specific agent and
// alias.
func NewBedrock(client *bedrockagentruntime.Client, agentID, aliasID string, logger *slog.Logger) *Bedrock {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bedrock{
		client:     client,
		agentID:    agentID,
		aliasID:    aliasID,
		maxRetries: 3,
		logger:     logger,
	}
}

// Stream invokes the agent and forwards completion chunks to onChunk.
// Throttled invocations are retried with exponential backoff; retries never
// happen after the first chunk has been delivered.
func (b *Bedrock) Stream(ctx context.Context, req Request, onChunk func(text string) error) (string, error) {
	input := &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(b.agentID),
		AgentAliasId: aws.String(b.aliasID),
		SessionId:    aws.String(req.SessionID),
		InputText:    aws.String(req.InputText),
	}
	if len(req.SessionAttributes) > 0 {
		input.SessionState = &brtypes.SessionState{
			SessionAttributes: req.SessionAttributes,
		}
	}

	var out *bedrockagentruntime.InvokeAgentOutput
	backoff := retry.WithMaxRetries(b.maxRetries, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var invokeErr error
		out, invokeErr = b.client.InvokeAgent(ctx, input)
		if invokeErr == nil {
			return nil
		}
		if isRetryable(invokeErr) {
			b.logger.Warn("agent invocation throttled, retrying",
				slog.String("session_id", req.SessionID),
				slog.String("error", invokeErr.Error()))
			return retry.RetryableError(invokeErr)
		}
		return invokeErr
	})
	if err != nil {
		return "", fmt.Errorf("invoke agent: %w", err)
	}

	stream := out.GetStream()
	defer stream.Close()

	var full strings.Builder
	for event := range stream.Events() {
		chunk, ok := event.(*brtypes.ResponseStreamMemberChunk)
		if !ok || len(chunk.Value.Bytes) == 0 {
			continue
		}
		text := string(chunk.Value.Bytes)
		full.WriteString(text)
		if err := onChunk(text); err != nil {
			return full.String(), err
		}
	}
	if err := stream.Err(); err != nil {
		return full.String(), fmt.Errorf("agent stream: %w", err)
	}
	return full.String(), nil
}

func isRetryable(err error) bool {
	var throttle *brtypes.ThrottlingException
	var quota *brtypes.ServiceQuotaExceededException
	return errors.As(err, &throttle) || errors.As(err, &quota)
}
