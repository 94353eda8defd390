package codeexec

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

// DefaultExecutorFunction is the sandbox Lambda invoked for code execution.
const DefaultExecutorFunction = "prepai-code-executor"

type lambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// Lambda executes candidate code in a sandbox Lambda function.
type Lambda struct {
	client       lambdaAPI
	functionName string
}

// NewLambda wires a Lambda client to the executor function.
func NewLambda(client *lambda.Client, functionName string) *Lambda {
	if functionName == "" {
		functionName = DefaultExecutorFunction
	}
	return &Lambda{client: client, functionName: functionName}
}

func newLambdaWithAPI(client lambdaAPI, functionName string) *Lambda {
	return &Lambda{client: client, functionName: functionName}
}

// lambdaEnvelope is the API-Gateway-style wrapper the sandbox responds with.
type lambdaEnvelope struct {
	StatusCode *int   `json:"statusCode"`
	Body       string `json:"body"`
}

func (l *Lambda) Execute(ctx context.Context, req ExecRequest) (*ExecResult, error) {
	if req.FunctionName == "" {
		req.FunctionName = "solution"
	}
	payload, err := json.Marshal(map[string]any{
		"code":         req.Code,
		"language":     req.Language,
		"testCases":    req.TestCases,
		"functionName": req.FunctionName,
	})
	if err != nil {
		return nil, fmt.Errorf("encode executor payload: %w", err)
	}

	out, err := l.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(l.functionName),
		Payload:      payload,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", l.functionName, err)
	}
	if out.FunctionError != nil {
		return nil, fmt.Errorf("invoke %s: function error: %s", l.functionName, aws.ToString(out.FunctionError))
	}

	var envelope lambdaEnvelope
	if err := json.Unmarshal(out.Payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode executor response: %w", err)
	}
	if envelope.StatusCode == nil {
		return nil, fmt.Errorf("unexpected executor response format")
	}
	if *envelope.StatusCode != 200 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal([]byte(envelope.Body), &errBody)
		if errBody.Error == "" {
			errBody.Error = "unknown error"
		}
		return nil, fmt.Errorf("executor error: %s", errBody.Error)
	}

	var result ExecResult
	if err := json.Unmarshal([]byte(envelope.Body), &result); err != nil {
		return nil, fmt.Errorf("decode executor result: %w", err)
	}
	return &result, nil
}
