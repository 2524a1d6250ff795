package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/katz-eval/internal/dto"
	"github.com/noah-isme/katz-eval/internal/table"
	"github.com/noah-isme/katz-eval/pkg/ai"
)

type stubCompleter struct {
	calls   []string
	answers map[string]string
	err     error
}

func (s *stubCompleter) Model() string { return "stub-model" }

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (ai.Completion, error) {
	s.calls = append(s.calls, prompt)
	if s.err != nil {
		return ai.Completion{}, s.err
	}
	for marker, answer := range s.answers {
		if strings.Contains(prompt, marker) {
			return ai.Completion{Text: answer, Model: s.Model(), PromptTokens: 10, CompletionTokens: 3}, nil
		}
	}
	return ai.Completion{}, errors.New("model overloaded")
}

const promptsTable = `ID,prompt,values
1,"""Time is a thief""

a) time passes
b) time steals moments
The answer is ",[1 4 2 3]
2,"""Love is a journey""
The answer is ",[2 1 4 3]
3,,[1 2 3 4]
`

func newQueryService(completer ai.Completer, cache *redis.Client) QueryService {
	return NewQueryService(completer, cache, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop(), QueryConfig{CacheTTL: time.Hour, CacheSalt: "chat|0.20"})
}

func TestQueryServiceWritesResponses(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "prompts.csv", promptsTable)
	output := filepath.Join(dir, "results.csv")
	completer := &stubCompleter{answers: map[string]string{"thief": "b) time steals moments", "journey": "The answer is c"}}

	report, err := newQueryService(completer, nil).Run(context.Background(), dto.QueryRequest{InputPath: input, OutputPath: output})
	require.NoError(t, err)
	require.Equal(t, "stub-model", report.Model)
	require.Equal(t, 3, report.Rows)
	require.Equal(t, 2, report.Requested)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 0, report.Failures)
	require.Equal(t, 20, report.PromptTokens)
	require.Len(t, completer.calls, 2)

	results, err := table.Read(output)
	require.NoError(t, err)
	responses, err := results.Column("model_response")
	require.NoError(t, err)
	require.Equal(t, []string{"b) time steals moments", "The answer is c", ""}, responses)
	require.Equal(t, "[1 4 2 3]", results.Value(0, "values"))
}

func TestQueryServiceUsesCache(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	dir := t.TempDir()
	input := writeFile(t, dir, "prompts.csv", promptsTable)
	completer := &stubCompleter{answers: map[string]string{"thief": "b)", "journey": "a)"}}
	svc := newQueryService(completer, client)

	first, err := svc.Run(context.Background(), dto.QueryRequest{InputPath: input, OutputPath: filepath.Join(dir, "first.csv")})
	require.NoError(t, err)
	require.Equal(t, 2, first.Requested)
	require.Equal(t, 0, first.CacheHits)
	require.Len(t, server.Keys(), 2)

	second, err := svc.Run(context.Background(), dto.QueryRequest{InputPath: input, OutputPath: filepath.Join(dir, "second.csv")})
	require.NoError(t, err)
	require.Equal(t, 0, second.Requested)
	require.Equal(t, 2, second.CacheHits)
	require.Len(t, completer.calls, 2, "cached prompts must not reach the model")

	results, err := table.Read(filepath.Join(dir, "second.csv"))
	require.NoError(t, err)
	require.Equal(t, "b)", results.Value(0, "model_response"))
	require.Equal(t, "a)", results.Value(1, "model_response"))
}

func TestQueryServiceRecordsFailuresAsMissing(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "prompts.csv", promptsTable)
	output := filepath.Join(dir, "results.csv")
	completer := &stubCompleter{answers: map[string]string{"thief": "b)"}}

	report, err := newQueryService(completer, nil).Run(context.Background(), dto.QueryRequest{InputPath: input, OutputPath: output})
	require.NoError(t, err)
	require.Equal(t, 1, report.Failures)

	results, err := table.Read(output)
	require.NoError(t, err)
	require.Equal(t, "", results.Value(1, "model_response"))
}

func TestQueryServiceHonoursLimitAndExistingResponses(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "results.csv", "prompt,model_response\nfirst thief,done already\nsecond thief,\nthird thief,\n")
	completer := &stubCompleter{answers: map[string]string{"thief": "c)"}}

	report, err := newQueryService(completer, nil).Run(context.Background(), dto.QueryRequest{InputPath: input, OutputPath: filepath.Join(dir, "out.csv"), Limit: 1})
	require.NoError(t, err)
	require.Equal(t, 1, report.Requested)
	require.Equal(t, 2, report.Skipped)
	require.Equal(t, []string{"second thief"}, completer.calls)

	results, err := table.Read(filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	responses, err := results.Column("model_response")
	require.NoError(t, err)
	require.Equal(t, []string{"done already", "c)", ""}, responses)
}

func TestQueryServiceAbortsOnCancellation(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "prompts.csv", promptsTable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	completer := &stubCompleter{err: context.Canceled}

	_, err := newQueryService(completer, nil).Run(ctx, dto.QueryRequest{InputPath: input, OutputPath: filepath.Join(dir, "out.csv")})
	require.ErrorIs(t, err, context.Canceled)
}

func TestQueryServiceRequiresCompleter(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "prompts.csv", promptsTable)

	_, err := newQueryService(nil, nil).Run(context.Background(), dto.QueryRequest{InputPath: input, OutputPath: filepath.Join(dir, "out.csv")})
	require.ErrorIs(t, err, ErrCompleterUnavailable)
}
