// Package session drives the turn loop: one Step sends the full
// conversation to the model, executes at most one tool call through the
// engine, and appends the tool result as the next user turn. The loop
// is driven externally one step at a time so callers can inspect state
// between steps.
package session

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/petasbytes/frame-agent/catalog"
	"github.com/petasbytes/frame-agent/internal/config"
	"github.com/petasbytes/frame-agent/internal/convo"
	"github.com/petasbytes/frame-agent/internal/engine"
	"github.com/petasbytes/frame-agent/internal/provider"
	"github.com/petasbytes/frame-agent/internal/render"
	"github.com/petasbytes/frame-agent/internal/telemetry"
	"github.com/petasbytes/frame-agent/replay"
)

// Session owns one conversation and its engine. Not safe for
// concurrent use; concurrent sessions must not share an engine or
// render context.
type Session struct {
	client *anthropic.Client
	model  anthropic.Model
	cfg    config.Config
	engine *engine.Engine
	log    *zap.Logger

	id       string
	conv     []anthropic.MessageParam
	steps    []replay.Record
	toolCall bool
}

// New initialises a session: the initial dataset becomes the stack's
// sole element, the register starts empty, and the opening user turn
// carries the request plus the first snapshot.
func New(client *anthropic.Client, cfg config.Config, log *zap.Logger, request string, initial dataframe.DataFrame) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	model := provider.DefaultModel
	if cfg.Model != "" {
		model = anthropic.Model(cfg.Model)
	}
	s := &Session{
		client: client,
		model:  model,
		cfg:    cfg,
		engine: engine.New(initial, render.New(), engine.Options{
			MaxStackDepth: cfg.MaxStackDepth,
			MaxReprRows:   cfg.SnapshotRows,
		}),
		log:      log,
		id:       uuid.NewString(),
		toolCall: true,
	}
	s.conv = append(s.conv, anthropic.NewUserMessage(
		anthropic.NewTextBlock(convo.InitialMessage(request, s.snapshot()))))
	telemetry.Emit("session_init", map[string]any{
		"session_id": s.id,
		"model":      string(model),
	})
	return s
}

// Done reports whether the model has stopped calling tools.
func (s *Session) Done() bool { return !s.toolCall }

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Engine exposes the session's engine for inspection between steps.
func (s *Session) Engine() *engine.Engine { return s.engine }

// Steps returns a copy of the step records so far.
func (s *Session) Steps() []replay.Record {
	out := make([]replay.Record, len(s.steps))
	copy(out, s.steps)
	return out
}

// Messages returns a copy of the conversation history.
func (s *Session) Messages() []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, len(s.conv))
	copy(out, s.conv)
	return out
}

func (s *Session) snapshot() string {
	reg, ok := s.engine.Register()
	return convo.Snapshot(s.engine.Stack(), reg, ok, s.cfg.SnapshotRows)
}

func (s *Session) anthropicTools() []anthropic.ToolUnionParam {
	defs := catalog.Registry()
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, t := range defs {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: t.InputSchema,
		}})
	}
	return out
}

// Step performs one turn: model call, optional tool execution, history
// update. It returns done=true when the model answered without a tool
// call (or the session was already done). Model call failures propagate
// to the caller; tool execution failures never do — they become error
// tool results inside the turn.
func (s *Session) Step(ctx context.Context) (bool, error) {
	if !s.toolCall {
		return true, nil
	}

	stepID := uuid.NewString()
	ctx = telemetry.WithStepID(ctx, stepID)

	params := anthropic.MessageNewParams{
		Model:       s.model,
		MaxTokens:   int64(s.cfg.MaxTokens),
		Temperature: anthropic.Float(0),
		System:      []anthropic.TextBlockParam{{Text: convo.SystemPrompt}},
		Messages:    s.conv,
		Tools:       s.anthropicTools(),
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfAuto: &anthropic.ToolChoiceAutoParam{
				DisableParallelToolUse: anthropic.Bool(true),
			},
		},
	}
	msg, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return false, err
	}
	telemetry.Emit("model_call", map[string]any{
		"step_id":     stepID,
		"session_id":  s.id,
		"model":       string(s.model),
		"stop_reason": string(msg.StopReason),
	})
	s.conv = append(s.conv, msg.ToParam())

	type toolUse struct {
		id    string
		name  string
		input json.RawMessage
	}
	var stepTexts []string
	var uses []toolUse
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			s.log.Info("assistant", zap.String("text", v.Text))
			stepTexts = append(stepTexts, v.Text)
		case anthropic.ToolUseBlock:
			uses = append(uses, toolUse{id: v.ID, name: v.Name, input: json.RawMessage(v.JSON.Input.Raw())})
		}
	}

	if len(uses) == 0 {
		s.toolCall = false
		return true, nil
	}

	// Parallel tool use is disabled in the request. Should the API send
	// extra tool_use blocks anyway, execute only the first and answer
	// the rest with error results so each still gets its tool_result.
	use := uses[0]
	s.log.Info("tool call", zap.String("tool", use.name), zap.ByteString("input", use.input))
	stepTexts = append(stepTexts, use.name+": "+string(use.input))

	start := time.Now()
	res := s.engine.Execute(engine.Call{Name: use.name, Input: use.input})
	telemetry.Emit("tool_exec", map[string]any{
		"step_id":     stepID,
		"tool_name":   use.name,
		"duration_ms": time.Since(start).Milliseconds(),
		"input_size":  len(use.input),
		"output_size": len(res.Text),
		"is_error":    res.IsError,
	})
	if res.IsError {
		s.log.Warn("tool error", zap.String("tool", use.name), zap.String("text", res.Text))
	}
	stepTexts = append(stepTexts, res.Text)

	text := convo.ToolResultText(res.Text, s.snapshot())
	results := []anthropic.ContentBlockParamUnion{toolResultBlock(use.id, text, res.Image, res.IsError)}
	for _, extra := range uses[1:] {
		results = append(results, anthropic.NewToolResultBlock(
			extra.id, "parallel tool use is not supported; issue one call per turn", true))
	}
	s.conv = append(s.conv, anthropic.NewUserMessage(results...))

	s.steps = append(s.steps, replay.Record{
		ID:    stepID,
		Tool:  use.name,
		Input: use.input,
		Text:  strings.Join(stepTexts, "\n\n"),
		Image: res.Image,
		Time:  time.Now().UTC(),
	})
	telemetry.EmitStepFeatures(ctx, text)
	return false, nil
}

// toolResultBlock builds the tool_result content: the image block (when
// a chart was captured) precedes the text block.
func toolResultBlock(id, text, image string, isErr bool) anthropic.ContentBlockParamUnion {
	if image == "" {
		return anthropic.NewToolResultBlock(id, text, isErr)
	}
	return anthropic.ContentBlockParamUnion{
		OfToolResult: &anthropic.ToolResultBlockParam{
			ToolUseID: id,
			IsError:   anthropic.Bool(isErr),
			Content: []anthropic.ToolResultBlockParamContentUnion{
				{OfImage: &anthropic.ImageBlockParam{
					Source: anthropic.ImageBlockParamSourceUnion{
						OfBase64: &anthropic.Base64ImageSourceParam{
							Data:      image,
							MediaType: anthropic.Base64ImageSourceMediaTypeImagePNG,
						},
					},
				}},
				{OfText: &anthropic.TextBlockParam{Text: text}},
			},
		},
	}
}
