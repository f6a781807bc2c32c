package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/maintbot/internal/commands"
	"github.com/rahul/maintbot/internal/observability"
	"github.com/rahul/maintbot/internal/schedule"
)

var ErrNotUnderstood = errors.New("message not understood")

const defaultInterpreterPrompt = `You turn messages from a maintenance crew into exactly one tool call.
Frequencies are monthly, bi_annual (every six months) and annual.
Dates are YYYY-MM-DD. Today is %s.
If the message is not about equipment maintenance, answer without calling a tool.`

// Interpreter maps free-form chat text onto a command through tool calling.
type Interpreter struct {
	Model    llms.Model
	Commands *commands.Registry
	Prompts  *PromptManager
	Logger   *observability.Logger
	now      func() time.Time
}

func NewInterpreter(model llms.Model, registry *commands.Registry, prompts *PromptManager, logger *observability.Logger) *Interpreter {
	return &Interpreter{
		Model:    model,
		Commands: registry,
		Prompts:  prompts,
		Logger:   logger,
		now:      time.Now,
	}
}

type toolArguments struct {
	EquipmentName string `json:"equipment_name"`
	SerialNumber  string `json:"serial_number"`
	Frequency     string `json:"frequency"`
	Date          string `json:"date"`
	Filter        string `json:"filter"`
}

func (in *Interpreter) Interpret(ctx context.Context, msg Message) (commands.Request, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(in.systemPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(msg.Text)},
		},
	}

	var llmTools []llms.Tool
	for _, c := range in.Commands.List() {
		llmTools = append(llmTools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        string(c.Name()),
				Description: c.Description(),
				Parameters:  c.Parameters(),
			},
		})
	}

	resp, err := in.Model.GenerateContent(ctx, messages, llms.WithTools(llmTools))
	if err != nil {
		return commands.Request{}, fmt.Errorf("llm call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return commands.Request{}, ErrNotUnderstood
	}
	choice := resp.Choices[0]
	if in.Logger != nil {
		in.Logger.LogLLM(msg.ChatID, msg.Text, choice.Content, choice.ToolCalls)
	}
	if len(choice.ToolCalls) == 0 || choice.ToolCalls[0].FunctionCall == nil {
		return commands.Request{}, ErrNotUnderstood
	}

	call := choice.ToolCalls[0].FunctionCall
	kind := commands.Kind(call.Name)
	if in.Commands.Get(kind) == nil {
		return commands.Request{}, fmt.Errorf("%w: unknown tool %q", ErrNotUnderstood, call.Name)
	}

	var args toolArguments
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return commands.Request{}, fmt.Errorf("%w: bad tool arguments: %v", ErrNotUnderstood, err)
		}
	}

	req := commands.Request{
		Kind:          kind,
		EquipmentName: strings.TrimSpace(args.EquipmentName),
		SerialNumber:  strings.TrimSpace(args.SerialNumber),
		Date:          strings.TrimSpace(args.Date),
		Filter:        strings.TrimSpace(args.Filter),
	}
	if kind == commands.KindUpdate {
		freq, err := schedule.ParseFrequency(args.Frequency)
		if err != nil {
			return commands.Request{}, fmt.Errorf("%w: %v", ErrNotUnderstood, err)
		}
		req.Frequency = freq
		if req.EquipmentName == "" && req.SerialNumber == "" {
			return commands.Request{}, fmt.Errorf("%w: no equipment named", ErrNotUnderstood)
		}
	}
	log.WithFields(log.Fields{"chat_id": msg.ChatID, "command": kind}).Debug("interpreted free text")
	return req, nil
}

func (in *Interpreter) systemPrompt() string {
	today := in.now().Format(schedule.DateLayout)
	if in.Prompts != nil {
		prompt, err := in.Prompts.GetInterpreterPrompt()
		if err == nil {
			return prompt + "\n\nToday is " + today + "."
		}
		log.WithError(err).Debug("using built-in interpreter prompt")
	}
	return fmt.Sprintf(defaultInterpreterPrompt, today)
}
