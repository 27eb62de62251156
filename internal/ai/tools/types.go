package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ezhov-dev/zapguard/internal/ai"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/service"
)

const (
	ToolCurrentTime = "current_time"
	ToolCalculate   = "calculate"
	ToolSearch      = "search"
)

type Tools struct {
	search *service.DuckDuckGoSearch
	logger logger.Logger
}

func NewTools(search *service.DuckDuckGoSearch, logger logger.Logger) *Tools {
	return &Tools{
		search: search,
		logger: logger,
	}
}

// Execute runs a single tool call. Unknown tools and tool failures produce a
// structured error payload instead of an error return, so the model can see
// what went wrong and still finish its answer.
func (t *Tools) Execute(ctx context.Context, call ai.ToolCall) string {
	args, err := call.Function.GetArguments()
	if err != nil {
		return errorPayload(fmt.Sprintf("invalid arguments: %v", err))
	}

	t.logger.WithFields(logger.Fields{
		"tool": call.Function.Name,
		"args": call.Function.Arguments,
	}).Debug("Executing tool call")

	switch call.Function.Name {
	case ToolCurrentTime:
		result, err := t.CurrentTime(stringArg(args, "timezone"))
		if err != nil {
			return errorPayload(err.Error())
		}
		return result
	case ToolCalculate:
		result, err := t.Calculate(stringArg(args, "expression"))
		if err != nil {
			return errorPayload(err.Error())
		}
		return result
	case ToolSearch:
		result, err := t.Search(ctx, stringArg(args, "query"), intArg(args, "max_results"), stringArg(args, "time_limit"))
		if err != nil {
			return errorPayload(err.Error())
		}
		return result
	default:
		return errorPayload("unknown tool: " + call.Function.Name)
	}
}

func errorPayload(message string) string {
	data, _ := json.Marshal(map[string]string{"error": message})
	return string(data)
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func AvailableTools(excludedTools []string) map[string]ai.Tool {
	result := make(map[string]ai.Tool)
	if len(excludedTools) > 0 {
		for name, tool := range AllTools {
			if !slices.Contains(excludedTools, name) {
				result[name] = tool
			}
		}
		return result
	}
	maps.Copy(result, AllTools)
	return result
}

func ToolList(excludedTools []string) []ai.Tool {
	available := AvailableTools(excludedTools)
	names := make([]string, 0, len(available))
	for name := range available {
		names = append(names, name)
	}
	slices.Sort(names)
	list := make([]ai.Tool, 0, len(names))
	for _, name := range names {
		list = append(list, available[name])
	}
	return list
}

func AvailableToolsText(excludedTools []string) string {
	var sb strings.Builder
	for _, tool := range ToolList(excludedTools) {
		sb.WriteString(fmt.Sprintf("• %s: %s\n", tool.Function.Name, tool.Function.Description))
	}
	return sb.String()
}

var AllTools = map[string]ai.Tool{
	ToolCurrentTime: {
		Type: "function",
		Function: ai.ToolFunction{
			Name:        ToolCurrentTime,
			Description: "Get the current date and time. Use when the answer depends on today's date or the time of day.",
			Parameters: ai.Parameters{
				Type: "object",
				Properties: map[string]ai.Property{
					"timezone": {Type: "string", Description: "IANA timezone name (e.g. `Europe/Berlin`). Defaults to UTC."},
				},
			},
		},
	},
	ToolCalculate: {
		Type: "function",
		Function: ai.ToolFunction{
			Name:        ToolCalculate,
			Description: "Evaluate an arithmetic expression. Supports + - * / % ^ and parentheses.",
			Parameters: ai.Parameters{
				Type: "object",
				Properties: map[string]ai.Property{
					"expression": {Type: "string", Description: "Expression to evaluate, e.g. `(2+3)*4^2`"},
				},
				Required: []string{"expression"},
			},
		},
	},
	ToolSearch: {
		Type: "function",
		Function: ai.ToolFunction{
			Name:        ToolSearch,
			Description: "Search with duckduckgo, use when need more relevant information.",
			Parameters: ai.Parameters{
				Type: "object",
				Properties: map[string]ai.Property{
					"query":       {Type: "string", Description: "Search query"},
					"max_results": {Type: "integer", Description: "Max search results. Min: 3, max: 10"},
					"time_limit":  {Type: "string", Enum: []string{"", "d", "w", "m", "y"}, Description: "Time range for search results: 'd' (last 24h), 'w' (last week), 'm' (last month), 'y' (last year). Leave empty for all time."},
				},
				Required: []string{"query"},
			},
		},
	},
}
