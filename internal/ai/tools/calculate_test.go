package tools

import (
	"context"
	"testing"

	"github.com/ezhov-dev/zapguard/internal/ai"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	tools := &Tools{}

	tests := []struct {
		expression string
		expected   string
	}{
		{"2+2", "4"},
		{"2 + 3 * 4", "14"},
		{"(2+3)*4", "20"},
		{"2^10", "1024"},
		{"2^2^3", "256"},
		{"-5 + 3", "-2"},
		{"10 % 3", "1"},
		{"7 / 2", "3.5"},
		{"1.5 * 2", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			result, err := tools.Calculate(tt.expression)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCalculateErrors(t *testing.T) {
	tools := &Tools{}

	tests := []string{
		"",
		"2+",
		"(2+3",
		"1/0",
		"5 %% 2",
		"abc",
	}

	for _, expression := range tests {
		t.Run(expression, func(t *testing.T) {
			_, err := tools.Calculate(expression)
			assert.Error(t, err)
		})
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	tools := NewTools(nil, logger.NewTestLogger())

	result := tools.Execute(context.Background(), ai.ToolCall{
		Function: ai.FunctionCall{Name: "launch_rocket", Arguments: "{}"},
	})

	assert.JSONEq(t, `{"error":"unknown tool: launch_rocket"}`, result)
}

func TestExecuteCalculate(t *testing.T) {
	tools := NewTools(nil, logger.NewTestLogger())

	result := tools.Execute(context.Background(), ai.ToolCall{
		Function: ai.FunctionCall{Name: ToolCalculate, Arguments: `{"expression":"6*7"}`},
	})

	assert.Equal(t, "42", result)
}
