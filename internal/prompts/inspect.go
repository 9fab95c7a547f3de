// Package prompts implements MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// InspectPrompt handles the docsight-inspect MCP prompt. It guides the
// AI through a full deployment health pass: status, schema drift, and
// write activity.
type InspectPrompt struct{}

// NewInspectPrompt creates an InspectPrompt.
func NewInspectPrompt() *InspectPrompt {
	return &InspectPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *InspectPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("docsight-inspect",
		mcp.WithPromptDescription(
			"Run a full deployment inspection: connection status, schema drift, "+
				"and recent write activity, with interactive previews.",
		),
		mcp.WithArgument("focus",
			mcp.ArgumentDescription(
				"Optional focus: 'schema' (drift only), 'writes' (heatmap only), or 'all'. Default: all",
			),
		),
	)
}

// Handle processes the docsight-inspect prompt request.
func (p *InspectPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	focus := "all"
	if args := req.Params.Arguments; args != nil {
		if f, ok := args["focus"]; ok && f != "" {
			focus = f
		}
	}

	var steps string
	switch focus {
	case "schema":
		steps = "1. Run `docsight_status` to confirm the connection\n" +
			"2. Run `docsight_schema` and walk me through every drifted table\n" +
			"3. For each type mismatch, tell me which side looks wrong"
	case "writes":
		steps = "1. Run `docsight_status` to confirm the connection\n" +
			"2. Run `docsight_heatmap` with the default window\n" +
			"3. Point out the hottest tables and anything that looks anomalous"
	default:
		steps = "1. Run `docsight_status` to confirm the connection\n" +
			"2. Run `docsight_schema` and summarize any drift\n" +
			"3. Run `docsight_heatmap` and summarize write activity\n" +
			"4. Finish with a short health verdict and suggested follow-ups"
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Inspect deployment (focus: %s)", focus),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please inspect my document database deployment with docsight.\n\n" + steps,
				),
			},
		},
	}, nil
}
