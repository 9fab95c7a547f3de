// Package resources implements MCP resource handlers.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (docsight://...) following
// MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/docsight/internal/dbcap"
	"github.com/HendryAvila/docsight/internal/preview"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler manages docsight resource endpoints.
type Handler struct {
	cap dbcap.Capability
	reg *preview.Registry
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(cap dbcap.Capability, reg *preview.Registry) *Handler {
	return &Handler{cap: cap, reg: reg}
}

// StatusResource returns the MCP resource definition for deployment
// status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"docsight://deployment/status",
		"Deployment Status",
		mcp.WithResourceDescription("Connection state, deployment URL, access level and active preview sessions"),
		mcp.WithMIMEType("application/json"),
	)
}

// statusPayload is the serialized resource body.
type statusPayload struct {
	Connected     bool   `json:"connected"`
	AdminAccess   bool   `json:"adminAccess"`
	DeploymentURL string `json:"deploymentUrl,omitempty"`
	PreviewPorts  []int  `json:"previewPorts"`
}

// HandleStatus returns the current deployment status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	payload := statusPayload{PreviewPorts: h.reg.ActivePorts()}
	if h.cap != nil {
		payload.Connected = h.cap.IsConnected(ctx)
		payload.DeploymentURL = h.cap.GetDeploymentURL()
		if payload.Connected {
			payload.AdminAccess = h.cap.HasAdminAccess(ctx)
		}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
