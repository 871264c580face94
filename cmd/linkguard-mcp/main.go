package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// checkRequest mirrors the Linkguard API request model.
type checkRequest struct {
	OriginURI      string `json:"origin_uri"`
	LinkOrder      string `json:"link_order,omitempty"`
	LinkLimit      int    `json:"link_limit,omitempty"`
	MaxRetries     int    `json:"max_retries,omitempty"`
	TotalTimeoutMs int    `json:"total_timeout_ms,omitempty"`
	Screenshot     string `json:"screenshot,omitempty"`
}

// checkResponse mirrors the Linkguard API response model.
type checkResponse struct {
	Success bool            `json:"success"`
	Report  json.RawMessage `json:"report"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("LINKGUARD_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("LINKGUARD_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "LINKGUARD_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"linkguard",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	checkLinksTool := mcp.NewTool("check_links",
		mcp.WithDescription("Verify that hyperlinks reachable from an origin page return their expected HTTP status, within a total time budget. Returns an aggregate report with pass/fail verdicts and status-class counts."),
		mcp.WithString("origin_uri",
			mcp.Required(),
			mcp.Description("The starting page whose links are verified"),
		),
		mcp.WithString("link_order",
			mcp.Description("Link sampling order: 'first_n' (default, discovery order) or 'random' (uniform sample)"),
			mcp.Enum("first_n", "random"),
		),
		mcp.WithNumber("link_limit",
			mcp.Description("Total number of links checked, origin included (default: 10)"),
		),
		mcp.WithNumber("max_retries",
			mcp.Description("Extra fetch attempts per link after a failed one (default: 0)"),
		),
		mcp.WithNumber("total_timeout_ms",
			mcp.Description("Global budget for the whole run in milliseconds (default: 60000)"),
		),
	)
	s.AddTool(checkLinksTool, handleCheckLinks(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleCheckLinks(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 180 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		originURI, err := request.RequireString("origin_uri")
		if err != nil {
			return mcp.NewToolResultError("origin_uri is required"), nil
		}

		reqBody := checkRequest{
			OriginURI:      originURI,
			LinkOrder:      request.GetString("link_order", ""),
			LinkLimit:      request.GetInt("link_limit", 0),
			MaxRetries:     request.GetInt("max_retries", 0),
			TotalTimeoutMs: request.GetInt("total_timeout_ms", 0),
			// Screenshots are server-side artifacts; they add nothing
			// over the report in a tool response.
			Screenshot: "none",
		}

		body, err := json.Marshal(reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/api/v1/check", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("X-API-Key", apiKey)

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var checkResp checkResponse
		if err := json.Unmarshal(respBody, &checkResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !checkResp.Success {
			errMsg := "check failed"
			if checkResp.Error != nil {
				errMsg = fmt.Sprintf("%s: %s", checkResp.Error.Code, checkResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(string(checkResp.Report)), nil
	}
}
