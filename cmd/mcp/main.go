package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/namiferry/ferrybot/internal/domain"
	"github.com/namiferry/ferrybot/internal/logging"
)

// JSON-RPC structures
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCP structures
type InitializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

type ToolsListResult struct {
	Tools []Tool `json:"tools"`
}

type ToolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type ToolCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func roleCodes() []string {
	codes := make([]string, 0, len(domain.Roles))
	for _, r := range domain.Roles {
		codes = append(codes, string(r))
	}
	return codes
}

var noArgs = InputSchema{Type: "object", Properties: map[string]Property{}}

var tools = []Tool{
	{
		Name:        "ferrybot_dashboard",
		Description: "운항 현황 통계: 전체 선박 수, 운항중 선박, 오늘 운항 횟수, 총 승선 인원.",
		InputSchema: noArgs,
	},
	{
		Name:        "ferrybot_operating",
		Description: "현재 운항중인 선박(출항했지만 입항하지 않은 운항일지) 목록.",
		InputSchema: noArgs,
	},
	{
		Name:        "ferrybot_list_logs",
		Description: "운항일지 목록. 선장/선박 이름 검색, 선박, 날짜로 필터링할 수 있습니다.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"search": {Type: "string", Description: "선장 또는 선박 이름 일부"},
				"ship":   {Type: "string", Description: "선박 이름"},
				"date":   {Type: "string", Description: "출항일 YYYY-MM-DD"},
			},
		},
	},
	{
		Name:        "ferrybot_daily_report",
		Description: "하루 운항 보고서. 날짜를 생략하면 오늘.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"date": {Type: "string", Description: "보고 날짜 YYYY-MM-DD"},
			},
		},
	},
	{
		Name:        "ferrybot_list_members",
		Description: "직원 명단. 이름 또는 직책으로 검색.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"search": {Type: "string", Description: "이름 또는 직책"},
				"role":   {Type: "string", Description: "직책", Enum: roleCodes()},
			},
		},
	},
	{
		Name:        "ferrybot_list_ships",
		Description: "보유 선박과 정원 목록.",
		InputSchema: noArgs,
	},
	{
		Name:        "ferrybot_switch_user",
		Description: "콘솔 사용자를 전환합니다. 이후 호출은 해당 직원의 권한으로 실행됩니다.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"user_id": {Type: "string", Description: "직원 ID (예: u1)"},
			},
			Required: []string{"user_id"},
		},
	},
	{
		Name:        "ferrybot_broadcast",
		Description: "선택된 텔레그램 수신자에게 메시지를 전송합니다.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"text": {Type: "string", Description: "보낼 메시지"},
			},
			Required: []string{"text"},
		},
	},
}

// MCP Server
type MCPServer struct {
	apiURL      string
	apiUsername string
	apiPassword string
	client      *http.Client
	log         *zap.Logger
}

func NewMCPServer(log *zap.Logger) *MCPServer {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("FERRYBOT_API_URL", "http://localhost:8080")
	_ = v.BindEnv("FERRYBOT_API_USERNAME")
	_ = v.BindEnv("FERRYBOT_API_PASSWORD")

	return &MCPServer{
		apiURL:      strings.TrimSuffix(v.GetString("FERRYBOT_API_URL"), "/"),
		apiUsername: v.GetString("FERRYBOT_API_USERNAME"),
		apiPassword: v.GetString("FERRYBOT_API_PASSWORD"),
		client:      &http.Client{Timeout: 30 * time.Second},
		log:         log,
	}
}

func (s *MCPServer) Run(in io.Reader, out io.Writer) {
	reader := bufio.NewReader(in)

	for {
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
			if err != io.EOF {
				s.log.Error("Error reading", zap.Error(err))
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var req JSONRPCRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			s.log.Warn("Error parsing JSON", zap.Error(err))
			continue
		}

		// Notifications carry no id and get no reply
		if req.ID == nil && strings.HasPrefix(req.Method, "notifications/") {
			continue
		}

		response := s.handleRequest(req)
		responseBytes, _ := json.Marshal(response)
		fmt.Fprintln(out, string(responseBytes))
	}
}

func (s *MCPServer) handleRequest(req JSONRPCRequest) JSONRPCResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "initialized":
		return JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: nil}
	case "tools/list":
		return JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: ToolsListResult{Tools: tools}}
	case "tools/call":
		return s.handleToolsCall(req)
	default:
		return JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: -32601, Message: "Method not found"},
		}
	}
}

func (s *MCPServer) handleInitialize(req JSONRPCRequest) JSONRPCResponse {
	result := InitializeResult{
		ProtocolVersion: "2024-11-05",
		Capabilities: map[string]interface{}{
			"tools": map[string]interface{}{},
		},
	}
	result.ServerInfo.Name = "ferrybot-mcp"
	result.ServerInfo.Version = "1.0.0"

	return JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func (s *MCPServer) handleToolsCall(req JSONRPCRequest) JSONRPCResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: -32602, Message: "Invalid params"},
		}
	}

	var result string
	var isError bool

	switch params.Name {
	case "ferrybot_dashboard":
		result, isError = s.apiGet("/api/dashboard", nil)
	case "ferrybot_operating":
		result, isError = s.apiGet("/api/logs/operating", nil)
	case "ferrybot_list_logs":
		result, isError = s.apiGet("/api/logs", query(params.Arguments, "search", "ship", "date"))
	case "ferrybot_daily_report":
		result, isError = s.apiGet("/api/logs/report", query(params.Arguments, "date"))
	case "ferrybot_list_members":
		result, isError = s.apiGet("/api/members", query(params.Arguments, "search", "role"))
	case "ferrybot_list_ships":
		result, isError = s.apiGet("/api/ships", nil)
	case "ferrybot_switch_user":
		userID := argString(params.Arguments, "user_id")
		if userID == "" {
			result, isError = "user_id is required", true
			break
		}
		result, isError = s.apiPost("/api/session/switch/"+url.PathEscape(userID), nil)
	case "ferrybot_broadcast":
		result, isError = s.apiPost("/api/telegram/broadcast", map[string]string{"text": argString(params.Arguments, "text")})
	default:
		result = "Unknown tool: " + params.Name
		isError = true
	}

	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: ToolCallResult{
			Content: []ContentBlock{{Type: "text", Text: result}},
			IsError: isError,
		},
	}
}

func argString(args map[string]interface{}, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

// query copies the named non-empty arguments into URL values
func query(args map[string]interface{}, keys ...string) url.Values {
	q := url.Values{}
	for _, k := range keys {
		if v := argString(args, k); v != "" {
			q.Set(k, v)
		}
	}
	return q
}

func (s *MCPServer) apiGet(path string, q url.Values) (string, bool) {
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return s.apiRequest("GET", path, nil)
}

func (s *MCPServer) apiPost(path string, body interface{}) (string, bool) {
	return s.apiRequest("POST", path, body)
}

func (s *MCPServer) apiRequest(method, path string, body interface{}) (string, bool) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.apiURL+path, reqBody)
	if err != nil {
		return fmt.Sprintf("Error creating request: %v", err), true
	}

	if s.apiUsername != "" {
		req.SetBasicAuth(s.apiUsername, s.apiPassword)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Error making request: %v", err), true
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error reading response: %v", err), true
	}

	var apiResp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}

	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return string(respBody), resp.StatusCode >= 400
	}

	if !apiResp.Success {
		return fmt.Sprintf("API Error: %s", apiResp.Error), true
	}

	var prettyData bytes.Buffer
	if err := json.Indent(&prettyData, apiResp.Data, "", "  "); err != nil {
		return string(apiResp.Data), false
	}

	return prettyData.String(), false
}

func main() {
	// stdout carries the protocol, so logs go to stderr
	log, err := logging.New("info", "json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	server := NewMCPServer(log)
	server.Run(os.Stdin, os.Stdout)
}
