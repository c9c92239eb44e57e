package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/healthdash/pkg/importer"
	"github.com/hazyhaar/healthdash/pkg/kit"
	"github.com/hazyhaar/healthdash/pkg/mapping"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers the healthdash MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, im *importer.Importer, logger *slog.Logger) {
	registerImportFile(srv, im, logger)
	registerApplyMapping(srv, im, logger)
	registerLoadDemo(srv, logger)
	registerListFormats(srv)
	registerDescribeSchema(srv)
}

func registerImportFile(srv *server.MCPServer, im *importer.Importer, logger *slog.Logger) {
	tool := mcp.NewTool("import_file",
		mcp.WithDescription("Parse a wearable export (CSV, JSON, TS/JS, YAML or XLSX) and check it against the daily health schema. Returns the records, or the fields and a suggested mapping when the file needs one."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name; the extension selects the format (e.g. export.csv)")),
		mcp.WithString("content", mcp.Description("File content as text")),
		mcp.WithString("content_base64", mcp.Description("File content, base64 encoded (binary formats such as .xlsx)")),
	)

	kit.RegisterMCPTool(srv, tool, wrap(logger, "import", importEndpoint(im)), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		name, _ := args["name"].(string)
		content, err := decodeContent(args)
		if err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &importReq{Name: name, Content: content}}, nil
	})
}

func registerApplyMapping(srv *server.MCPServer, im *importer.Importer, logger *slog.Logger) {
	tool := mcp.NewTool("apply_mapping",
		mcp.WithDescription("Apply a field mapping (canonical path -> source field) to a file and return the canonical records. Without a mapping the suggested one is used."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name; the extension selects the format")),
		mcp.WithString("content", mcp.Description("File content as text")),
		mcp.WithString("content_base64", mcp.Description("File content, base64 encoded")),
		mcp.WithObject("mapping", mcp.Description(`Canonical path to source field, e.g. {"sleep.score": "SleepScore"}`)),
	)

	kit.RegisterMCPTool(srv, tool, wrap(logger, "apply", applyEndpoint(im)), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		name, _ := args["name"].(string)
		content, err := decodeContent(args)
		if err != nil {
			return nil, err
		}
		m, err := decodeMapping(args["mapping"])
		if err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &applyReq{Name: name, Content: content, Mapping: m}}, nil
	})
}

func registerLoadDemo(srv *server.MCPServer, logger *slog.Logger) {
	tool := mcp.NewTool("load_demo",
		mcp.WithDescription("Return a sample dataset of canonical daily health records ending today, for trying the dashboard without a device export."),
		mcp.WithNumber("days", mcp.Description("Number of days, 1 to 366 (default 14)")),
	)

	kit.RegisterMCPTool(srv, tool, wrap(logger, "demo", demoEndpoint(time.Now)), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		days, _ := req.GetArguments()["days"].(float64)
		return &kit.MCPDecodeResult{Request: &demoReq{Days: int(days)}}, nil
	})
}

func registerListFormats(srv *server.MCPServer) {
	tool := mcp.NewTool("list_formats",
		mcp.WithDescription("List the supported input formats and their file extensions."),
	)

	kit.RegisterMCPTool(srv, tool, formatsEndpoint(), func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}

func registerDescribeSchema(srv *server.MCPServer) {
	tool := mcp.NewTool("describe_schema",
		mcp.WithDescription("List the 18 canonical field paths of a daily health record with display names and value kinds."),
	)

	kit.RegisterMCPTool(srv, tool, schemaEndpoint(), func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}

func decodeContent(args map[string]any) ([]byte, error) {
	if enc, _ := args["content_base64"].(string); enc != "" {
		data, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return nil, fmt.Errorf("content_base64: %w", err)
		}
		return data, nil
	}
	content, _ := args["content"].(string)
	return []byte(content), nil
}

// decodeMapping accepts an object or its JSON text. Values must be strings.
func decodeMapping(v any) (mapping.Mapping, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if t == "" {
			return nil, nil
		}
		var m mapping.Mapping
		if err := json.Unmarshal([]byte(t), &m); err != nil {
			return nil, fmt.Errorf("mapping: %w", err)
		}
		return m, nil
	case map[string]any:
		m := make(mapping.Mapping, len(t))
		for k, src := range t {
			s, ok := src.(string)
			if !ok {
				return nil, fmt.Errorf("mapping[%q] is %T, want string", k, src)
			}
			m[k] = s
		}
		return m, nil
	default:
		return nil, fmt.Errorf("mapping is %T, want object", v)
	}
}
