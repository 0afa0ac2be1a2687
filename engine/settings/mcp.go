package settings

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/google/shlex"
	"github.com/invopop/jsonschema"
)

type MCPTransport string

const (
	MCPStdio          MCPTransport = "stdio"
	MCPSSE            MCPTransport = "sse"
	MCPStreamableHTTP MCPTransport = "streamable-http"
	MCPWebsocket      MCPTransport = "websocket"
)

const (
	DefaultMCPTimeout     = 30000
	DefaultMCPInitTimeout = 10000
)

type MCPServer struct {
	Name               string            `json:"name"                         validate:"required,max=64"`
	Type               MCPTransport      `json:"type"                         validate:"oneof=stdio sse streamable-http websocket"`
	Command            string            `json:"command"`
	Args               []string          `json:"args,omitempty"`
	URL                string            `json:"url"                          validate:"omitempty,url"`
	Env                map[string]string `json:"env,omitempty"                                                                      sensitive:"true"`
	Headers            map[string]string `json:"headers,omitempty"                                                                  sensitive:"true"`
	Timeout            int               `json:"timeout"                      validate:"min=1000,max=600000"`
	InitTimeout        int               `json:"initTimeout"                  validate:"min=1000,max=600000"`
	IconPath           string            `json:"iconPath"`
	ChatMenu           bool              `json:"chatMenu"`
	ServerInstructions string            `json:"serverInstructions"           validate:"max=4000"`
}

func DefaultMCPServer() MCPServer {
	return MCPServer{
		Type:        MCPStdio,
		Timeout:     DefaultMCPTimeout,
		InitTimeout: DefaultMCPInitTimeout,
		ChatMenu:    true,
	}
}

// entryDefaults leaves the transport empty so normalize can infer it.
func entryDefaults() MCPServer {
	s := DefaultMCPServer()
	s.Type = ""
	return s
}

// normalize fills the transport from the populated fields and splits a
// single-string command line into command and arguments.
func (s *MCPServer) normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Command = strings.TrimSpace(s.Command)
	if s.Type == "" {
		if s.Command == "" && s.URL != "" {
			s.Type = MCPStreamableHTTP
		} else {
			s.Type = MCPStdio
		}
	}
	if len(s.Args) == 0 && strings.ContainsAny(s.Command, " \t") {
		if parts, err := shlex.Split(s.Command); err == nil && len(parts) > 0 {
			s.Command = parts[0]
			s.Args = parts[1:]
		}
	}
}

// CommandLine renders command and arguments as one shell-quoted string.
func (s MCPServer) CommandLine() string {
	parts := make([]string, 0, len(s.Args)+1)
	if s.Command != "" {
		parts = append(parts, quoteArg(s.Command))
	}
	for _, a := range s.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(a string) string {
	if a != "" && !strings.ContainsAny(a, " \t\"'\\") {
		return a
	}
	return "'" + strings.ReplaceAll(a, "'", `'"'"'`) + "'"
}

// MCPServers keeps MCP server entries in a stable order. It accepts either a
// list of entries or a map keyed by server name and always emits a list.
type MCPServers struct {
	Servers []MCPServer `json:"-" validate:"dive"`
}

func NewMCPServers(servers ...MCPServer) MCPServers {
	return MCPServers{Servers: servers}
}

func (m MCPServers) Len() int { return len(m.Servers) }

func (m MCPServers) Names() []string {
	names := make([]string, 0, len(m.Servers))
	for _, s := range m.Servers {
		names = append(names, s.Name)
	}
	return names
}

func (m MCPServers) Get(name string) (MCPServer, bool) {
	i := slices.IndexFunc(m.Servers, func(s MCPServer) bool { return s.Name == name })
	if i < 0 {
		return MCPServer{}, false
	}
	return m.Servers[i], true
}

// ToMap returns the name-keyed form. Later duplicates win.
func (m MCPServers) ToMap() map[string]MCPServer {
	out := make(map[string]MCPServer, len(m.Servers))
	for _, s := range m.Servers {
		out[s.Name] = s
	}
	return out
}

// MCPServersFromMap builds the ordered form from a name-keyed map, sorted by name.
func MCPServersFromMap(in map[string]MCPServer) MCPServers {
	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]MCPServer, 0, len(names))
	for _, name := range names {
		s := in[name]
		s.Name = name
		out = append(out, s)
	}
	return MCPServers{Servers: out}
}

func (m MCPServers) MarshalJSON() ([]byte, error) {
	if m.Servers == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m.Servers)
}

func (m *MCPServers) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := parseMCPServers(raw, func(in any, out *MCPServer) error {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, out)
	})
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// parseMCPServers accepts a list of entries or a name-keyed map. decodeEntry
// fills a pre-defaulted MCPServer from one raw entry.
func parseMCPServers(raw any, decodeEntry func(in any, out *MCPServer) error) (MCPServers, error) {
	switch v := raw.(type) {
	case nil:
		return MCPServers{}, nil
	case MCPServers:
		return v, nil
	case []any:
		if len(v) == 0 {
			return MCPServers{}, nil
		}
		out := make([]MCPServer, 0, len(v))
		for i, entry := range v {
			s := entryDefaults()
			if err := decodeEntry(entry, &s); err != nil {
				return MCPServers{}, fmt.Errorf("mcpServers[%d]: %w", i, err)
			}
			s.normalize()
			out = append(out, s)
		}
		return MCPServers{Servers: out}, nil
	case map[string]any:
		byName := make(map[string]MCPServer, len(v))
		for name, entry := range v {
			s := entryDefaults()
			if err := decodeEntry(entry, &s); err != nil {
				return MCPServers{}, fmt.Errorf("mcpServers.%s: %w", name, err)
			}
			s.Name = name
			s.normalize()
			byName[name] = s
		}
		return MCPServersFromMap(byName), nil
	default:
		return MCPServers{}, fmt.Errorf("mcpServers must be a list or an object, got %T", raw)
	}
}

func (MCPServers) JSONSchema() *jsonschema.Schema {
	entry := (&jsonschema.Reflector{
		DoNotReference:             true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}).Reflect(&MCPServer{})
	entry.Version = ""
	entry.ID = ""
	applyValidateTags(typeOf[MCPServer](), entry)
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "array", Items: entry},
			{Type: "object", AdditionalProperties: entry},
		},
	}
}
