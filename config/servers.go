// ABOUTME: Loads the provider file - the ordered "mcpServers" mapping that names
// ABOUTME: each tool provider and how to launch or reach it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/2389-research/mcphub/mcp"
)

// DefaultServersPath is the provider file read when none is given.
const DefaultServersPath = "mcp_servers.json"

// ErrNoServers means the provider file declares no enabled provider.
var ErrNoServers = errors.New("no providers configured")

type serverEntry struct {
	Transport    string            `yaml:"transport"`
	Type         string            `yaml:"type"`
	Command      string            `yaml:"command"`
	Args         []string          `yaml:"args"`
	Dir          string            `yaml:"cwd"`
	Env          map[string]string `yaml:"env"`
	EnvAllowlist []string          `yaml:"envAllowlist"`
	URL          string            `yaml:"url"`
	Headers      map[string]string `yaml:"headers"`
	Disabled     bool              `yaml:"disabled"`
}

// LoadServers reads the provider file at path.
func LoadServers(path string) ([]mcp.ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read provider file: %w", err)
	}
	servers, err := ParseServers(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return servers, nil
}

// ParseServers decodes a provider document in YAML or JSON. Providers are
// returned in the order their keys appear under "mcpServers"; that order is
// the connection order and decides which provider wins a duplicate
// capability name.
func ParseServers(data []byte) ([]mcp.ServerConfig, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		// Valid JSON holds tabs only as whitespace, which YAML rejects for indentation.
		trimmed = bytes.ReplaceAll(trimmed, []byte("\t"), []byte("  "))
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("parse provider file: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("provider file must be a mapping with an mcpServers key")
	}

	serversNode := mappingValue(doc.Content[0], "mcpServers")
	if serversNode == nil {
		return nil, errors.New(`provider file has no "mcpServers" key`)
	}
	if serversNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf(`line %d: "mcpServers" must be a mapping`, serversNode.Line)
	}

	seen := make(map[string]bool)
	var servers []mcp.ServerConfig
	for i := 0; i+1 < len(serversNode.Content); i += 2 {
		keyNode, valueNode := serversNode.Content[i], serversNode.Content[i+1]
		name := keyNode.Value
		if name == "" {
			return nil, fmt.Errorf("line %d: provider name must not be empty", keyNode.Line)
		}
		if seen[name] {
			return nil, fmt.Errorf("line %d: provider %q declared twice", keyNode.Line, name)
		}
		seen[name] = true

		var entry serverEntry
		if err := valueNode.Decode(&entry); err != nil {
			return nil, fmt.Errorf("provider %q: %w", name, err)
		}
		if entry.Disabled {
			continue
		}

		server, err := entry.toServerConfig(name)
		if err != nil {
			return nil, err
		}
		servers = append(servers, server)
	}

	if len(servers) == 0 {
		return nil, ErrNoServers
	}
	return servers, nil
}

func (e serverEntry) toServerConfig(name string) (mcp.ServerConfig, error) {
	transport := e.Transport
	if transport == "" {
		transport = e.Type
	}
	if transport == "" && e.Command == "" && e.URL != "" {
		transport = mcp.TransportHTTP
	}
	transport, err := mcp.NormalizeTransport(transport)
	if err != nil {
		return mcp.ServerConfig{}, fmt.Errorf("provider %q: %w", name, err)
	}

	switch transport {
	case mcp.TransportStdio:
		if e.Command == "" {
			return mcp.ServerConfig{}, fmt.Errorf("provider %q: command is required", name)
		}
	case mcp.TransportHTTP, mcp.TransportSSE:
		if e.URL == "" {
			return mcp.ServerConfig{}, fmt.Errorf("provider %q: url is required", name)
		}
	}

	return mcp.ServerConfig{
		Name:         name,
		Transport:    transport,
		Command:      e.Command,
		Args:         e.Args,
		Dir:          e.Dir,
		Env:          e.Env,
		EnvAllowlist: e.EnvAllowlist,
		URL:          e.URL,
		Headers:      e.Headers,
	}, nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
