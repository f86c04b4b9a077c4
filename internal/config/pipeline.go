package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Agent names accepted in a pipeline file.
const (
	AgentSolutionsArchitect = "solutions_architect"
	AgentBackendDeveloper   = "backend_developer"
)

// Pipeline is the agent composition loaded from a YAML file:
//
//	agents:
//	  - solutions_architect
//	  - backend_developer
type Pipeline struct {
	Agents []string `yaml:"agents"`
}

// DefaultPipeline registers only the solutions architect.
func DefaultPipeline() *Pipeline {
	return &Pipeline{Agents: []string{AgentSolutionsArchitect}}
}

// LoadPipeline reads a pipeline file, expanding env vars. An empty path yields
// the default pipeline.
func LoadPipeline(path string) (*Pipeline, error) {
	if path == "" {
		return DefaultPipeline(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read %s: %w", path, err)
	}
	p, err := LoadPipelineBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %s: %w", path, err)
	}
	return p, nil
}

// LoadPipelineBytes parses a pipeline from bytes.
func LoadPipelineBytes(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &p); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	agents := make([]string, 0, len(p.Agents))
	for _, a := range p.Agents {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		switch a {
		case AgentSolutionsArchitect, AgentBackendDeveloper:
			agents = append(agents, a)
		default:
			return nil, fmt.Errorf("unknown agent %q", a)
		}
	}
	if len(agents) == 0 {
		return DefaultPipeline(), nil
	}
	p.Agents = agents
	return &p, nil
}

// envVarPattern matches ${VAR_NAME} and $VAR_NAME.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars replaces ${VAR} and $VAR with the environment value. Missing
// vars become empty.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "${")
		name = strings.TrimSuffix(name, "}")
		name = strings.TrimPrefix(name, "$")
		return os.Getenv(name)
	})
}
