package validation

import (
	"encoding/json"
	"fmt"

	"github.com/ClareAI/astra-admin-console/internal/apierr"
)

// WorkflowConfig is the typed view of the agent workflow document stored in
// an agent version. The orchestrator executes it; the console only checks
// its shape and graph references.
type WorkflowConfig struct {
	Agent    *WorkflowAgent         `json:"agent"`
	Workflow *WorkflowGraph         `json:"workflow"`
	LLM      map[string]interface{} `json:"llm"`
	TTS      map[string]interface{} `json:"tts"`
	STT      map[string]interface{} `json:"stt"`

	// Deprecated: global_prompt moved to the version row. Still accepted,
	// reported as a warning.
	GlobalPrompt string `json:"global_prompt,omitempty"`
}

// WorkflowAgent holds the agent-level metadata inside the workflow doc
type WorkflowAgent struct {
	Name     string `json:"name"`
	Language string `json:"language,omitempty"`
}

// WorkflowGraph is the node/transition graph the orchestrator walks
type WorkflowGraph struct {
	StartNode   string               `json:"start_node"`
	Nodes       []WorkflowNode       `json:"nodes"`
	Transitions []WorkflowTransition `json:"transitions"`
}

// WorkflowNode is a single conversational state
type WorkflowNode struct {
	ID     string                 `json:"id"`
	Type   string                 `json:"type"`
	Prompt string                 `json:"prompt,omitempty"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// WorkflowTransition is a directed edge between nodes
type WorkflowTransition struct {
	From      string `json:"from"`
	Target    string `json:"target"`
	Condition string `json:"condition,omitempty"`
}

// deprecatedNodeTypes maps node types that still execute but should be
// migrated, keyed to the replacement.
var deprecatedNodeTypes = map[string]string{
	"say": "speak",
}

// ValidateWorkflowConfig parses and checks an agent workflow document.
// It returns the typed config, hard field-level errors, and warnings for
// deprecated-but-valid patterns. Malformed input never panics.
func ValidateWorkflowConfig(raw json.RawMessage) (*WorkflowConfig, []apierr.Issue, []string) {
	var issues []apierr.Issue
	var warnings []string

	if len(raw) == 0 {
		issues = append(issues, apierr.Issue{Field: "config_json", Message: "workflow config is required"})
		return nil, issues, nil
	}

	var cfg WorkflowConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		issues = append(issues, apierr.Issue{Field: "config_json", Message: "workflow config is not valid JSON"})
		return nil, issues, nil
	}

	if cfg.Agent == nil {
		issues = append(issues, apierr.Issue{Field: "agent", Message: "missing required section: agent"})
	} else if cfg.Agent.Name == "" {
		issues = append(issues, apierr.Issue{Field: "agent.name", Message: "agent name is required"})
	}
	if cfg.LLM == nil {
		issues = append(issues, apierr.Issue{Field: "llm", Message: "missing required section: llm"})
	}
	if cfg.TTS == nil {
		issues = append(issues, apierr.Issue{Field: "tts", Message: "missing required section: tts"})
	}
	if cfg.STT == nil {
		issues = append(issues, apierr.Issue{Field: "stt", Message: "missing required section: stt"})
	}

	if cfg.Workflow == nil {
		issues = append(issues, apierr.Issue{Field: "workflow", Message: "missing required section: workflow"})
		return &cfg, issues, warnings
	}

	graphIssues, graphWarnings := validateGraph(cfg.Workflow)
	issues = append(issues, graphIssues...)
	warnings = append(warnings, graphWarnings...)

	if cfg.GlobalPrompt != "" {
		warnings = append(warnings, "top-level global_prompt inside the workflow document is deprecated; set it on the version instead")
	}

	if len(issues) > 0 {
		return &cfg, issues, warnings
	}
	return &cfg, nil, warnings
}

func validateGraph(graph *WorkflowGraph) ([]apierr.Issue, []string) {
	var issues []apierr.Issue
	var warnings []string

	if len(graph.Nodes) == 0 {
		issues = append(issues, apierr.Issue{Field: "workflow.nodes", Message: "workflow must contain at least one node"})
		return issues, warnings
	}

	nodeIDs := make(map[string]bool, len(graph.Nodes))
	for i, node := range graph.Nodes {
		field := fmt.Sprintf("workflow.nodes[%d]", i)
		if node.ID == "" {
			issues = append(issues, apierr.Issue{Field: field + ".id", Message: "node id is required"})
			continue
		}
		if nodeIDs[node.ID] {
			issues = append(issues, apierr.Issue{Field: field + ".id", Message: fmt.Sprintf("duplicate node id: %s", node.ID)})
			continue
		}
		nodeIDs[node.ID] = true

		if replacement, ok := deprecatedNodeTypes[node.Type]; ok {
			warnings = append(warnings, fmt.Sprintf("node %q uses deprecated type %q; use %q", node.ID, node.Type, replacement))
		}
	}

	if graph.StartNode == "" {
		issues = append(issues, apierr.Issue{Field: "workflow.start_node", Message: "start_node is required"})
	} else if !nodeIDs[graph.StartNode] {
		issues = append(issues, apierr.Issue{Field: "workflow.start_node", Message: fmt.Sprintf("start_node references unknown node: %s", graph.StartNode)})
	}

	for i, tr := range graph.Transitions {
		field := fmt.Sprintf("workflow.transitions[%d]", i)
		if tr.From != "" && !nodeIDs[tr.From] {
			issues = append(issues, apierr.Issue{Field: field + ".from", Message: fmt.Sprintf("transition source references unknown node: %s", tr.From)})
		}
		if tr.Target == "" {
			issues = append(issues, apierr.Issue{Field: field + ".target", Message: "transition target is required"})
		} else if !nodeIDs[tr.Target] {
			issues = append(issues, apierr.Issue{Field: field + ".target", Message: fmt.Sprintf("transition target references unknown node: %s", tr.Target)})
		}
	}

	return issues, warnings
}
