package orchestrator

import "encoding/json"

// The orchestrator speaks snake_case JSON. Export and import pass that wire
// shape through untouched by default; clients that want the camelCase view
// opt in with format=camel, and the translation stays in this file.

// AgentBundle is the orchestrator's export/import payload for one agent
type AgentBundle struct {
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	ConfigJSON    json.RawMessage `json:"config_json"`
	GlobalPrompt  string          `json:"global_prompt,omitempty"`
	RagEnabled    bool            `json:"rag_enabled"`
	RagConfigID   *string         `json:"rag_config_id,omitempty"`
	VoiceConfigID *string         `json:"voice_config_id,omitempty"`
	Version       int             `json:"version,omitempty"`
}

// AgentBundleView is the same bundle in the console's camelCase shape
type AgentBundleView struct {
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	ConfigJSON    json.RawMessage `json:"configJson"`
	GlobalPrompt  string          `json:"globalPrompt,omitempty"`
	RagEnabled    bool            `json:"ragEnabled"`
	RagConfigID   *string         `json:"ragConfigId,omitempty"`
	VoiceConfigID *string         `json:"voiceConfigId,omitempty"`
	Version       int             `json:"version,omitempty"`
}

// ToView converts a wire bundle to the console shape
func (b *AgentBundle) ToView() *AgentBundleView {
	return &AgentBundleView{
		Name:          b.Name,
		Description:   b.Description,
		ConfigJSON:    b.ConfigJSON,
		GlobalPrompt:  b.GlobalPrompt,
		RagEnabled:    b.RagEnabled,
		RagConfigID:   b.RagConfigID,
		VoiceConfigID: b.VoiceConfigID,
		Version:       b.Version,
	}
}

// ToWire converts a console-shaped bundle back to the orchestrator shape
func (v *AgentBundleView) ToWire() *AgentBundle {
	return &AgentBundle{
		Name:          v.Name,
		Description:   v.Description,
		ConfigJSON:    v.ConfigJSON,
		GlobalPrompt:  v.GlobalPrompt,
		RagEnabled:    v.RagEnabled,
		RagConfigID:   v.RagConfigID,
		VoiceConfigID: v.VoiceConfigID,
		Version:       v.Version,
	}
}
