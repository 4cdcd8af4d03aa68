package node

import "github.com/rhuss/claudenode/pkg/api"

// Description is the node schema presented to workflow editors.
type Description struct {
	DisplayName string     `json:"displayName"`
	Name        string     `json:"name"`
	Icon        string     `json:"icon,omitempty"`
	Group       []string   `json:"group"`
	Version     int        `json:"version"`
	Subtitle    string     `json:"subtitle,omitempty"`
	Description string     `json:"description"`
	Defaults    Defaults   `json:"defaults"`
	Inputs      []string   `json:"inputs"`
	Outputs     []string   `json:"outputs"`
	Properties  []Property `json:"properties"`
}

// Defaults holds editor defaults for a new node instance.
type Defaults struct {
	Name string `json:"name"`
}

// Property is one typed node parameter.
type Property struct {
	DisplayName      string           `json:"displayName"`
	Name             string           `json:"name"`
	Type             string           `json:"type"`
	Options          []PropertyOption `json:"options,omitempty"`
	TypeOptions      map[string]any   `json:"typeOptions,omitempty"`
	Default          any              `json:"default"`
	Required         bool             `json:"required,omitempty"`
	NoDataExpression bool             `json:"noDataExpression,omitempty"`
	Description      string           `json:"description,omitempty"`
}

// PropertyOption is one choice of an "options" property.
type PropertyOption struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// NodeDescription returns the schema of the Claude Code node.
func NodeDescription() Description {
	return Description{
		DisplayName: "Claude Code",
		Name:        "claudeCode",
		Icon:        "fa:robot",
		Group:       []string{"transform"},
		Version:     1,
		Subtitle:    `={{$parameter["operation"]}}`,
		Description: "Send prompts to Claude Code and return its answers as items",
		Defaults:    Defaults{Name: "Claude Code"},
		Inputs:      []string{"main"},
		Outputs:     []string{"main"},
		Properties: []Property{
			{
				DisplayName:      "Operation",
				Name:             api.ParamOperation,
				Type:             "options",
				NoDataExpression: true,
				Options: []PropertyOption{
					{Name: "Query", Value: string(api.OperationQuery), Description: "Send a prompt to Claude Code"},
				},
				Default: string(api.OperationQuery),
			},
			{
				DisplayName: "Prompt",
				Name:        api.ParamPrompt,
				Type:        "string",
				TypeOptions: map[string]any{"rows": 4},
				Default:     "",
				Required:    true,
				Description: "Prompt forwarded to Claude Code",
			},
			{
				DisplayName: "Model",
				Name:        api.ParamModel,
				Type:        "options",
				Options: []PropertyOption{
					{Name: "Sonnet", Value: string(api.ModelSonnet)},
					{Name: "Opus", Value: string(api.ModelOpus)},
				},
				Default:     string(api.DefaultModel),
				Description: "Claude model family",
			},
			{
				DisplayName: "Max Turns",
				Name:        api.ParamMaxTurns,
				Type:        "number",
				Default:     api.DefaultMaxTurns,
				Description: "Upper bound on agent turns",
			},
			{
				DisplayName: "Timeout (seconds)",
				Name:        api.ParamTimeout,
				Type:        "number",
				Default:     api.DefaultTimeoutSeconds,
				Description: "Wall-clock budget per item",
			},
			{
				DisplayName: "Output Format",
				Name:        api.ParamOutputFormat,
				Type:        "options",
				Options: []PropertyOption{
					{Name: "Text", Value: string(api.OutputFormatText)},
					{Name: "Messages", Value: string(api.OutputFormatMessages)},
					{Name: "Full Response", Value: string(api.OutputFormatFull)},
				},
				Default:     string(api.DefaultOutputFormat),
				Description: "Shape of each output item",
			},
		},
	}
}
