package models

import "strings"

// AgentState is the lifecycle phase of an agent. The ordering of the
// constants is significant: an agent only ever moves to a larger value.
type AgentState int

const (
	StateDiscovery AgentState = iota
	StateWorking
	StateUnitTesting
	StateCompleted
)

func (s AgentState) String() string {
	switch s {
	case StateDiscovery:
		return "Discovery"
	case StateWorking:
		return "Working"
	case StateUnitTesting:
		return "UnitTesting"
	case StateCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// Message is one entry in an agent's conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleAssistant = "assistant"
)

// ProjectScope is the Architect's structured scope decision.
type ProjectScope struct {
	RequiresCRUD         bool `json:"requires_crud"`
	RequiresLogin        bool `json:"requires_login"`
	RequiresExternalURLs bool `json:"requires_external_urls"`
}

type ProjectFocus string

const (
	FocusBackend   ProjectFocus = "Backend"
	FocusFrontend  ProjectFocus = "Frontend"
	FocusFullstack ProjectFocus = "Fullstack"
)

// ModelChoice selects which model backend serves a prompt.
type ModelChoice string

const (
	ModelPrimaryRemote ModelChoice = "GPT-4o"
	ModelLocalDefault  ModelChoice = "Llama3"
)

// ParseModelChoice maps an operator selection to a model. Anything
// unrecognised uses the local default.
func ParseModelChoice(s string) ModelChoice {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gpt-4o", "gpt4o", "remote", "openai":
		return ModelPrimaryRemote
	default:
		return ModelLocalDefault
	}
}

// ParseFocus returns the focus named by s and whether it was recognised.
func ParseFocus(s string) (ProjectFocus, bool) {
	for _, f := range []ProjectFocus{FocusBackend, FocusFrontend, FocusFullstack} {
		if strings.EqualFold(strings.TrimSpace(s), string(f)) {
			return f, true
		}
	}
	return "", false
}

// UserInputs is the operator's choices for one run. It is passed by value
// and never mutated once the run starts.
type UserInputs struct {
	ProjectToBuild   string       `json:"project_to_build"`
	Focus            ProjectFocus `json:"project_focus,omitempty"`
	BackendLanguage  string       `json:"backend_language,omitempty"`
	FrontendLanguage string       `json:"frontend_language,omitempty"`
	Model            ModelChoice  `json:"llm_model,omitempty"`
}

// NeedsBackend reports whether the focus calls for a backend language.
func (u UserInputs) NeedsBackend() bool {
	return u.Focus == FocusBackend || u.Focus == FocusFullstack
}

// NeedsFrontend reports whether the focus calls for a frontend language.
func (u UserInputs) NeedsFrontend() bool {
	return u.Focus == FocusFrontend || u.Focus == FocusFullstack
}

func Focuses() []string {
	return []string{string(FocusBackend), string(FocusFrontend), string(FocusFullstack)}
}

func BackendLanguages() []string {
	return []string{
		"Rust + Axum",
		"Python + Flask",
		"Java + Spring Boot",
		"JavaScript + Express",
		"JavaScript + NestJs",
		"TypeScript + Express",
		"TypeScript + NextJs",
	}
}

func FrontendLanguages() []string {
	return []string{
		"JavaScript + React",
		"JavaScript + Svelte",
		"JavaScript + NextJs",
	}
}

func ModelChoices() []string {
	return []string{string(ModelPrimaryRemote), string(ModelLocalDefault)}
}
