package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TheAllen/Acadia/internal/templates"
)

const (
	AreaBackend  = "backend"
	AreaFrontend = "frontend"
)

type Workspace struct {
	Path     string
	CodePath string
}

type RunMetadata struct {
	RunID            int64    `json:"run_id"`
	PipelineName     string   `json:"pipeline_name"`
	InitialPrompt    string   `json:"initial_prompt"`
	Focus            string   `json:"project_focus,omitempty"`
	BackendLanguage  string   `json:"backend_language,omitempty"`
	FrontendLanguage string   `json:"frontend_language,omitempty"`
	Model            string   `json:"llm_model"`
	Agents           []string `json:"agents"`
}

func Create(baseDir string, runID int64) (*Workspace, error) {
	w := layout(baseDir, runID)

	dirs := []string{
		w.Path,
		filepath.Join(w.CodePath, AreaBackend),
		filepath.Join(w.CodePath, AreaFrontend),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return w, nil
}

func Open(baseDir string, runID int64) (*Workspace, error) {
	w := layout(baseDir, runID)
	if _, err := os.Stat(w.Path); os.IsNotExist(err) {
		return nil, fmt.Errorf("workspace for run %d does not exist", runID)
	}
	return w, nil
}

func layout(baseDir string, runID int64) *Workspace {
	path := filepath.Join(baseDir, fmt.Sprintf("run-%d", runID))
	return &Workspace{
		Path:     path,
		CodePath: filepath.Join(path, "code"),
	}
}

func (w *Workspace) WriteRunMetadata(meta *RunMetadata) error {
	return w.writeJSON("run.json", meta)
}

// WriteProjectSpec writes the final specification snapshot next to the
// generated code.
func (w *Workspace) WriteProjectSpec(snapshot any) error {
	return w.writeJSON("project_spec.json", snapshot)
}

func (w *Workspace) ReadProjectSpec(into any) error {
	data, err := os.ReadFile(filepath.Join(w.Path, "project_spec.json"))
	if err != nil {
		return fmt.Errorf("failed to read project_spec.json: %w", err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("failed to parse project_spec.json: %w", err)
	}
	return nil
}

func (w *Workspace) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(w.Path, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Code returns the writer for one area of generated code.
func (w *Workspace) Code(area string) *CodeDir {
	return &CodeDir{Path: filepath.Join(w.CodePath, area)}
}

func (w *Workspace) Remove() error {
	return os.RemoveAll(w.Path)
}

type CodeDir struct {
	Path string
}

// WriteGeneratedCode writes contents to the language's conventional file
// name, replacing any previous version, and returns the file path.
func (d *CodeDir) WriteGeneratedCode(contents, language string) (string, error) {
	if err := os.MkdirAll(d.Path, 0755); err != nil {
		return "", fmt.Errorf("failed to create code directory: %w", err)
	}
	path := filepath.Join(d.Path, templates.OutputFileName(language))
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		return "", fmt.Errorf("failed to write generated code: %w", err)
	}
	return path, nil
}
