// Package templates serves the starting-point source files handed to the
// model for code generation.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed files/*
var builtin embed.FS

const defaultKey = "default"

// Store reads templates from Dir first and the built-in set second. Files
// are named <language>_<framework>.<ext> or <language>.<ext>.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Bucket splits a language choice such as "Rust + Axum" into its lowercase
// language and framework parts.
func Bucket(language string) (lang, framework string) {
	parts := strings.FieldsFunc(strings.ToLower(language), func(r rune) bool {
		return r == '+' || r == '/' || r == ' ' || r == ','
	})
	if len(parts) == 0 {
		return "", ""
	}
	lang = parts[0]
	if len(parts) > 1 {
		framework = parts[1]
	}
	return lang, framework
}

// Keys lists lookup keys from most to least specific.
func Keys(language string) []string {
	lang, framework := Bucket(language)
	var keys []string
	if lang != "" && framework != "" {
		keys = append(keys, lang+"_"+framework)
	}
	if lang != "" {
		keys = append(keys, lang)
	}
	return append(keys, defaultKey)
}

// ReadTemplate returns the most specific template for language.
func (s *Store) ReadTemplate(language string) (string, error) {
	for _, key := range Keys(language) {
		if s != nil && s.Dir != "" {
			data, err := readFirst(os.DirFS(s.Dir), ".", key)
			if err == nil {
				return data, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("failed to read template %s: %w", key, err)
			}
		}
		data, err := readFirst(builtin, "files", key)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to read template %s: %w", key, err)
		}
	}
	return "", fmt.Errorf("no template for %q: %w", language, fs.ErrNotExist)
}

func readFirst(fsys fs.FS, dir, key string) (string, error) {
	matches, err := fs.Glob(fsys, path.Join(dir, key+".*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fs.ErrNotExist
	}
	data, err := fs.ReadFile(fsys, matches[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var frameworkFiles = map[string]string{
	"react":  "App.jsx",
	"svelte": "App.svelte",
	"nextjs": "page.jsx",
	"spring": "Application.java",
}

var languageFiles = map[string]string{
	"rust":       "main.rs",
	"python":     "app.py",
	"java":       "Application.java",
	"javascript": "index.js",
	"typescript": "index.ts",
	"go":         "main.go",
}

// OutputFileName is the file generated code for language is written to.
func OutputFileName(language string) string {
	lang, framework := Bucket(language)
	if name, ok := frameworkFiles[framework]; ok {
		if lang == "typescript" {
			return strings.TrimSuffix(name, filepath.Ext(name)) + ".tsx"
		}
		return name
	}
	if name, ok := languageFiles[lang]; ok {
		return name
	}
	return "main.txt"
}
