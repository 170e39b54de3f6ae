// Package prompts provides a loader for externalized LLM prompt templates.
// Prompt files are JSON documents embedded at compile time; each key maps to a
// system preamble and a user template with {{.Key}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// Prompt is a single prompt entry.
type Prompt struct {
	System   string `json:"system"`
	Template string `json:"template"`
}

var (
	cache   = make(map[string]map[string]Prompt)
	cacheMu sync.RWMutex

	placeholderRE = regexp.MustCompile(`\{\{\.([A-Za-z0-9_]+)\}\}`)
)

// Get retrieves a prompt by filename and key.
func Get(filename, key string) (Prompt, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return Prompt{}, err
	}

	prompt, exists := prompts[key]
	if !exists {
		return Prompt{}, fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return prompt, nil
}

// Render fills the template and prepends the system preamble.
// It fails if the template names a placeholder that data does not supply.
func (p Prompt) Render(data map[string]string) (string, error) {
	var missing []string
	for _, name := range Unfilled(p.Template) {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt has unfilled placeholders: %s", strings.Join(missing, ", "))
	}
	body := Format(p.Template, data)
	if p.System == "" {
		return body, nil
	}
	return p.System + "\n\n" + body, nil
}

// Format replaces template placeholders in the form {{.Key}} with values from data.
func Format(template string, data map[string]string) string {
	return placeholderRE.ReplaceAllStringFunc(template, func(m string) string {
		key := placeholderRE.FindStringSubmatch(m)[1]
		if value, ok := data[key]; ok {
			return value
		}
		return m
	})
}

// Unfilled returns the sorted placeholder names present in text.
func Unfilled(text string) []string {
	seen := make(map[string]bool)
	for _, m := range placeholderRE.FindAllStringSubmatch(text, -1) {
		seen[m[1]] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClearCache clears the prompt cache. Useful for testing.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]map[string]Prompt)
	cacheMu.Unlock()
}

func loadFile(filename string) (map[string]Prompt, error) {
	cacheMu.RLock()
	if prompts, exists := cache[filename]; exists {
		cacheMu.RUnlock()
		return prompts, nil
	}
	cacheMu.RUnlock()

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var prompts map[string]Prompt
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	cacheMu.Lock()
	cache[filename] = prompts
	cacheMu.Unlock()

	return prompts, nil
}
