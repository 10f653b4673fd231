package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore serves system prompts from user-editable files, falling back
// to the built-in defaults. Files are created on first Load, never in the
// constructor.
type PromptStore struct {
	mu       sync.RWMutex
	dir      string
	cache    map[string]string
	initOnce sync.Once
	initErr  error
}

// DefaultPrompt returns the built-in template for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptClassify: `You triage incoming email. Read the email and respond with a JSON object with these fields:

- "category": exactly one of: %s. Use "Unclassified" when nothing fits.
- "subject": a short subject line for the email.
- "summary": two or three sentences covering the key points and any requested action.
- "date_extracted": the most relevant date or deadline mentioned, formatted YYYY-MM-DD, or null if there is none.

Respond with the JSON object only.`,

	driven.PromptAnswer: `You are an assistant that answers questions about the user's email.
Answer using only the email excerpts below. Each excerpt starts with [doc #<id>] naming the email it came from.
Cite the ids you rely on. If the excerpts do not contain the answer, say so plainly instead of guessing.

Email excerpts:
%s`,
}

// NewPromptStore creates a prompt store rooted at dir.
// An empty dir selects ~/.mailrag/prompts.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".mailrag", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Load returns the template for name. Unreadable or missing files fall
// back to the default; only unknown names with no file are errors.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	prompt, err := s.read(name)
	if err != nil || prompt == "" {
		if def, ok := defaultPrompts[name]; ok {
			return def, nil
		}
		if err == nil {
			err = errors.New("empty prompt file")
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if existing, ok := s.cache[name]; ok {
		prompt = existing
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()
	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.dir
}

// InitErr reports why the prompt directory could not be prepared, if it couldn't.
func (s *PromptStore) InitErr() error {
	s.initOnce.Do(s.initialise)
	return s.initErr
}

func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	for name, content := range defaultPrompts {
		path := s.path(name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}
	readme := filepath.Join(s.dir, "README.md")
	if _, err := os.Stat(readme); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(readme, []byte(promptReadme), 0600); err != nil {
			s.initErr = fmt.Errorf("create prompt readme: %w", err)
		}
	}
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

const promptReadme = `# mailrag prompts

Edit these files to change how mailrag talks to the model. Delete a file to
restore its default on the next run.

- classify.txt: system prompt for email classification. The single %s is
  replaced with the comma-separated category names. The model must still
  reply with the JSON fields category, subject, summary and date_extracted.
- answer.txt: system prompt for question answering. The single %s is
  replaced with the retrieved email excerpts.

Only the first %s is replaced. Any other text, including a literal %, is
sent unchanged.
`
