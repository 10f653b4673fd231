// Package file provides file-backed driven adapters under ~/.mailrag:
//   - ConfigStore: settings in config.toml
//   - PromptStore: editable system prompts in prompts/*.txt
package file
