// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage with NOTEWISE_ environment overrides
//   - PromptStore: user-editable prompt templates with built-in fallbacks
package file
