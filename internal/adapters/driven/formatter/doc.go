// Package formatter implements driven.Formatter on top of an LLM.
//
// LLMFormatter is the remote reformat service: it answers from its own
// fingerprint-keyed result store when it can, otherwise it asks the LLM to
// turn the text into Markdown and stores the answer. Disabled stands in
// when reformatting is switched off so callers fail soft.
package formatter
