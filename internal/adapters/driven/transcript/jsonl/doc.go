// Package jsonl reads the assistant's prompt history file, one JSON record
// per line, and follows it for new records with fsnotify.
//
// Record layout:
//
//	{"display": "...", "pastedContents": {...}, "timestamp": 1759000000000,
//	 "project": "/path", "sessionId": "..."}
//
// Lines that do not decode are skipped.
package jsonl
