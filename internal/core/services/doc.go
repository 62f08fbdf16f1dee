// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Classification and placeholder resolution are pure functions over
// their input. FormatCache is the only service that calls out, and it
// never returns an error: failures become terminal cache entries.
package services
