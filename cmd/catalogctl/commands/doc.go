// Package commands implements the catalogctl command tree. Every command
// works directly against the configured catalog backend.
package commands
