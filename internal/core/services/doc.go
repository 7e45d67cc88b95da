// Package services implements the driving port interfaces.
// Services contain the core timeline logic and orchestrate
// calls to driven ports (adapters).
//
// The window buffer, image cache and selection engine each guard their
// state with a mutex. Background page loads and decodes run on goroutines
// and only commit when the window generation they started in is still
// current.
package services
