// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - FrameStore: Time-indexed frame queries, decoding and deletion (SQLite)
//   - PositionStore: Resume snapshot persistence (JSON file or SQLite)
//   - ConfigStore: Application configuration (TOML)
//   - DataSourceVersioner: Current data-source version
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - DataSourceWatcher: Change notifications. Without it the viewer never
//     re-centres on a data-source toggle.
//   - FrameIndexer: Only needed by the importer.
//   - ImageDecoder: Without it frames stay navigable but have no image.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
