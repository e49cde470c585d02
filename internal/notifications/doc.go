// Package notifications delivers queue events to the operator via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set.
// Queue surfaces emit notifications only after the engine's critical
// section, so a slow or failing push can never block a mutation.
//
// Extend this package if you need alternative transports; callers depend
// only on the Service interface.
package notifications
