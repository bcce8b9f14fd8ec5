// Package driving defines the interfaces through which the outside
// world drives the core (primary/inbound ports). The HTTP layer and the
// worker binary depend on these, never on concrete services.
package driving
