// Package kernel holds the value objects shared by every aggregate of the
// dispatch engine: order and participant identities, distance tiers, requester
// tariffs and the event ids attached to inbound courier actions.
//
// All values validate themselves; zero values are invalid.
package kernel
