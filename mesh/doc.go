// Package mesh is a reference connection manager: an HTTP session layer
// peers use to tell each other they've joined or left. The Client half
// implements membership.Connector; the Server half tracks which peers
// currently hold a session with us. It deliberately carries no application
// traffic.
package mesh
