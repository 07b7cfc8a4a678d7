// Package domain defines capability delegation-chain models and business rules.
//
// A capability chain is an ordered sequence of delegation links terminating in
// an invocation against this node. Each link carries a slash-delimited command
// namespace; authority only ever narrows (attenuates) from one link to the next.
package domain

import "strings"

// Command is a hierarchical capability namespace of the form
// "<root>/<domain>/<action>", e.g. "capdocs/builders/read".
type Command string

// Commands required by protected endpoints. Every protected endpoint declares
// exactly one required command.
const (
	CommandRoot Command = "capdocs"

	CommandBuildersRead  Command = "capdocs/builders/read"
	CommandBuildersWrite Command = "capdocs/builders/write"

	CommandCollectionsRead  Command = "capdocs/collections/read"
	CommandCollectionsWrite Command = "capdocs/collections/write"

	CommandDocumentsRead   Command = "capdocs/documents/read"
	CommandDocumentsWrite  Command = "capdocs/documents/write"
	CommandDocumentsDelete Command = "capdocs/documents/delete"

	CommandACLWrite Command = "capdocs/acl/write"

	CommandQueriesRead  Command = "capdocs/queries/read"
	CommandQueriesWrite Command = "capdocs/queries/write"
	CommandQueriesRun   Command = "capdocs/queries/run"
)

// AttenuationOf reports whether c is a valid attenuation of parent: equal to
// it, or a strict descendant in the slash-delimited namespace. A sibling or an
// ancestor is not an attenuation.
func (c Command) AttenuationOf(parent Command) bool {
	if c == "" || parent == "" {
		return false
	}
	if c == parent {
		return true
	}
	return strings.HasPrefix(string(c), string(parent)+"/")
}
