package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandAttenuationOf(t *testing.T) {
	tests := []struct {
		name     string
		command  Command
		parent   Command
		expected bool
	}{
		{
			name:     "EqualCommands",
			command:  CommandBuildersRead,
			parent:   CommandBuildersRead,
			expected: true,
		},
		{
			name:     "StrictDescendant",
			command:  "capdocs/builders/read/profile",
			parent:   CommandBuildersRead,
			expected: true,
		},
		{
			name:     "DescendantOfRoot",
			command:  CommandDocumentsDelete,
			parent:   CommandRoot,
			expected: true,
		},
		{
			name:     "AncestorIsRejected",
			command:  CommandRoot,
			parent:   CommandBuildersRead,
			expected: false,
		},
		{
			name:     "SiblingIsRejected",
			command:  CommandBuildersWrite,
			parent:   CommandBuildersRead,
			expected: false,
		},
		{
			name:     "SegmentPrefixIsNotDescendant",
			command:  "capdocs/buildersextra",
			parent:   "capdocs/builders",
			expected: false,
		},
		{
			name:     "EmptyCommand",
			command:  "",
			parent:   CommandRoot,
			expected: false,
		},
		{
			name:     "EmptyParent",
			command:  CommandRoot,
			parent:   "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.command.AttenuationOf(tt.parent))
		})
	}
}
