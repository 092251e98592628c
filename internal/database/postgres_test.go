package database

import "testing"

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name     string
		expected int
	}{
		{"001_conversation_messages.sql", 1},
		{"012_add_index.sql", 12},
		{"README.md", 0},
		{"abc_initial.sql", 0},
		{"001.sql", 0},
		{"002_down.txt", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := migrationVersion(tc.name); got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}
