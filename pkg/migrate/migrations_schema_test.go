package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/dmpilot-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestInitSchemaContainsCoreConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE conversations",
		"CREATE UNIQUE INDEX idx_conversations_thread ON conversations (account_id, external_thread_id)",
		"CREATE UNIQUE INDEX idx_usage_counters_period ON usage_counters (account_id, period_start)",
		"CREATE INDEX idx_messages_conversation_sent_at ON messages (conversation_id, sent_at)",
		"warnings_sent integer[] NOT NULL DEFAULT '{}'",
		"auto_reply_enabled boolean NOT NULL DEFAULT true",
		"DROP TABLE IF EXISTS usage_counters",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
