package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soundleaf/soundleaf-backend/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir should validate: %v", err)
	}
}

func TestChaptersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_chapters.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS chapters",
		"FOREIGN KEY (content_item_id) REFERENCES content_items(id) ON DELETE CASCADE",
		"CONSTRAINT chapters_item_index_key UNIQUE (content_item_id, chapter_index) DEFERRABLE INITIALLY DEFERRED",
		"storage_path TEXT NOT NULL UNIQUE",
		"CHECK (duration_seconds > 0)",
		"DROP TABLE IF EXISTS chapters",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEntitlementsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_entitlements.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS entitlements",
		"CONSTRAINT entitlements_user_content_key UNIQUE (user_id, content_item_id)",
		"FOREIGN KEY (content_item_id) REFERENCES content_items(id) ON DELETE RESTRICT",
		"CREATE UNIQUE INDEX IF NOT EXISTS entitlements_payment_reference_key ON entitlements (payment_reference) WHERE payment_reference IS NOT NULL",
		"CHECK (source <> 'purchase' OR payment_reference IS NOT NULL)",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestContentItemsMigrationContainsDerivedColumns(t *testing.T) {
	content := readMigration(t, "*_create_content_items.sql")

	checks := []string{
		"chapter_count INTEGER NOT NULL DEFAULT 0",
		"total_duration_seconds BIGINT NOT NULL DEFAULT 0",
		"CHECK (chapter_count >= 0)",
		"status content_status NOT NULL DEFAULT 'draft'",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matches %q", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
