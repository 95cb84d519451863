package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/tone-platform/internal/auth"
)

func TestRootCommands(t *testing.T) {
	root := NewRootCmd("test")
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "research", "token", "worker"}, names)
}

func TestTokenCmd(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "cli-secret")
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--subject", "ops"})
	require.NoError(t, root.Execute())

	sub, err := auth.ParseJWT(strings.TrimSpace(out.String()), "cli-secret")
	require.NoError(t, err)
	assert.Equal(t, "ops", sub)
}

func TestResearchCmdRequiresSong(t *testing.T) {
	root := NewRootCmd("test")
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"research", "--part", "solo"})
	assert.Error(t, root.Execute())
}

func TestMigrateCmd(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file:cli_migrate?mode=memory&cache=shared")
	t.Setenv("RULES_FILE", "")
	t.Setenv("REDIS_ADDR", "")
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"migrate"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "migrated sqlite database")
}
