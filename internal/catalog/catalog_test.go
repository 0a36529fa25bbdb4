package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls int
	apps  map[string]string
	err   error
}

func (f *fakeSource) AppStrings(ctx context.Context) (map[string]string, error) {
	f.calls++
	return f.apps, f.err
}

func (f *fakeSource) WorkplaceStrings(ctx context.Context) (map[string]string, error) {
	f.calls++
	return map[string]string{"mod_chat/send": "workplace.chat"}, f.err
}

func TestParseRules(t *testing.T) {
	rules, err := ParseRules([]string{
		"assignment_offline",
		"antivirus_clamav 31",
		"auth_fc -33",
		"",
		"# retired",
		"block_community 27 -37",
	})
	require.NoError(t, err)
	assert.Equal(t, []Rule{
		{Component: "assignment_offline"},
		{Component: "antivirus_clamav", Since: 31},
		{Component: "auth_fc", Until: 33},
		{Component: "block_community", Since: 27, Until: 37},
	}, rules)
}

func TestParseRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"non-numeric", "core abc"},
		{"zero", "core 0"},
		{"too many fields", "core 27 -30 40"},
		{"empty range", "core 38 -30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]string{tt.line})
			assert.Error(t, err)
		})
	}
}

func TestCatalog_StandardComponents(t *testing.T) {
	c, err := New([]string{
		"core",
		"antivirus_clamav 31",
		"auth_fc -33",
		"block_community 27 -37",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"auth_fc", "block_community", "core"}, c.StandardComponentNames(27))
	assert.Equal(t, []string{"antivirus_clamav", "auth_fc", "block_community", "core"}, c.StandardComponentNames(33))
	assert.Equal(t, []string{"antivirus_clamav", "core"}, c.StandardComponentNames(38))
	assert.True(t, c.IsStandard(37, "block_community"))
	assert.False(t, c.IsStandard(26, "block_community"))
}

func TestCatalog_AppStringsMemoized(t *testing.T) {
	src := &fakeSource{apps: map[string]string{"core/login": "mobile.login"}}
	c, err := New(nil, src)
	require.NoError(t, err)
	ctx := context.Background()

	apps, err := c.AppStrings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mobile.login", apps["core/login"])

	_, err = c.AppStrings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	c.Reload()
	_, err = c.AppStrings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)

	wp, err := c.WorkplaceStrings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "workplace.chat", wp["mod_chat/send"])
}

func TestCatalog_SourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("no such table")}
	c, err := New(nil, src)
	require.NoError(t, err)

	_, err = c.AppStrings(context.Background())
	assert.Error(t, err)

	// Failures are not memoized
	src.err = nil
	src.apps = map[string]string{}
	apps, err := c.AppStrings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestCatalog_NilSource(t *testing.T) {
	c, err := New(nil, nil)
	require.NoError(t, err)

	apps, err := c.AppStrings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestCatalog_AppComponents(t *testing.T) {
	src := &fakeSource{apps: map[string]string{
		"core/login":      "mobile.login",
		"core/logout":     "mobile.logout",
		"mod_forum/reply": "addon.mod_forum.reply",
	}}
	c, err := New(nil, src)
	require.NoError(t, err)
	ctx := context.Background()

	names, err := c.AppComponentNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"core", "local_moodlemobileapp", "mod_forum"}, names)

	_, err = c.AppStrings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "components share the memoized app strings")

	src.apps = map[string]string{"mod_chat/send": "addon.mod_chat.send"}
	comps, err := c.AppComponents(ctx)
	require.NoError(t, err)
	assert.True(t, comps["core"], "memoized until Reload")

	c.Reload()
	comps, err = c.AppComponents(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"mod_chat": true, MobileAppComponent: true}, comps)
}

func TestCatalog_AppComponentsNilSource(t *testing.T) {
	c, err := New(nil, nil)
	require.NoError(t, err)

	names, err := c.AppComponentNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{MobileAppComponent}, names)
}
