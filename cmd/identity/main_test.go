package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/task-registry/internal/auth"
	"github.com/BuzzLyutic/task-registry/internal/model"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// parseKeygen reads the "name: value" lines printed by keygen.
func parseKeygen(t *testing.T, out string) (model.Identity, string) {
	t.Helper()
	fields := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		name, value, ok := strings.Cut(line, ": ")
		require.True(t, ok, "unexpected line %q", line)
		fields[name] = value
	}
	return model.Identity(fields["identity"]), fields["private_key"]
}

func TestKeygenThenToken(t *testing.T) {
	t.Setenv("REGISTRY_PRIVATE_KEY", "")

	out, err := run(t, "keygen")
	require.NoError(t, err)
	identity, key := parseKeygen(t, out)

	_, err = auth.ParseIdentity(identity)
	require.NoError(t, err)

	out, err = run(t, "token", "--key", key)
	require.NoError(t, err)
	token := strings.TrimSpace(out)

	verifier := auth.NewJWTVerifier(auth.DefaultConfig())
	ctx := auth.WithToken(context.Background(), token)
	assert.NoError(t, verifier.RequireAuth(ctx, identity))
}

func TestToken_AudienceFlag(t *testing.T) {
	out, err := run(t, "keygen")
	require.NoError(t, err)
	identity, key := parseKeygen(t, out)

	out, err = run(t, "token", "--key", key, "--audience", "staging")
	require.NoError(t, err)
	ctx := auth.WithToken(context.Background(), strings.TrimSpace(out))

	assert.ErrorIs(t, auth.NewJWTVerifier(auth.DefaultConfig()).RequireAuth(ctx, identity), auth.ErrUnauthenticated)
	assert.NoError(t, auth.NewJWTVerifier(auth.Config{Audience: "staging"}).RequireAuth(ctx, identity))
}

func TestToken_KeyFromEnv(t *testing.T) {
	_, priv, err := auth.NewIdentity()
	require.NoError(t, err)
	t.Setenv("REGISTRY_PRIVATE_KEY", auth.EncodePrivateKey(priv))

	out, err := run(t, "token")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestToken_Errors(t *testing.T) {
	t.Setenv("REGISTRY_PRIVATE_KEY", "")

	_, err := run(t, "token")
	assert.Error(t, err)

	_, err = run(t, "token", "--key", "not-a-key")
	assert.Error(t, err)
}
