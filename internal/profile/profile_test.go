package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfile(t *testing.T) {
	p := Default()
	assert.Equal(t, "ConnectCom", p.AssistantName)
	assert.Equal(t, `Hello! I am ConnectCom's virtual assistant. Type "hi" to see the main menu options.`, p.Welcome)
	assert.Equal(t, "Speak to a Human Agent", p.HandoffPhrase)
	assert.Equal(t, "I'm sorry, I couldn't process that request.", p.FallbackReply)
	assert.Equal(t, "User message: ", p.MessagePrefix)
	assert.True(t, p.Grounding)
	assert.Equal(t, []string{"\uFE0F\u20E3", "\u20E3"}, p.Menu.Markers)
	assert.Equal(t, 3, p.Menu.HintOptions)
	assert.Contains(t, p.SystemInstruction, "4️⃣ Speak to Human Agent")
	assert.NotContains(t, p.SystemInstruction, "\n\n\n")
}

func TestParseOverlaysDefaults(t *testing.T) {
	p, err := Parse([]byte("welcome: Hi there\ngrounding: false\n"))
	require.NoError(t, err)
	assert.Equal(t, "Hi there", p.Welcome)
	assert.False(t, p.Grounding)
	assert.Equal(t, "Speak to a Human Agent", p.HandoffPhrase)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte("welcome: \"\"\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("menu:\n  markers: []\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("menu: [not, a, map]"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Welcome, p.Welcome)

	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("assistant_name: Acme\n"), 0o600))
	p, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.AssistantName)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
