package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchGlobYes(t *testing.T) {
	cases := []struct{ glob, text string }{
		{"*Zoot*!*@*.org", "Zoot!Zoot@services.org"},
		{"*Zoot*!*@*.org", "zoot!bleh@j00.are.r00t3d.org"},
		{"*!*@*", "DK-Entrope!entrope@clan-dk.dyndns.org"},
		{"*", "anything at all!"},
	}
	for _, c := range cases {
		assert.True(t, MatchGlob(c.text, c.glob), "%q should match %q", c.text, c.glob)
	}
}

func TestMatchGlobNo(t *testing.T) {
	cases := []struct{ glob, text string }{
		{"*Zoot*!*@*.org", "Zoot!Zoot@services.net"},
		{"*!*@*", "luser@host.com"},
	}
	for _, c := range cases {
		assert.False(t, MatchGlob(c.text, c.glob), "%q should not match %q", c.text, c.glob)
	}
}

func TestMatchGlobCaseInsensitive(t *testing.T) {
	assert.True(t, MatchGlob("HELLO@World.COM", "*@world.com"))
}

func TestMatchGlobs(t *testing.T) {
	assert.True(t, MatchGlobs("*@foo", "bar@foo"), "*@foo ends with @foo, same as bar@foo")
	assert.False(t, MatchGlobs("*@foo", "foo@bar"), "foo@bar does not end with @foo")
	assert.False(t, MatchGlobs("foo@bar", "bar@foo"), "neither literal string equals the other")
	assert.True(t, MatchGlobs("foo@bar", "foo@bar"))
	assert.False(t, MatchGlobs("foo@bar", "baz@qux"))
}
