package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupTriggered(t *testing.T) {
	cases := []struct {
		name       string
		text       string
		replyToBot bool
		want       bool
	}{
		{name: "reply to bot", text: "sea", replyToBot: true, want: true},
		{name: "mention", text: "@splash_bot mountain", want: true},
		{name: "keyword photo", text: "photo mountain", want: true},
		{name: "keyword picture", text: "Picture of a cat", want: true},
		{name: "keyword pic", text: "pic sunset", want: true},
		{name: "keyword inside word", text: "picnic spot", want: false},
		{name: "plain chatter", text: "what a nice day", want: false},
		{name: "mention of someone else", text: "@other_bot mountain", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, groupTriggered(tc.text, "splash_bot", tc.replyToBot))
		})
	}
}

func TestStripQuery(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{name: "mention removed", text: "@splash_bot mountain", want: "mountain"},
		{name: "keyword removed", text: "photo city night", want: "city night"},
		{name: "keyword case insensitive", text: "Picture old town", want: "old town"},
		{name: "bare keyword leaves empty", text: "photo", want: ""},
		{name: "keyword inside word kept", text: "picnic spot", want: "picnic spot"},
		{name: "plain text untouched", text: "mountain lake", want: "mountain lake"},
		{name: "mention plus keyword", text: "@splash_bot photo sea", want: "sea"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripQuery(tc.text, "splash_bot"))
		})
	}
}
