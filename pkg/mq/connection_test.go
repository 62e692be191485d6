package mq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialConfig(t *testing.T) {
	cfg := dialConfig(PublisherName)
	assert.Equal(t, heartbeat, cfg.Heartbeat)
	assert.Equal(t, "en_US", cfg.Locale)
	assert.Equal(t, PublisherName, cfg.Properties["connection_name"])
	assert.Equal(t, "interntrack", cfg.Properties["product"])

	anon := dialConfig("")
	_, named := anon.Properties["connection_name"]
	assert.False(t, named)
}

func TestNewConnection_WrapsDialError(t *testing.T) {
	_, err := NewConnection("not-a-url", ConsumerName)
	assert.ErrorContains(t, err, `as "interntrack-consumer"`)
}
