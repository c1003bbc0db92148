package pubsub

import (
	"context"
	"testing"

	"github.com/nsets/erp-backend/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestTopicResourceName(t *testing.T) {
	assert.Equal(t, "projects/p1/topics/activity", topicResourceName("p1", " activity "))
	assert.Equal(t, "projects/other/topics/t", topicResourceName("p1", "projects/other/topics/t"))
	assert.Empty(t, topicResourceName("", "activity"))
	assert.Empty(t, topicResourceName("p1", ""))
}

func TestNewClientRequiresProjectAndTopic(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{ActivityTopic: "a"}, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)

	_, err = NewClient(context.Background(), config.GCPConfig{ProjectID: "p"}, config.PubSubConfig{}, nil)
	assert.ErrorIs(t, err, errTopicRequired)
}

func TestNilPublisherIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("x"))
	assert.Error(t, c.Ping(context.Background()))

	var p *TopicPublisher
	assert.Error(t, p.Publish(context.Background(), []byte("{}"), nil))
	p.Stop()
}

func TestClientOptionsPreferInlineCredentials(t *testing.T) {
	assert.Empty(t, clientOptions(config.GCPConfig{ProjectID: "p"}))
	assert.Len(t, clientOptions(config.GCPConfig{ApplicationCredentials: "/etc/gcp/key.json"}), 1)
	assert.Len(t, clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/etc/gcp/key.json"}), 1)
}
