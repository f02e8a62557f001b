package pubsub

import (
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "shop-prod"}

	require.Equal(t, "projects/shop-prod/topics/orders", c.topicResourceName(" orders "))
	require.Equal(t, "projects/other/topics/reviews", c.topicResourceName("projects/other/topics/reviews"))
	require.Empty(t, c.topicResourceName(""))

	var nilClient *Client
	require.Empty(t, nilClient.topicResourceName("orders"))
	require.Nil(t, nilClient.Publisher("orders"))
}

func TestTopicNamesSkipsBlank(t *testing.T) {
	names := topicNames(config.PubSubConfig{OrdersTopic: "orders", ReviewsTopic: "  "})
	require.Equal(t, []string{"orders"}, names)
}
