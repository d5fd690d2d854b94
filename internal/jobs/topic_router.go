package jobs

// DefaultTopic receives every event type without an explicit route.
const DefaultTopic = "ordering-events"

// TopicRouter maps an outbox record type to a broker topic.
type TopicRouter struct {
	defaultTopic string
	routes       map[string]string
}

// NewTopicRouter creates a router. An empty defaultTopic means DefaultTopic.
func NewTopicRouter(defaultTopic string, routes map[string]string) TopicRouter {
	if defaultTopic == "" {
		defaultTopic = DefaultTopic
	}

	copied := make(map[string]string, len(routes))
	for eventType, topic := range routes {
		copied[eventType] = topic
	}

	return TopicRouter{
		defaultTopic: defaultTopic,
		routes:       copied,
	}
}

// Topic returns the route for eventType or the default topic.
func (r TopicRouter) Topic(eventType string) string {
	if topic, ok := r.routes[eventType]; ok && topic != "" {
		return topic
	}
	if r.defaultTopic == "" {
		return DefaultTopic
	}
	return r.defaultTopic
}
