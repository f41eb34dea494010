package mqtt

import "fmt"

// TopicPrefixNode is the base for all node-owned topics.
const TopicPrefixNode = "graylogic/node"

// Topics provides builders for node topics.
//
//	topics := mqtt.Topics{}
//	statusTopic := topics.NodeStatus("greenhouse-01")
//	// Returns: "graylogic/node/greenhouse-01/status"
//
// The telemetry topic is not built here; it comes from telemetry.topic in
// the configuration so existing consumers of worker/rawData keep working.
type Topics struct{}

// NodeStatus returns the retained online/offline topic for a node.
//
// Example: graylogic/node/greenhouse-01/status
func (Topics) NodeStatus(clientID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixNode, clientID)
}

// AllNodeStatus returns a pattern matching every node's status topic.
//
// Pattern: graylogic/node/+/status
func (Topics) AllNodeStatus() string {
	return TopicPrefixNode + "/+/status"
}
