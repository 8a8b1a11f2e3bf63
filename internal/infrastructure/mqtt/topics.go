package mqtt

import "fmt"

// Topic prefixes for the Vigil MQTT surface.
//
// All topics use the flat scheme: vigil/{category}/{subject...}
// Events flow outward, commands flow inward, system carries status.
const (
	// TopicPrefix is the base for all Vigil topics.
	TopicPrefix = "vigil"

	// TopicPrefixEvent is the base for outbound event topics.
	TopicPrefixEvent = "vigil/event"

	// TopicPrefixCommand is the base for inbound command topics.
	TopicPrefixCommand = "vigil/command"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "vigil/system"
)

// Topics provides builders for Vigil MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	runTopic := topics.WorkflowEvent("sweep")
//	// Returns: "vigil/event/workflow/sweep"
type Topics struct{}

// =============================================================================
// Event Topics
// =============================================================================

// EngineEvent returns the topic for engine lifecycle events
// (started, stopping, stream halted).
//
// Example: vigil/event/engine
func (Topics) EngineEvent() string {
	return fmt.Sprintf("%s/engine", TopicPrefixEvent)
}

// StreamEvent returns the topic for frame stream health events
// (capture recovered, memory alerts, halt).
//
// Example: vigil/event/stream
func (Topics) StreamEvent() string {
	return fmt.Sprintf("%s/stream", TopicPrefixEvent)
}

// WorkflowEvent returns the topic for run events of a specific workflow
// (run started, completed, failed).
//
// Example: vigil/event/workflow/sweep
func (Topics) WorkflowEvent(workflow string) string {
	return fmt.Sprintf("%s/workflow/%s", TopicPrefixEvent, workflow)
}

// =============================================================================
// Command Topics
// =============================================================================

// WorkflowCommand returns the topic for inbound workflow run requests.
// Payloads name the workflow to trigger.
//
// Example: vigil/command/workflow
func (Topics) WorkflowCommand() string {
	return fmt.Sprintf("%s/workflow", TopicPrefixCommand)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic. The broker retains the
// last message here, including the LWT published on unexpected disconnect.
//
// Example: vigil/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllWorkflowEvents returns a pattern matching run events for every workflow.
//
// Pattern: vigil/event/workflow/+
func (Topics) AllWorkflowEvents() string {
	return fmt.Sprintf("%s/workflow/+", TopicPrefixEvent)
}

// AllEvents returns a pattern matching every outbound event.
//
// Pattern: vigil/event/#
func (Topics) AllEvents() string {
	return fmt.Sprintf("%s/#", TopicPrefixEvent)
}

// AllCommands returns a pattern matching every inbound command.
//
// Pattern: vigil/command/#
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/#", TopicPrefixCommand)
}

// AllTopics returns a pattern matching all Vigil topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: vigil/#
func (Topics) AllTopics() string {
	return "vigil/#"
}
