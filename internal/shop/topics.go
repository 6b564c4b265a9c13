package shop

// All order lifecycle events share one topic; consumers switch on event_type.
const TopicOrderEvents = "order.events"

// Partition key = order_id, so every event for one order keeps its ordering.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
