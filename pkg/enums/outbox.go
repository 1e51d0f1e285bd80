package enums

// OutboxEventType names the domain events persisted through the outbox.
type OutboxEventType string

const (
	EventOrderPlaced    OutboxEventType = "order.placed"
	EventUserRegistered OutboxEventType = "user.registered"
)

func (t OutboxEventType) String() string {
	return string(t)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
	AggregateUser  OutboxAggregateType = "user"
)

func (t OutboxAggregateType) String() string {
	return string(t)
}
