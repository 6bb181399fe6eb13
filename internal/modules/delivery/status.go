package delivery

import (
	"fmt"

	"farmcon/internal/models"
)

// validTransitions enumerates every allowed status move. Absent pairs are
// rejected, which makes delivered, cancelled and failed absorbing states.
var validTransitions = map[models.DeliveryStatus][]models.DeliveryStatus{
	models.DeliveryPending: {
		models.DeliveryAssigned,
		models.DeliveryCancelled,
		models.DeliveryFailed,
	},
	models.DeliveryAssigned: {
		models.DeliveryPickedUp,
		models.DeliveryInTransit,
		models.DeliveryCancelled,
		models.DeliveryFailed,
	},
	models.DeliveryPickedUp: {
		models.DeliveryInTransit,
		models.DeliveryCancelled,
		models.DeliveryFailed,
	},
	models.DeliveryInTransit: {
		models.DeliveryOutForDelivery,
		models.DeliveryDelivered,
		models.DeliveryCancelled,
		models.DeliveryFailed,
	},
	models.DeliveryOutForDelivery: {
		models.DeliveryDelivered,
		models.DeliveryCancelled,
		models.DeliveryFailed,
	},
}

// ValidateTransition returns ErrInvalidStatusTransition (wrapped with both
// states) unless to is reachable from from in one step. Repeating the current
// status is also rejected; callers that want a no-op must check equality first.
func ValidateTransition(from, to models.DeliveryStatus) error {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", models.ErrInvalidStatusTransition, from, to)
}

// IsTerminal reports whether a delivery in this status can never move again.
func IsTerminal(status models.DeliveryStatus) bool {
	return len(validTransitions[status]) == 0
}

// milestoneDescriptions are the human-readable event log lines, keyed by the
// status the delivery just entered.
var milestoneDescriptions = map[models.DeliveryStatus]string{
	models.DeliveryPending:        "Delivery created and awaiting driver assignment",
	models.DeliveryAssigned:       "Driver assigned to delivery",
	models.DeliveryPickedUp:       "Package picked up from seller",
	models.DeliveryInTransit:      "Package in transit",
	models.DeliveryOutForDelivery: "Out for delivery",
	models.DeliveryDelivered:      "Package delivered",
	models.DeliveryCancelled:      "Delivery cancelled",
	models.DeliveryFailed:         "Delivery failed",
}

// MilestoneDescription returns the log line for entering a status.
func MilestoneDescription(status models.DeliveryStatus) string {
	if desc, ok := milestoneDescriptions[status]; ok {
		return desc
	}
	return string(status)
}
