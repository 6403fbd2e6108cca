package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick              // Tick boundary with RNG seed
	EventTypeJump
	EventTypeLandingImpact
	EventTypeChargeThreshold
	EventTypeBoostUsed
	EventTypeFlightStart
	EventTypeFlightEnd
	EventTypeNearMiss
	EventTypeTrickStart
	EventTypeTrickSuccess
	EventTypeTrickBail
	EventTypePickup
	EventTypeDeliveryComplete
	EventTypeDeliveryFailed
	EventTypeCollision
	EventTypeMoneyChanged
	EventTypeUpgradePurchased
	EventTypeHint
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is the core event structure for the bus and the event log
type Event struct {
	Version   uint8     `json:"version"`   // Schema version
	Type      EventType `json:"type"`      // Event type
	Timestamp int64     `json:"timestamp"` // Unix nano
	Sequence  uint64    `json:"sequence"`  // Monotonic sequence
	TickNum   uint64    `json:"tickNum"`   // Game tick this occurred in
	Source    string    `json:"source"`    // Emitting subsystem (for rate limiting)
	Payload   []byte    `json:"payload"`   // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypeJump:
		return "jump"
	case EventTypeLandingImpact:
		return "landing_impact"
	case EventTypeChargeThreshold:
		return "charge_threshold"
	case EventTypeBoostUsed:
		return "boost_used"
	case EventTypeFlightStart:
		return "flight_start"
	case EventTypeFlightEnd:
		return "flight_end"
	case EventTypeNearMiss:
		return "near_miss"
	case EventTypeTrickStart:
		return "trick_start"
	case EventTypeTrickSuccess:
		return "trick_success"
	case EventTypeTrickBail:
		return "trick_bail"
	case EventTypePickup:
		return "pickup"
	case EventTypeDeliveryComplete:
		return "delivery_complete"
	case EventTypeDeliveryFailed:
		return "delivery_failed"
	case EventTypeCollision:
		return "collision"
	case EventTypeMoneyChanged:
		return "money_changed"
	case EventTypeUpgradePurchased:
		return "upgrade_purchased"
	case EventTypeHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// TickPayload contains tick boundary information for replay
type TickPayload struct {
	RNGSeed     int64 `json:"rngSeed"`
	DeltaTimeNs int64 `json:"deltaTimeNs"`
}

// LandingImpactPayload carries the downward speed at the moment of ground contact.
type LandingImpactPayload struct {
	ImpactSpeed float64 `json:"impactSpeed"`
	X           float64 `json:"x"`
	Z           float64 `json:"z"`
}

// ChargeThresholdPayload marks crossing a fractional charge threshold.
type ChargeThresholdPayload struct {
	Threshold float64 `json:"threshold"` // 0.25, 0.5, 0.75 or 1.0
	Charge    float64 `json:"charge"`
}

// NearMissPayload contains near-miss details.
type NearMissPayload struct {
	Distance float64 `json:"distance"`
	Bonus    float64 `json:"bonus"`
}

// TrickPayload describes a started or scored trick.
type TrickPayload struct {
	Axis      string  `json:"axis"` // "spin" or "flip"
	Direction int     `json:"direction"`
	Rotation  float64 `json:"rotation"` // Accumulated degrees
	Score     int     `json:"score,omitempty"`
	Combo     bool    `json:"combo,omitempty"`
}

// DeliveryPayload describes a delivery lifecycle event.
type DeliveryPayload struct {
	Type      string  `json:"type"`
	DestX     float64 `json:"destX"`
	DestZ     float64 `json:"destZ"`
	Remaining float64 `json:"remaining"` // Seconds left (completion) or 0 (timeout)
	Payout    int     `json:"payout,omitempty"`
	Reason    string  `json:"reason,omitempty"` // Failure reason
}

// CollisionPayload describes a player/obstacle contact.
type CollisionPayload struct {
	Obstacle string  `json:"obstacle"` // "building", "car", "drone", "pedestrian"
	Speed    float64 `json:"speed"`
}

// MoneyPayload describes a balance change.
type MoneyPayload struct {
	Delta   int    `json:"delta"`
	Balance int    `json:"balance"`
	Reason  string `json:"reason"`
}

// UpgradePayload describes a purchased upgrade.
type UpgradePayload struct {
	Track string `json:"track"`
	Level int    `json:"level"`
	Cost  int    `json:"cost"`
}

// HintPayload is a toast shown to the player.
type HintPayload struct {
	Text string  `json:"text"`
	TTL  float64 `json:"ttl"`
}

// Decode unmarshals the event payload into a typed struct.
func (e Event) Decode(out interface{}) error {
	return json.Unmarshal(e.Payload, out)
}

// decodePayload unmarshals an event payload into a typed struct.
func decodePayload(data []byte, out interface{}) error {
	return json.Unmarshal(data, out)
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, source string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		Source:    source,
		Payload:   EncodePayload(payload),
	}
}
