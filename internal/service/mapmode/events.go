// internal/service/mapmode/events.go

package mapmode

import "shopmap/internal/domain/shop"

// Event is emitted by a mode and consumed by the controller
type Event interface {
	isEvent()
}

// EntityAdded reports a shop created through the edit form
type EntityAdded struct {
	Shop shop.Shop
}

// EntityUpdated reports a shop amended through the edit form
type EntityUpdated struct {
	Shop shop.Shop
}

// PopupClosed asks for the detail popup to be closed
type PopupClosed struct{}

// SwitchRequested asks the controller to toggle the mode. Payload, when set,
// is presented by the next mode as soon as it is ready.
type SwitchRequested struct {
	Payload *shop.Shop
}

func (EntityAdded) isEvent()     {}
func (EntityUpdated) isEvent()   {}
func (PopupClosed) isEvent()     {}
func (SwitchRequested) isEvent() {}
