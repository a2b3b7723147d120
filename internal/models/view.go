// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Device is the coarse client class recorded for a public view.
type Device string

const (
	DeviceDesktop Device = "desktop"
	DeviceMobile  Device = "mobile"
	DeviceTablet  Device = "tablet"
	DeviceBot     Device = "bot"
)

// View is one recorded visit to a public carousel.
type View struct {
	ID         uuid.UUID `json:"id"`
	CarouselID uuid.UUID `json:"carousel_id"`
	Device     Device    `json:"device"`
	Referrer   string    `json:"referrer,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
