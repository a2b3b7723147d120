// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import "errors"

var (
	// ErrStorageLimit is returned by create and duplicate when the owner
	// already has as many carousels as their plan allows.
	ErrStorageLimit = errors.New("carousel storage limit reached")

	// ErrNotFound is returned by mutations that match no row the caller
	// owns. Lookups return (nil, nil) instead.
	ErrNotFound = errors.New("carousel not found")

	// ErrEmptyCarousel is returned when a carousel with no slides would be
	// persisted.
	ErrEmptyCarousel = errors.New("carousel has no slides")
)
