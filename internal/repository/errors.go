// Package repository defines sentinel errors shared across repositories.
// Lifecycle transitions are guarded inside database transactions; when a
// guard fails the repository returns one of these values so the service
// layer can map it onto a typed precondition error instead of a generic
// persistence failure.
package repository

import "errors"

// ErrPlaceOccupied is returned when a transition requires a free place but
// an open occupancy record already exists for it.
var ErrPlaceOccupied = errors.New("place already has an open occupancy record")

// ErrBucketInUse is returned when the bucket is referenced by another open
// occupancy record.
var ErrBucketInUse = errors.New("bucket referenced by another open occupancy record")

// ErrNoOpenState is returned when a transition requires an open occupancy
// record and none exists for the place.
var ErrNoOpenState = errors.New("no open occupancy record for place")

// ErrStateConflict is returned when the open record exists but is in the
// wrong lifecycle state for the requested transition, or was concurrently
// modified between validation and commit.
var ErrStateConflict = errors.New("occupancy record in conflicting state")
