package models

import "time"

// Bucket is a physical slag bucket tracked by name. Buckets are soft-deleted
// so history rows keep resolving.
type Bucket struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BucketFilter defines filters supported by the bucket list endpoint.
type BucketFilter struct {
	IncludeDeleted bool
	Page           int
	PageSize       int
}
