package model

// EntityType is the discriminator tag stored on every physical item. The tag
// doubles as the key prefix for the entity's identity, which is what keeps
// keys collision-free across entity types.
//
// These values are part of the persisted representation contract. Changing
// one is a breaking migration requiring a data backfill.
type EntityType string

const (
	EntityTypeUser           EntityType = "USER"
	EntityTypeCourse         EntityType = "COURSE"
	EntityTypeLesson         EntityType = "LESSON"
	EntityTypeEnrollment     EntityType = "ENROLLMENT"
	EntityTypeLessonProgress EntityType = "PROGRESS"
	EntityTypeTransaction    EntityType = "TRANSACTION"
	EntityTypeCategory       EntityType = "CATEGORY"
	EntityTypeEmailGuard     EntityType = "EMAIL"
)

// SchemaVersion is stamped on every encoded item so future readers can
// dispatch on the layout an item was written with.
const SchemaVersion = 1

// Entity is implemented by every persistable domain type.
type Entity interface {
	// Type returns the entity's discriminator tag.
	Type() EntityType
	// Validate checks field-level invariants before a write is attempted.
	Validate() error
}
