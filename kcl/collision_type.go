package kcl

import "fmt"

// CollisionType is the 16 bit surface tag of a plane. The high byte is the surface category and
// the low byte a variant used to pick sounds and particles. The query engine never looks at it.
type CollisionType uint16

// Category is the high byte of a CollisionType.
type Category uint8

// Conventional categories, used for tooling output only.
const (
	CategoryRoad          Category = 0x00
	CategorySlipperyRoad  Category = 0x01
	CategoryWeakOffRoad   Category = 0x02
	CategoryOffRoad       Category = 0x03
	CategorySoundTrigger  Category = 0x04
	CategoryHeavyOffRoad  Category = 0x05
	CategoryBoost         Category = 0x06
	CategoryWall          Category = 0x08
	CategoryInvisibleWall Category = 0x09
	CategoryOutOfBounds   Category = 0x0A
	CategoryFallBoundary  Category = 0x0B
	CategoryCannon        Category = 0x0F
	CategorySticky        Category = 0x15
)

var categoryNames = map[Category]string{
	CategoryRoad:          "road",
	CategorySlipperyRoad:  "slippery-road",
	CategoryWeakOffRoad:   "weak-off-road",
	CategoryOffRoad:       "off-road",
	CategorySoundTrigger:  "sound-trigger",
	CategoryHeavyOffRoad:  "heavy-off-road",
	CategoryBoost:         "boost",
	CategoryWall:          "wall",
	CategoryInvisibleWall: "invisible-wall",
	CategoryOutOfBounds:   "out-of-bounds",
	CategoryFallBoundary:  "fall-boundary",
	CategoryCannon:        "cannon",
	CategorySticky:        "sticky",
}

// NewCollisionType packs a category and variant.
func NewCollisionType(category Category, variant uint8) CollisionType {
	return CollisionType(uint16(category)<<8 | uint16(variant))
}

// Category returns the surface category.
func (ct CollisionType) Category() Category {
	return Category(ct >> 8)
}

// Variant returns the surface variant.
func (ct CollisionType) Variant() uint8 {
	return uint8(ct)
}

func (ct CollisionType) String() string {
	return fmt.Sprintf("%s/%d", ct.Category(), ct.Variant())
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(0x%02x)", uint8(c))
}
