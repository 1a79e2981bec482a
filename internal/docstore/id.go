package docstore

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ID is the opaque 12-byte document identifier. It is the BSON ObjectID type
// so the Mongo backend stores it natively; other backends persist its hex form.
type ID = primitive.ObjectID

// NilID is the zero identifier.
var NilID = primitive.NilObjectID

// NewID generates a fresh identifier.
func NewID() ID {
	return primitive.NewObjectID()
}

// ParseID parses the 24-character hex form of an identifier. Surrounding
// whitespace is ignored.
func ParseID(s string) (ID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return NilID, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}
