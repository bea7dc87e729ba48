package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleType is the kind of vehicle a delivery partner rides.
type VehicleType string

const (
	VehicleBike       VehicleType = "bike"
	VehicleScooter    VehicleType = "scooter"
	VehicleCar        VehicleType = "car"
	VehicleVan        VehicleType = "van"
	VehicleBicycle    VehicleType = "bicycle"
	VehicleMotorcycle VehicleType = "motorcycle"
)

// NormalizeVehicleType maps free-form signup input onto a canonical vehicle
// type. Legacy partner documents carry mixed casing and a couple of spelling
// variants, so matching is case-insensitive and forgiving.
func NormalizeVehicleType(raw string) (VehicleType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "bike":
		return VehicleBike, true
	case "scooter":
		return VehicleScooter, true
	case "car":
		return VehicleCar, true
	case "van":
		return VehicleVan, true
	case "bicycle", "cycle":
		return VehicleBicycle, true
	case "motorcycle", "motorbike", "moto":
		return VehicleMotorcycle, true
	}
	return "", false
}

// UnmarshalBSONValue normalizes vehicle types on decode so legacy documents
// with non-canonical casing still load without failing the entire request.
func (v *VehicleType) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null:
		*v = ""
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		if normalized, ok := NormalizeVehicleType(value); ok {
			*v = normalized
			return nil
		}
		*v = VehicleType(strings.ToLower(strings.TrimSpace(value)))
		return nil
	default:
		return fmt.Errorf("cannot decode %s into VehicleType", t)
	}
}

// MarshalBSONValue always stores the canonical lowercase form.
func (v VehicleType) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(string(v))
}

// DeliveryPartner is a courier that can be bound to at most one active order
// at a time. Available is flipped to false on assignment and only restored
// through the manual availability toggle.
type DeliveryPartner struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Name        string             `bson:"name" json:"name"`
	Phone       string             `bson:"phone" json:"phone"`
	VehicleType VehicleType        `bson:"vehicleType" json:"vehicleType"`
	Available   bool               `bson:"available" json:"available"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
