package handlers

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestDeleteAddressUpdateCombinesPullAndTouch(t *testing.T) {
	now := time.Now()
	update := deleteAddressUpdate("addr-1", now)

	pull, ok := update["$pull"].(bson.M)
	if !ok {
		t.Fatal("expected a $pull stage")
	}
	match, ok := pull["addresses"].(bson.M)
	if !ok || match["id"] != "addr-1" {
		t.Fatalf("expected $pull to target address id, got %v", pull["addresses"])
	}

	set, ok := update["$set"].(bson.M)
	if !ok {
		t.Fatal("expected a $set stage")
	}
	touched, ok := set["updatedAt"].(time.Time)
	if !ok || !touched.Equal(now) {
		t.Fatalf("expected updatedAt to be touched in the same write, got %v", set["updatedAt"])
	}
}
