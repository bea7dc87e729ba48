package handlers

import (
	"errors"
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestPartnerInsertStatusDuplicatePhone(t *testing.T) {
	dup := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000}},
	}

	status, message := partnerInsertStatus(dup)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate key, got %d", status)
	}
	if message != "phone already registered" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestPartnerInsertStatusGenericError(t *testing.T) {
	status, message := partnerInsertStatus(errors.New("connection reset"))
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500 for generic error, got %d", status)
	}
	if message != "db error" {
		t.Fatalf("unexpected message %q", message)
	}
}
