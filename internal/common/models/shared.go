package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
	AuditActionSweep  AuditAction = "SWEEP"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action    AuditAction        `bson:"action" json:"action"`
	Module    string             `bson:"module" json:"module"`       // The collection name
	RecordID  string             `bson:"record_id" json:"record_id"` // The ID of the record being modified
	ActorID   string             `bson:"actor_id" json:"actor_id"`   // User ID, "guest" or "system"
	OwnerID   string             `bson:"owner_id,omitempty" json:"owner_id,omitempty"`
	Changes   map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

type Log struct {
	Message      string            `bson:"message" json:"message"`
	Caller       string            `bson:"caller,omitempty" json:"caller,omitempty"`
	Fields       map[string]string `bson:"fields,omitempty" json:"fields,omitempty"`
	LogLevelId   int               `bson:"log_level_id" json:"log_level_id"`
	AppId        string            `bson:"app_id" json:"app_id"`
	CreatedOnUtc time.Time         `bson:"created_on_utc" json:"created_on_utc"`
}
