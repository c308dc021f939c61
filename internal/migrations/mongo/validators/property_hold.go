package validators

import "go.mongodb.org/mongo-driver/bson"

var PropertyHoldValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"property_id",
			"ctv_id",
			"status",
			"hold_until",
			"extend_count",
			"created_at",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"property_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"ctv_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"status": bson.M{
				"enum": []string{"ACTIVE", "EXPIRED", "CANCELLED", "CANCELLED_BY_ADMIN", "AUTO_CANCELLED"},
			},

			"hold_until": bson.M{
				"bsonType": "date",
			},

			"reason": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"extend_count": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"cancelled_by": bson.M{
				"bsonType": "string",
			},

			"cancelled_reason": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
